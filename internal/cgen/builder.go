// Package cgen turns a parameter tree into C enum, struct and typedef
// declarations.
package cgen

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/ident"
	"github.com/drewr95/pm/internal/model"
)

const DefaultType = "int16_t"

var ErrEmptyArray = errors.New("array has no elements")

// NameCollisionError reports two nodes that derive the same identifier in
// one scope. Scope is "file" for top-level names or the struct tag for
// members.
type NameCollisionError struct {
	Scope  string
	Name   string
	First  *model.Node
	Second *model.Node
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name collision in %s: %q from %q and %q", e.Scope, e.Name, e.First.Name, e.Second.Name)
}

type Options struct {
	// DefaultType types parameters that declare none. Empty means int16_t.
	DefaultType string
	// StrictTypedefs emits `typedef struct X_s X_t;` for structs instead of
	// the historical `typedef enum X_s X_t;`.
	StrictTypedefs bool
	// Parameters resolves enumeration references. Nil uses the tree of the
	// generated node.
	Parameters model.Index
}

// Build returns the declarations for n in emission order. Nested types are
// declared before the struct that uses them. Parameter tables are skipped.
func Build(n *model.Node, opts Options) ([]Decl, error) {
	if opts.DefaultType == "" {
		opts.DefaultType = DefaultType
	}
	if opts.Parameters == nil {
		opts.Parameters = model.IndexOf(n)
	}
	b := &builder{opts: opts, global: newScope("file")}

	var err error
	if n.Kind() == model.KindRoot {
		for _, child := range n.Children() {
			if err = b.topLevel(child); err != nil {
				break
			}
		}
	} else {
		err = b.topLevel(n)
	}
	if err != nil {
		return nil, err
	}
	return b.decls, nil
}

// Generate builds and formats n.
func Generate(n *model.Node, opts Options) (string, error) {
	decls, err := Build(n, opts)
	if err != nil {
		return "", err
	}
	return String(decls), nil
}

type scope struct {
	name  string
	names map[string]*model.Node
}

func newScope(name string) *scope {
	return &scope{name: name, names: make(map[string]*model.Node)}
}

func (s *scope) claim(id string, n *model.Node) error {
	if prev, ok := s.names[id]; ok {
		return &NameCollisionError{Scope: s.name, Name: id, First: prev, Second: n}
	}
	s.names[id] = n
	return nil
}

type builder struct {
	opts   Options
	global *scope
	decls  []Decl
}

func (b *builder) topLevel(n *model.Node) error {
	switch n.Data.(type) {
	case *model.Group:
		_, err := b.group(n)
		return err
	case *model.Enumeration:
		_, err := b.enum(n)
		return err
	case *model.Parameter, *model.Array:
		m, err := b.member(n)
		if err != nil {
			return err
		}
		if err := b.global.claim(m.Name, n); err != nil {
			return err
		}
		b.decls = append(b.decls, &Var{Type: m.Type, Name: m.Name, Len: m.Len})
	}
	return nil
}

// group declares the struct for n after everything it depends on and returns
// its typedef name.
func (b *builder) group(n *model.Node) (string, error) {
	tag, err := ident.StructTag(n.Name)
	if err != nil {
		return "", err
	}
	typedef, err := ident.Typedef(n.Name)
	if err != nil {
		return "", err
	}
	if err := b.global.claim(tag, n); err != nil {
		return "", err
	}
	if err := b.global.claim(typedef, n); err != nil {
		return "", err
	}

	members := newScope(tag)
	s := &Struct{Tag: tag}
	for _, child := range n.Children() {
		if child.Kind() == model.KindEnumeration {
			if _, err := b.enum(child); err != nil {
				return "", err
			}
			continue
		}
		m, err := b.member(child)
		if err != nil {
			return "", err
		}
		if err := members.claim(m.Name, child); err != nil {
			return "", err
		}
		s.Members = append(s.Members, m)
	}

	keyword := "enum"
	if b.opts.StrictTypedefs {
		keyword = "struct"
	}
	b.decls = append(b.decls, s, &Typedef{Keyword: keyword, Tag: tag, Name: typedef})
	return typedef, nil
}

func (b *builder) member(n *model.Node) (Member, error) {
	name, err := ident.Lower(n.Name)
	if err != nil {
		return Member{}, err
	}

	switch d := n.Data.(type) {
	case *model.Parameter:
		typ, err := b.parameterType(n, d)
		if err != nil {
			return Member{}, err
		}
		return Member{Type: typ, Name: name}, nil
	case *model.Group:
		typ, err := b.group(n)
		if err != nil {
			return Member{}, err
		}
		return Member{Type: typ, Name: name}, nil
	case *model.Array:
		if n.Len() == 0 {
			return Member{}, fmt.Errorf("%w: %q", ErrEmptyArray, n.Name)
		}
		element, err := b.member(n.Child(0))
		if err != nil {
			return Member{}, err
		}
		return Member{Type: element.Type, Name: name, Len: n.Len()}, nil
	}
	return Member{}, fmt.Errorf("%w: %s %q cannot be a struct member", model.ErrInvalidChild, n.Kind(), n.Name)
}

func (b *builder) parameterType(n *model.Node, d *model.Parameter) (string, error) {
	if d.EnumerationUUID != uuid.Nil {
		e, err := model.ResolveKind(b.opts.Parameters, "enumeration_uuid", d.EnumerationUUID, model.KindEnumeration)
		if err != nil {
			return "", fmt.Errorf("parameter %q: %w", n.Name, err)
		}
		return ident.Typedef(e.Name)
	}
	if d.Type != "" {
		return d.Type, nil
	}
	return b.opts.DefaultType, nil
}

// enum declares an enumeration. Enumerators are prefixed with the enum name
// since C enumerators share the file scope.
func (b *builder) enum(n *model.Node) (string, error) {
	upper, err := ident.Upper(n.Name)
	if err != nil {
		return "", err
	}
	tag, _ := ident.EnumTag(n.Name)
	typedef, _ := ident.Typedef(n.Name)
	if err := b.global.claim(tag, n); err != nil {
		return "", err
	}
	if err := b.global.claim(typedef, n); err != nil {
		return "", err
	}

	e := &Enum{Tag: tag}
	for _, child := range n.Children() {
		d, ok := child.Data.(*model.Enumerator)
		if !ok {
			continue
		}
		name, err := ident.Upper(child.Name)
		if err != nil {
			return "", err
		}
		name = upper + "_" + name
		if err := b.global.claim(name, child); err != nil {
			return "", err
		}
		e.Enumerators = append(e.Enumerators, Enumerator{Name: name, Value: d.Value})
	}

	b.decls = append(b.decls, e, &Typedef{Keyword: "enum", Tag: tag, Name: typedef})
	return typedef, nil
}
