package registers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/model"
)

//go:embed types.json
var defaultTypesJSON []byte

type catalogDocument struct {
	Name  string           `json:"name"`
	UUID  uuid.UUID        `json:"uuid"`
	Types []TypeDefinition `json:"types"`
}

// TypeDefinition is one register encoding and its width in 16-bit registers.
type TypeDefinition struct {
	Name     string    `json:"name"`
	Size     int       `json:"size"`
	Variable bool      `json:"variable"`
	UUID     uuid.UUID `json:"uuid"`
}

// Catalog is the static-modbus register type catalog. It is a tree of one
// enumeration whose enumerators carry the type widths as values.
type Catalog struct {
	Tree        *model.Tree
	Enumeration *model.Node

	defs   map[string]TypeDefinition
	mu     sync.Mutex
	ctx    *cue.Context
	points cue.Value
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It is built once and shared.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultTypesJSON)
		if err != nil {
			panic(fmt.Sprintf("failed to parse default embedded register types: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func Load(content []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse register types: %v", err)
	}

	tree := model.NewTree(model.ModelTypes)
	enumeration := model.NewWithUUID(doc.UUID, doc.Name, &model.Enumeration{})
	c := &Catalog{
		Tree:        tree,
		Enumeration: enumeration,
		defs:        make(map[string]TypeDefinition),
	}
	for _, def := range doc.Types {
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("register type %q defined twice", def.Name)
		}
		c.defs[def.Name] = def
		node := model.NewWithUUID(def.UUID, def.Name, &model.Enumerator{Value: int64(def.Size)})
		if err := enumeration.AppendChild(node); err != nil {
			return nil, err
		}
	}
	if err := tree.Root.AppendChild(enumeration); err != nil {
		return nil, err
	}

	c.ctx = cuecontext.New()
	schema := c.ctx.CompileString(c.pointSchema())
	if schema.Err() != nil {
		return nil, fmt.Errorf("failed to compile register schema: %v", schema.Err())
	}
	c.points = schema.LookupPath(cue.ParsePath("#Point"))
	return c, nil
}

// pointSchema renders one disjunct per type. Fixed-width types pin the size,
// variable-width types accept any non-negative size.
func (c *Catalog) pointSchema() string {
	var disjuncts []string
	for _, enumerator := range c.Enumeration.Children() {
		def := c.defs[enumerator.Name]
		size := strconv.Itoa(def.Size)
		if def.Variable {
			size = "int & >=0"
		}
		disjuncts = append(disjuncts, fmt.Sprintf("{type: %s, size: %s}", strconv.Quote(def.Name), size))
	}
	return "#Point: " + strings.Join(disjuncts, " | ") + "\n"
}

// NodeFromUUID makes the catalog usable as a resolution target.
func (c *Catalog) NodeFromUUID(id uuid.UUID) (*model.Node, error) {
	return c.Tree.NodeFromUUID(id)
}

// Types lists the catalog in declaration order.
func (c *Catalog) Types() []TypeDefinition {
	var defs []TypeDefinition
	for _, n := range c.Enumeration.Children() {
		defs = append(defs, c.defs[n.Name])
	}
	return defs
}

func (c *Catalog) ByName(name string) (TypeDefinition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// Type resolves a type_uuid to its definition.
func (c *Catalog) Type(id uuid.UUID) (TypeDefinition, error) {
	n, err := model.ResolveKind(c, "type_uuid", id, model.KindEnumerator)
	if err != nil {
		return TypeDefinition{}, &TypeNotFoundError{TypeUUID: id, err: err}
	}
	if n == nil {
		return TypeDefinition{}, &TypeNotFoundError{TypeUUID: id}
	}
	return c.defs[n.Name], nil
}

// CheckSize validates size against the width of the type referenced by
// typeUUID. point names the checked node in errors.
func (c *Catalog) CheckSize(point string, typeUUID uuid.UUID, size int) (TypeDefinition, error) {
	def, err := c.Type(typeUUID)
	if err != nil {
		err.(*TypeNotFoundError).Point = point
		return def, err
	}

	c.mu.Lock()
	res := c.points.Unify(c.ctx.Encode(map[string]any{"type": def.Name, "size": size}))
	verr := res.Validate(cue.Concrete(true))
	c.mu.Unlock()

	if verr != nil {
		return def, &MismatchedSizeAndTypeError{
			Point:    point,
			TypeName: def.Name,
			Expected: def.Size,
			Actual:   size,
		}
	}
	return def, nil
}
