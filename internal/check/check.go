// Package check reports structural problems in the models of a project.
package check

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/ident"
	"github.com/drewr95/pm/internal/model"
	"github.com/drewr95/pm/internal/project"
	"github.com/drewr95/pm/internal/registers"
)

type DiagnosticLevel int

const (
	LevelError DiagnosticLevel = iota
	LevelWarning
	LevelInformation
)

func (l DiagnosticLevel) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	}
	return "info"
}

type Diagnostic struct {
	Level   DiagnosticLevel
	Message string
	Model   model.ModelKind
	Node    *model.Node
}

func (d Diagnostic) String() string {
	if d.Node == nil {
		return fmt.Sprintf("%s: %s", d.Level, d.Message)
	}
	return fmt.Sprintf("%s: %s %s %q (%s): %s", d.Level, d.Model, d.Node.Kind(), d.Node.Name, d.Node.UUID, d.Message)
}

type Checker struct {
	Diagnostics []Diagnostic
	Project     *project.Project
}

func NewChecker(p *project.Project) *Checker {
	return &Checker{Project: p}
}

// Run checks every model of p.
func Run(p *project.Project) []Diagnostic {
	c := NewChecker(p)
	c.CheckProject()
	return c.Diagnostics
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

func (c *Checker) report(n *model.Node, level DiagnosticLevel, format string, args ...any) {
	var kind model.ModelKind
	if n != nil && n.Tree() != nil {
		kind = n.Tree().Model
	}
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Model:   kind,
		Node:    n,
	})
}

func (c *Checker) CheckProject() {
	p := c.Project
	p.Parameters.Walk(c.checkParameterNode)
	p.Symbols.Walk(c.checkSymbolNode)
	p.StaticModbus.Walk(c.checkStaticModbusNode)

	c.checkSiblingIdentifiers(p.Parameters.Root, ident.Lower)
	c.checkSiblingIdentifiers(p.Symbols.Root, ident.Upper)
	if !HasErrors(c.Diagnostics) {
		c.checkLayout()
	}
}

// reference resolves one reference field and reports a dangling or
// wrong-kind target as an error.
func (c *Checker) reference(n *model.Node, target model.Index, field string, id uuid.UUID, kinds ...model.Kind) *model.Node {
	found, err := model.ResolveKind(target, field, id, kinds...)
	if err != nil {
		if errors.Is(err, model.ErrWrongKind) {
			c.report(n, LevelError, "%s %s does not refer to a %s", field, id, kinds[0])
		} else {
			c.report(n, LevelError, "%s %s not found", field, id)
		}
		return nil
	}
	return found
}

func (c *Checker) checkParameterNode(n *model.Node) {
	if d, ok := n.Data.(*model.Parameter); ok {
		c.reference(n, c.Project.Parameters, "enumeration_uuid", d.EnumerationUUID, model.KindEnumeration)
	}
}

func (c *Checker) checkSymbolNode(n *model.Node) {
	params := c.Project.Parameters
	switch d := n.Data.(type) {
	case *model.Signal:
		c.reference(n, params, "parameter_uuid", d.ParameterUUID, model.KindParameter)
	case *model.Multiplexer:
		if d.Identifier == nil {
			c.report(n, LevelError, "Multiplexer has no identifier")
		}
	case *model.MultiplexedMessage:
		var signals, multiplexers int
		for _, child := range n.Children() {
			switch child.Kind() {
			case model.KindSignal:
				signals++
			case model.KindMultiplexer:
				multiplexers++
			}
		}
		if signals > 0 && multiplexers == 0 {
			c.report(n, LevelWarning, "Signals without a multiplexer, message is left out of the symbol file")
		}
	}
}

func (c *Checker) checkStaticModbusNode(n *model.Node) {
	params := c.Project.Parameters
	types := c.Project.Types
	switch d := n.Data.(type) {
	case *model.FunctionData:
		if d.ParameterUUID == uuid.Nil {
			c.report(n, LevelError, "No parameter connected")
		} else {
			c.reference(n, params, "parameter_uuid", d.ParameterUUID, model.KindParameter)
		}
		c.reference(n, c.Project.StaticModbus, "factor_uuid", d.FactorUUID, model.KindFunctionData)
		c.reference(n, params, "enumeration_uuid", d.EnumerationUUID, model.KindEnumeration)
		c.size(n, types, d.TypeUUID, d.Size)
	case *model.FunctionDataBitfield:
		if d.ParameterUUID == uuid.Nil {
			c.report(n, LevelError, "No parameter connected")
		} else {
			c.reference(n, params, "parameter_uuid", d.ParameterUUID, model.KindParameter)
		}
		c.size(n, types, d.TypeUUID, d.Size)
	case *model.FunctionDataBitfieldMember:
		c.reference(n, params, "parameter_uuid", d.ParameterUUID, model.KindParameter)
		c.reference(n, types, "type_uuid", d.TypeUUID, model.KindEnumerator)
	case *model.Table:
		if d.ParameterTableUUID == uuid.Nil {
			c.report(n, LevelWarning, "No parameter table connected")
			return
		}
		c.reference(n, params, "parameter_table_uuid", d.ParameterTableUUID, model.KindParameterTable)
	}
}

func (c *Checker) size(n *model.Node, types *registers.Catalog, typeUUID uuid.UUID, size int) {
	if _, err := types.CheckSize(n.Name, typeUUID, size); err != nil {
		c.report(n, LevelError, "%v", err)
	}
}

// checkSiblingIdentifiers reports children of one parent that derive the
// same identifier, and names that derive none.
func (c *Checker) checkSiblingIdentifiers(parent *model.Node, derive func(string) (string, error)) {
	seen := make(map[string]*model.Node)
	for _, child := range parent.Children() {
		switch child.Kind() {
		case model.KindEnumerator, model.KindTableGroupElement, model.KindTableArrayElement, model.KindParameterTable:
			continue
		}
		id, err := derive(child.Name)
		if err != nil {
			c.report(child, LevelError, "%v", err)
		} else if prev, ok := seen[id]; ok {
			c.report(child, LevelError, "identifier %s collides with %q", id, prev.Name)
		} else {
			seen[id] = child
		}
		c.checkSiblingIdentifiers(child, derive)
	}
}

func (c *Checker) checkLayout() {
	p := c.Project
	regs, err := registers.Layout(p.StaticModbus.Root, p.Types, p.Parameters)
	if err != nil {
		c.report(p.StaticModbus.Root, LevelError, "%v", err)
		return
	}
	total := 0
	if len(regs) > 0 {
		last := regs[len(regs)-1]
		total = last.Offset + last.Size
	}
	c.report(p.StaticModbus.Root, LevelInformation, "%d points in %d registers", len(regs), total)
}
