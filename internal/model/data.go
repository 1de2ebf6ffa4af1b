package model

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Data carries the kind-specific attributes of a Node.
type Data interface {
	Kind() Kind
	isData()
}

// Reference fields hold uuid.Nil when unset.

type Root struct {
	Model ModelKind
}

type Parameter struct {
	// Type is the C type of the parameter. Empty selects the generator default.
	Type            string
	AccessLevelUUID uuid.UUID
	EnumerationUUID uuid.UUID
	// Original is set on copies generated inside a parameter table and points
	// at the master element the copy was made from.
	Original uuid.UUID
}

type Group struct{}

type Array struct{}

type Enumeration struct{}

type Enumerator struct {
	Value int64
}

// ParameterTable is the parameter-model definition of a table: dimension
// enumerations, array and group sections, and the generated combination tree.
type ParameterTable struct{}

type TableGroupElement struct {
	Path     []uuid.UUID
	Original uuid.UUID
}

type TableArrayElement struct {
	Original uuid.UUID
}

// Table is the static-modbus view of a ParameterTable.
type Table struct {
	ParameterTableUUID uuid.UUID
}

type TableRepeatingBlock struct {
	Repeats int
	Path    []uuid.UUID
}

type FunctionData struct {
	ParameterUUID   uuid.UUID
	TypeUUID        uuid.UUID
	FactorUUID      uuid.UUID
	EnumerationUUID uuid.UUID
	Size            int
	Units           string
	NotImplemented  bool
}

type FunctionDataBitfield struct {
	ParameterUUID uuid.UUID
	TypeUUID      uuid.UUID
	Size          int
}

type FunctionDataBitfieldMember struct {
	ParameterUUID uuid.UUID
	TypeUUID      uuid.UUID
	BitOffset     *int
	BitLength     int
}

type Message struct {
	Identifier uint32
	Extended   bool
	Length     int
	CycleTime  *apd.Decimal
}

type MultiplexedMessage struct {
	Identifier uint32
	Extended   bool
}

type Multiplexer struct {
	Identifier *int
	Length     int
	CycleTime  *apd.Decimal
	Comment    string
}

type Signal struct {
	Bits   int
	Signed bool
	// Factor nil means 1.
	Factor        *apd.Decimal
	ParameterUUID uuid.UUID
}

func (*Root) Kind() Kind                       { return KindRoot }
func (*Parameter) Kind() Kind                  { return KindParameter }
func (*Group) Kind() Kind                      { return KindGroup }
func (*Array) Kind() Kind                      { return KindArray }
func (*Enumeration) Kind() Kind                { return KindEnumeration }
func (*Enumerator) Kind() Kind                 { return KindEnumerator }
func (*ParameterTable) Kind() Kind             { return KindParameterTable }
func (*TableGroupElement) Kind() Kind          { return KindTableGroupElement }
func (*TableArrayElement) Kind() Kind          { return KindTableArrayElement }
func (*Table) Kind() Kind                      { return KindTable }
func (*TableRepeatingBlock) Kind() Kind        { return KindTableRepeatingBlock }
func (*FunctionData) Kind() Kind               { return KindFunctionData }
func (*FunctionDataBitfield) Kind() Kind       { return KindFunctionDataBitfield }
func (*FunctionDataBitfieldMember) Kind() Kind { return KindFunctionDataBitfieldMember }
func (*Message) Kind() Kind                    { return KindMessage }
func (*MultiplexedMessage) Kind() Kind         { return KindMultiplexedMessage }
func (*Multiplexer) Kind() Kind                { return KindMultiplexer }
func (*Signal) Kind() Kind                     { return KindSignal }

func (*Root) isData()                       {}
func (*Parameter) isData()                  {}
func (*Group) isData()                      {}
func (*Array) isData()                      {}
func (*Enumeration) isData()                {}
func (*Enumerator) isData()                 {}
func (*ParameterTable) isData()             {}
func (*TableGroupElement) isData()          {}
func (*TableArrayElement) isData()          {}
func (*Table) isData()                      {}
func (*TableRepeatingBlock) isData()        {}
func (*FunctionData) isData()               {}
func (*FunctionDataBitfield) isData()       {}
func (*FunctionDataBitfieldMember) isData() {}
func (*Message) isData()                    {}
func (*MultiplexedMessage) isData()         {}
func (*Multiplexer) isData()                {}
func (*Signal) isData()                     {}

// DefaultIdentifier is the CAN identifier given to new messages.
const DefaultIdentifier uint32 = 0x1fffffff

func NewParameter(name string) *Node { return New(name, &Parameter{}) }
func NewGroup(name string) *Node     { return New(name, &Group{}) }
func NewArray(name string) *Node     { return New(name, &Array{}) }

func NewEnumeration(name string) *Node { return New(name, &Enumeration{}) }

func NewEnumerator(name string, value int64) *Node {
	return New(name, &Enumerator{Value: value})
}

func NewParameterTable(name string) *Node { return New(name, &ParameterTable{}) }

func NewTable(name string) *Node { return New(name, &Table{}) }

func NewFunctionData(parameter uuid.UUID) *Node {
	return New("", &FunctionData{ParameterUUID: parameter})
}

func NewRepeatingBlock(name string, path []uuid.UUID) *Node {
	return New(name, &TableRepeatingBlock{Path: append([]uuid.UUID(nil), path...)})
}

func NewMessage(name string) *Node {
	return New(name, &Message{Identifier: DefaultIdentifier, Extended: true})
}

func NewMultiplexedMessage(name string) *Node {
	return New(name, &MultiplexedMessage{Identifier: DefaultIdentifier, Extended: true})
}

func NewMultiplexer(name string, identifier int) *Node {
	return New(name, &Multiplexer{Identifier: &identifier})
}

func NewSignal(name string) *Node { return New(name, &Signal{}) }

// PathKey renders a uuid path as a comparable string.
func PathKey(path []uuid.UUID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return strings.Join(parts, "/")
}

// Reference describes one uuid reference field on a node and the model it
// resolves against.
type Reference struct {
	Field  string
	UUID   uuid.UUID
	Target ModelKind
}

// References lists the reference fields of n, set or not.
func References(n *Node) []Reference {
	switch d := n.Data.(type) {
	case *Parameter:
		return []Reference{
			{Field: "enumeration_uuid", UUID: d.EnumerationUUID, Target: ModelParameters},
		}
	case *Table:
		return []Reference{
			{Field: "parameter_table_uuid", UUID: d.ParameterTableUUID, Target: ModelParameters},
		}
	case *FunctionData:
		return []Reference{
			{Field: "parameter_uuid", UUID: d.ParameterUUID, Target: ModelParameters},
			{Field: "type_uuid", UUID: d.TypeUUID, Target: ModelTypes},
			{Field: "factor_uuid", UUID: d.FactorUUID, Target: ModelStaticModbus},
			{Field: "enumeration_uuid", UUID: d.EnumerationUUID, Target: ModelParameters},
		}
	case *FunctionDataBitfield:
		return []Reference{
			{Field: "parameter_uuid", UUID: d.ParameterUUID, Target: ModelParameters},
			{Field: "type_uuid", UUID: d.TypeUUID, Target: ModelTypes},
		}
	case *FunctionDataBitfieldMember:
		return []Reference{
			{Field: "parameter_uuid", UUID: d.ParameterUUID, Target: ModelParameters},
			{Field: "type_uuid", UUID: d.TypeUUID, Target: ModelTypes},
		}
	case *Signal:
		return []Reference{
			{Field: "parameter_uuid", UUID: d.ParameterUUID, Target: ModelParameters},
		}
	}
	return nil
}
