package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/drewr95/pm/internal/model"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// number is a decimal kept as its text so values like 0.1 survive a round
// trip. It is written as a bare number.
type number string

func (n number) MarshalJSON() ([]byte, error) { return []byte(n), nil }

func (n *number) UnmarshalJSON(b []byte) error {
	*n = number(strings.Trim(string(b), `"`))
	return nil
}

func (n number) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: string(n)}, nil
}

func (n *number) UnmarshalYAML(value *yaml.Node) error {
	*n = number(value.Value)
	return nil
}

func decimalFrom(n *number, field string) (*apd.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	d, _, err := apd.NewFromString(string(*n))
	if err != nil {
		return nil, fmt.Errorf("%s: bad decimal %q: %w", field, string(*n), err)
	}
	return d, nil
}

func numberFrom(d *apd.Decimal) *number {
	if d == nil {
		return nil
	}
	n := number(d.Text('f'))
	return &n
}

// document is the serialized form of one node. Fields not used by the
// node's kind are left empty.
type document struct {
	Type     string      `json:"_type" yaml:"_type"`
	Name     string      `json:"name" yaml:"name"`
	UUID     *uuid.UUID  `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Model    string      `json:"model,omitempty" yaml:"model,omitempty"`
	Children []*document `json:"children,omitempty" yaml:"children,omitempty"`

	ParameterType      string      `json:"type,omitempty" yaml:"type,omitempty"`
	AccessLevelUUID    *uuid.UUID  `json:"access_level_uuid,omitempty" yaml:"access_level_uuid,omitempty"`
	EnumerationUUID    *uuid.UUID  `json:"enumeration_uuid,omitempty" yaml:"enumeration_uuid,omitempty"`
	Original           *uuid.UUID  `json:"original,omitempty" yaml:"original,omitempty"`
	Value              *int64      `json:"value,omitempty" yaml:"value,omitempty"`
	Path               []uuid.UUID `json:"path,omitempty" yaml:"path,omitempty"`
	ParameterTableUUID *uuid.UUID  `json:"parameter_table_uuid,omitempty" yaml:"parameter_table_uuid,omitempty"`
	Repeats            *int        `json:"repeats,omitempty" yaml:"repeats,omitempty"`
	ParameterUUID      *uuid.UUID  `json:"parameter_uuid,omitempty" yaml:"parameter_uuid,omitempty"`
	TypeUUID           *uuid.UUID  `json:"type_uuid,omitempty" yaml:"type_uuid,omitempty"`
	FactorUUID         *uuid.UUID  `json:"factor_uuid,omitempty" yaml:"factor_uuid,omitempty"`
	Size               *int        `json:"size,omitempty" yaml:"size,omitempty"`
	Units              string      `json:"units,omitempty" yaml:"units,omitempty"`
	NotImplemented     bool        `json:"not_implemented,omitempty" yaml:"not_implemented,omitempty"`
	BitOffset          *int        `json:"bit_offset,omitempty" yaml:"bit_offset,omitempty"`
	BitLength          *int        `json:"bit_length,omitempty" yaml:"bit_length,omitempty"`
	Identifier         *int64      `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Extended           *bool       `json:"extended,omitempty" yaml:"extended,omitempty"`
	Length             *int        `json:"length,omitempty" yaml:"length,omitempty"`
	CycleTime          *number     `json:"cycle_time,omitempty" yaml:"cycle_time,omitempty"`
	Comment            string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	Bits               *int        `json:"bits,omitempty" yaml:"bits,omitempty"`
	Signed             bool        `json:"signed,omitempty" yaml:"signed,omitempty"`
	Factor             *number     `json:"factor,omitempty" yaml:"factor,omitempty"`
}

func ref(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func optRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func ptr[T any](v T) *T { return &v }

func canIdentifier(v *int64) (uint32, error) {
	if v == nil {
		return model.DefaultIdentifier, nil
	}
	if *v < 0 || *v > math.MaxUint32 {
		return 0, fmt.Errorf("identifier %d out of range", *v)
	}
	return uint32(*v), nil
}

// Decode parses a document of the expected model. A root that names no
// model is taken to hold the expected one.
func Decode(data []byte, format Format, expect model.ModelKind) (*model.Tree, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse model document: %w", err)
	}
	if doc.Type != model.KindRoot.String() {
		return nil, fmt.Errorf("document must start with a %s node, got %q", model.KindRoot, doc.Type)
	}
	if doc.Model == "" {
		doc.Model = string(expect)
	}
	if doc.Model != string(expect) {
		return nil, fmt.Errorf("document holds the %q model, expected %q", doc.Model, expect)
	}

	root, err := decodeNode(&doc)
	if err != nil {
		return nil, err
	}
	return model.NewTreeFromRoot(root)
}

func decodeNode(doc *document) (*model.Node, error) {
	kind, ok := model.KindFromTag(doc.Type)
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", doc.Type)
	}
	data, err := decodeData(kind, doc)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", doc.Type, doc.Name, err)
	}

	id := ref(doc.UUID)
	if id == uuid.Nil {
		id = uuid.New()
	}
	n := model.NewWithUUID(id, doc.Name, data)
	for _, c := range doc.Children {
		child, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		if err := n.AppendChild(child); err != nil {
			return nil, fmt.Errorf("%s %q: %w", doc.Type, doc.Name, err)
		}
	}
	return n, nil
}

func decodeData(kind model.Kind, doc *document) (model.Data, error) {
	switch kind {
	case model.KindRoot:
		return &model.Root{Model: model.ModelKind(doc.Model)}, nil
	case model.KindParameter:
		return &model.Parameter{
			Type:            doc.ParameterType,
			AccessLevelUUID: ref(doc.AccessLevelUUID),
			EnumerationUUID: ref(doc.EnumerationUUID),
			Original:        ref(doc.Original),
		}, nil
	case model.KindGroup:
		return &model.Group{}, nil
	case model.KindArray:
		return &model.Array{}, nil
	case model.KindEnumeration:
		return &model.Enumeration{}, nil
	case model.KindEnumerator:
		var v int64
		if doc.Value != nil {
			v = *doc.Value
		}
		return &model.Enumerator{Value: v}, nil
	case model.KindParameterTable:
		return &model.ParameterTable{}, nil
	case model.KindTableGroupElement:
		return &model.TableGroupElement{Path: doc.Path, Original: ref(doc.Original)}, nil
	case model.KindTableArrayElement:
		return &model.TableArrayElement{Original: ref(doc.Original)}, nil
	case model.KindTable:
		return &model.Table{ParameterTableUUID: ref(doc.ParameterTableUUID)}, nil
	case model.KindTableRepeatingBlock:
		return &model.TableRepeatingBlock{Repeats: intOr(doc.Repeats, 0), Path: doc.Path}, nil
	case model.KindFunctionData:
		return &model.FunctionData{
			ParameterUUID:   ref(doc.ParameterUUID),
			TypeUUID:        ref(doc.TypeUUID),
			FactorUUID:      ref(doc.FactorUUID),
			EnumerationUUID: ref(doc.EnumerationUUID),
			Size:            intOr(doc.Size, 0),
			Units:           doc.Units,
			NotImplemented:  doc.NotImplemented,
		}, nil
	case model.KindFunctionDataBitfield:
		return &model.FunctionDataBitfield{
			ParameterUUID: ref(doc.ParameterUUID),
			TypeUUID:      ref(doc.TypeUUID),
			Size:          intOr(doc.Size, 0),
		}, nil
	case model.KindFunctionDataBitfieldMember:
		return &model.FunctionDataBitfieldMember{
			ParameterUUID: ref(doc.ParameterUUID),
			TypeUUID:      ref(doc.TypeUUID),
			BitOffset:     doc.BitOffset,
			BitLength:     intOr(doc.BitLength, 1),
		}, nil
	case model.KindMessage:
		cycle, err := decimalFrom(doc.CycleTime, "cycle_time")
		if err != nil {
			return nil, err
		}
		id, err := canIdentifier(doc.Identifier)
		if err != nil {
			return nil, err
		}
		d := &model.Message{Identifier: id, Extended: true, Length: intOr(doc.Length, 0), CycleTime: cycle}
		if doc.Extended != nil {
			d.Extended = *doc.Extended
		}
		return d, nil
	case model.KindMultiplexedMessage:
		id, err := canIdentifier(doc.Identifier)
		if err != nil {
			return nil, err
		}
		d := &model.MultiplexedMessage{Identifier: id, Extended: true}
		if doc.Extended != nil {
			d.Extended = *doc.Extended
		}
		return d, nil
	case model.KindMultiplexer:
		cycle, err := decimalFrom(doc.CycleTime, "cycle_time")
		if err != nil {
			return nil, err
		}
		var id *int
		if doc.Identifier != nil {
			id = ptr(int(*doc.Identifier))
		}
		return &model.Multiplexer{
			Identifier: id,
			Length:     intOr(doc.Length, 0),
			CycleTime:  cycle,
			Comment:    doc.Comment,
		}, nil
	case model.KindSignal:
		factor, err := decimalFrom(doc.Factor, "factor")
		if err != nil {
			return nil, err
		}
		return &model.Signal{
			Bits:          intOr(doc.Bits, 0),
			Signed:        doc.Signed,
			Factor:        factor,
			ParameterUUID: ref(doc.ParameterUUID),
		}, nil
	}
	return nil, fmt.Errorf("no document mapping for %s", kind)
}

// Encode writes tree in the given format. JSON is indented by two spaces.
// The result always ends with a single newline.
func Encode(tree *model.Tree, format Format) ([]byte, error) {
	doc := encodeNode(tree.Root)
	switch format {
	case FormatYAML:
		var b bytes.Buffer
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func encodeNode(n *model.Node) *document {
	doc := &document{Type: n.Kind().String(), Name: n.Name, UUID: ptr(n.UUID)}
	for _, c := range n.Children() {
		doc.Children = append(doc.Children, encodeNode(c))
	}

	switch d := n.Data.(type) {
	case *model.Root:
		doc.Model = string(d.Model)
	case *model.Parameter:
		doc.ParameterType = d.Type
		doc.AccessLevelUUID = optRef(d.AccessLevelUUID)
		doc.EnumerationUUID = optRef(d.EnumerationUUID)
		doc.Original = optRef(d.Original)
	case *model.Enumerator:
		doc.Value = ptr(d.Value)
	case *model.TableGroupElement:
		doc.Path = d.Path
		doc.Original = optRef(d.Original)
	case *model.TableArrayElement:
		doc.Original = optRef(d.Original)
	case *model.Table:
		doc.ParameterTableUUID = optRef(d.ParameterTableUUID)
	case *model.TableRepeatingBlock:
		doc.Repeats = ptr(d.Repeats)
		doc.Path = d.Path
	case *model.FunctionData:
		doc.ParameterUUID = optRef(d.ParameterUUID)
		doc.TypeUUID = optRef(d.TypeUUID)
		doc.FactorUUID = optRef(d.FactorUUID)
		doc.EnumerationUUID = optRef(d.EnumerationUUID)
		doc.Size = ptr(d.Size)
		doc.Units = d.Units
		doc.NotImplemented = d.NotImplemented
	case *model.FunctionDataBitfield:
		doc.ParameterUUID = optRef(d.ParameterUUID)
		doc.TypeUUID = optRef(d.TypeUUID)
		doc.Size = ptr(d.Size)
	case *model.FunctionDataBitfieldMember:
		doc.ParameterUUID = optRef(d.ParameterUUID)
		doc.TypeUUID = optRef(d.TypeUUID)
		doc.BitOffset = d.BitOffset
		doc.BitLength = ptr(d.BitLength)
	case *model.Message:
		doc.Identifier = ptr(int64(d.Identifier))
		doc.Extended = ptr(d.Extended)
		doc.Length = ptr(d.Length)
		doc.CycleTime = numberFrom(d.CycleTime)
	case *model.MultiplexedMessage:
		doc.Identifier = ptr(int64(d.Identifier))
		doc.Extended = ptr(d.Extended)
	case *model.Multiplexer:
		if d.Identifier != nil {
			doc.Identifier = ptr(int64(*d.Identifier))
		}
		doc.Length = ptr(d.Length)
		doc.CycleTime = numberFrom(d.CycleTime)
		doc.Comment = d.Comment
	case *model.Signal:
		doc.Bits = ptr(d.Bits)
		doc.Signed = d.Signed
		doc.Factor = numberFrom(d.Factor)
		doc.ParameterUUID = optRef(d.ParameterUUID)
	}
	return doc
}
