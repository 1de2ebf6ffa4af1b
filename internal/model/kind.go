package model

// Kind identifies the variant of a Node. The set is closed; every switch over
// Kind in this module is expected to be exhaustive.
type Kind int

const (
	KindRoot Kind = iota
	KindParameter
	KindGroup
	KindArray
	KindEnumeration
	KindEnumerator
	KindParameterTable
	KindTableGroupElement
	KindTableArrayElement
	KindTable
	KindTableRepeatingBlock
	KindFunctionData
	KindFunctionDataBitfield
	KindFunctionDataBitfieldMember
	KindMessage
	KindMultiplexedMessage
	KindMultiplexer
	KindSignal
)

var kindTags = [...]string{
	KindRoot:                       "root",
	KindParameter:                  "parameter",
	KindGroup:                      "group",
	KindArray:                      "array",
	KindEnumeration:                "enumeration",
	KindEnumerator:                 "enumerator",
	KindParameterTable:             "parameter_table",
	KindTableGroupElement:          "table_group_element",
	KindTableArrayElement:          "table_array_element",
	KindTable:                      "table",
	KindTableRepeatingBlock:        "table_repeating_block",
	KindFunctionData:               "function_data",
	KindFunctionDataBitfield:       "function_data_bitfield",
	KindFunctionDataBitfieldMember: "function_data_bitfield_member",
	KindMessage:                    "message",
	KindMultiplexedMessage:         "multiplexed_message",
	KindMultiplexer:                "multiplexer",
	KindSignal:                     "signal",
}

// String returns the document tag of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTags) {
		return "unknown"
	}
	return kindTags[k]
}

// KindFromTag is the inverse of Kind.String.
func KindFromTag(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// ModelKind names one of the independent sub-model trees.
type ModelKind string

const (
	ModelParameters   ModelKind = "parameters"
	ModelSymbols      ModelKind = "symbols"
	ModelStaticModbus ModelKind = "staticmodbus"
	// ModelTypes is the static-modbus register type catalog. It is built in,
	// never loaded from a document.
	ModelTypes ModelKind = "staticmodbus types"
)

func (m ModelKind) defaultRootName() string {
	switch m {
	case ModelParameters:
		return "Parameters"
	case ModelSymbols:
		return "Symbols"
	case ModelStaticModbus:
		return "Static Modbus"
	case ModelTypes:
		return "Static Modbus Types"
	}
	return "Root"
}
