package model

import "slices"

var rootAccepts = map[ModelKind][]Kind{
	ModelParameters:   {KindParameter, KindGroup, KindArray, KindEnumeration, KindParameterTable},
	ModelSymbols:      {KindMessage, KindMultiplexedMessage},
	ModelStaticModbus: {KindFunctionData, KindTable, KindFunctionDataBitfield, KindFunctionDataBitfieldMember},
	ModelTypes:        {KindEnumeration},
}

// acceptedKinds lists every kind that may ever appear as a child of n.
func acceptedKinds(n *Node) []Kind {
	switch d := n.Data.(type) {
	case *Root:
		return rootAccepts[d.Model]
	case *Group:
		return []Kind{KindParameter, KindGroup, KindArray, KindEnumeration}
	case *Array:
		return []Kind{KindParameter, KindGroup}
	case *Enumeration:
		return []Kind{KindEnumerator}
	case *ParameterTable:
		return []Kind{KindEnumeration, KindArray, KindGroup, KindTableGroupElement}
	case *TableGroupElement:
		return []Kind{KindTableGroupElement, KindTableArrayElement, KindParameter}
	case *TableArrayElement:
		return []Kind{KindParameter}
	case *Table:
		return []Kind{KindTableRepeatingBlock, KindFunctionData}
	case *TableRepeatingBlock:
		return []Kind{KindFunctionData}
	case *FunctionDataBitfield:
		return []Kind{KindFunctionDataBitfieldMember}
	case *Message, *Multiplexer:
		return []Kind{KindSignal}
	case *MultiplexedMessage:
		return []Kind{KindSignal, KindMultiplexer}
	case *Parameter, *Enumerator, *FunctionData, *FunctionDataBitfieldMember, *Signal:
		return nil
	}
	return nil
}

// Accepts reports whether a node of kind k may be inserted below n.
func Accepts(n *Node, k Kind) bool {
	return slices.Contains(acceptedKinds(n), k)
}

// AddableKinds lists the kinds that may be added to n in its current state.
// This can be narrower than Accepts: a multiplexed message only takes a
// multiplexer once it already has a child.
func AddableKinds(n *Node) []Kind {
	switch n.Data.(type) {
	case *Message, *Multiplexer, *Table, *TableRepeatingBlock:
		return nil
	case *MultiplexedMessage:
		if n.Len() > 0 {
			return []Kind{KindSignal, KindMultiplexer}
		}
		return []Kind{KindSignal}
	}
	return acceptedKinds(n)
}

// CanDropOn reports whether dropped may be dropped onto target.
func CanDropOn(target, dropped *Node) bool {
	k := dropped.Kind()
	switch target.Data.(type) {
	case *Message, *FunctionData, *FunctionDataBitfieldMember:
		return k == KindParameter
	case *Multiplexer:
		return k == KindParameter || k == KindSignal
	case *MultiplexedMessage:
		return slices.Contains(AddableKinds(target), k)
	case *FunctionDataBitfield:
		return k == KindParameter || k == KindFunctionDataBitfieldMember
	case *Table:
		return k == KindParameterTable
	}
	return false
}

// ChildFrom applies a drop of dropped onto target. It either updates a
// reference field of target and returns nil, or returns the node that should
// be appended to target. Callers check CanDropOn first.
func ChildFrom(target, dropped *Node) *Node {
	switch d := target.Data.(type) {
	case *Message, *Multiplexer:
		return New(dropped.Name, &Signal{ParameterUUID: dropped.UUID})
	case *MultiplexedMessage:
		return dropped
	case *FunctionData:
		d.ParameterUUID = dropped.UUID
		return nil
	case *FunctionDataBitfieldMember:
		d.ParameterUUID = dropped.UUID
		return nil
	case *FunctionDataBitfield:
		if dropped.Kind() == KindParameter {
			d.ParameterUUID = dropped.UUID
			return nil
		}
		return dropped
	case *Table:
		d.ParameterTableUUID = dropped.UUID
		return nil
	}
	return nil
}
