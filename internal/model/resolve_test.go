package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNilIsUnset(t *testing.T) {
	params := NewTree(ModelParameters)

	n, err := Resolve(params, "parameter_uuid", uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestResolveAcrossModels(t *testing.T) {
	params := NewTree(ModelParameters)
	param := NewParameter("Voltage")
	require.NoError(t, params.Root.AppendChild(param))

	symbols := NewTree(ModelSymbols)
	message := NewMessage("Status")
	require.NoError(t, symbols.Root.AppendChild(message))
	signal := New("Voltage", &Signal{ParameterUUID: param.UUID})
	require.NoError(t, message.AppendChild(signal))

	ref := signal.Data.(*Signal).ParameterUUID
	got, err := ResolveKind(params, "parameter_uuid", ref, KindParameter)
	require.NoError(t, err)
	assert.Same(t, param, got)

	// the symbol tree does not hold the parameter
	_, err = Resolve(symbols, "parameter_uuid", ref)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveKindNeverReturnsWrongKind(t *testing.T) {
	params := NewTree(ModelParameters)
	group := NewGroup("Group")
	require.NoError(t, params.Root.AppendChild(group))

	n, err := ResolveKind(params, "parameter_uuid", group.UUID, KindParameter)
	assert.Nil(t, n)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrWrongKind)
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	var refErr *ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "parameter_uuid", refErr.Field)
}

func TestCapabilities(t *testing.T) {
	param := NewParameter("Speed")

	message := NewMessage("Message")
	require.True(t, CanDropOn(message, param))
	child := ChildFrom(message, param)
	require.NotNil(t, child)
	assert.Equal(t, "Speed", child.Name)
	assert.Equal(t, param.UUID, child.Data.(*Signal).ParameterUUID)

	mux := NewMultiplexedMessage("Muxed")
	assert.Equal(t, []Kind{KindSignal}, AddableKinds(mux))
	assert.False(t, CanDropOn(mux, NewMultiplexer("A", 0)))
	require.NoError(t, mux.AppendChild(NewSignal("Selector")))
	assert.True(t, CanDropOn(mux, NewMultiplexer("A", 0)))

	fd := NewFunctionData(uuid.Nil)
	require.True(t, CanDropOn(fd, param))
	assert.Nil(t, ChildFrom(fd, param))
	assert.Equal(t, param.UUID, fd.Data.(*FunctionData).ParameterUUID)

	table := NewTable("Table")
	ptable := NewParameterTable("Curves Table")
	assert.False(t, CanDropOn(table, param))
	require.True(t, CanDropOn(table, ptable))
	assert.Nil(t, ChildFrom(table, ptable))
	assert.Equal(t, ptable.UUID, table.Data.(*Table).ParameterTableUUID)

	assert.False(t, CanDropOn(NewSignal("Signal"), param))
}

func TestReferencesContract(t *testing.T) {
	fd := New("", &FunctionData{})
	targets := map[string]ModelKind{}
	for _, r := range References(fd) {
		targets[r.Field] = r.Target
	}
	assert.Equal(t, ModelParameters, targets["parameter_uuid"])
	assert.Equal(t, ModelTypes, targets["type_uuid"])
	assert.Equal(t, ModelStaticModbus, targets["factor_uuid"])
}
