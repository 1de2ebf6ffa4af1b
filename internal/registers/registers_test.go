package registers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewr95/pm/internal/model"
)

func typeUUID(t *testing.T, c *Catalog, name string) uuid.UUID {
	t.Helper()
	def, ok := c.ByName(name)
	require.True(t, ok, name)
	return def.UUID
}

func TestDefaultCatalogWidths(t *testing.T) {
	c := Default()
	assert.Same(t, c, Default())

	want := map[string]int{
		"int16": 1, "uint16": 1, "int32": 2, "uint32": 2,
		"acc16": 1, "acc32": 2, "acc64": 4,
		"string": 0, "bitfield16": 1, "bitfield32": 2, "pad": 1,
	}
	for name, size := range want {
		def, ok := c.ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, size, def.Size, name)
	}

	n, err := c.NodeFromUUID(uuid.MustParse("ead5f606-8846-4dfb-bd30-d50100f29389"))
	require.NoError(t, err)
	assert.Equal(t, "int16", n.Name)
	assert.Equal(t, int64(1), n.Data.(*model.Enumerator).Value)
	assert.Len(t, c.Types(), 14)
}

func TestCheckSize(t *testing.T) {
	c := Default()

	_, err := c.CheckSize("a", typeUUID(t, c, "int32"), 2)
	require.NoError(t, err)

	_, err = c.CheckSize("b", typeUUID(t, c, "int32"), 1)
	var mismatch *MismatchedSizeAndTypeError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Actual)
	assert.Equal(t, "expected 2 for int32, is 1 for b", err.Error())

	_, err = c.CheckSize("c", typeUUID(t, c, "string"), 17)
	require.NoError(t, err)
	_, err = c.CheckSize("d", typeUUID(t, c, "pad"), 3)
	require.NoError(t, err)

	_, err = c.CheckSize("e", uuid.New(), 1)
	var notFound *TypeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "e", notFound.Point)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.CheckSize("f", uuid.Nil, 1)
	require.ErrorAs(t, err, &notFound)
}

func TestLayoutPlacesTablesAndBlocks(t *testing.T) {
	c := Default()
	u16 := typeUUID(t, c, "uint16")
	i32 := typeUUID(t, c, "int32")

	tree := model.NewTree(model.ModelStaticModbus)
	first := model.New("first", &model.FunctionData{TypeUUID: u16, Size: 1})
	require.NoError(t, tree.Root.AppendChild(first))

	table := model.NewTable("Table")
	require.NoError(t, table.AppendChild(model.New("master", &model.FunctionData{TypeUUID: i32, Size: 2})))
	block := model.NewRepeatingBlock("Block", nil)
	block.Data.(*model.TableRepeatingBlock).Repeats = 3
	require.NoError(t, block.AppendChild(model.New("point", &model.FunctionData{TypeUUID: u16, Size: 1, Units: "V"})))
	require.NoError(t, table.AppendChild(block))
	require.NoError(t, tree.Root.AppendChild(table))

	regs, err := Layout(tree.Root, c, nil)
	require.NoError(t, err)
	require.Len(t, regs, 5)

	assert.Equal(t, 0, regs[0].Offset)
	assert.Equal(t, 1, regs[1].Offset)
	assert.Equal(t, "int32", regs[1].Type)
	for i, r := range regs[2:] {
		assert.Equal(t, 3+i, r.Offset)
		assert.Equal(t, "Block", r.Block)
		assert.Equal(t, i, r.Repeat)
		assert.Equal(t, "V", r.Units)
	}
}

func TestLayoutRefusesInconsistentSizes(t *testing.T) {
	c := Default()
	tree := model.NewTree(model.ModelStaticModbus)
	require.NoError(t, tree.Root.AppendChild(model.New("wide", &model.FunctionData{TypeUUID: typeUUID(t, c, "acc64"), Size: 2})))

	regs, err := Layout(tree.Root, c, nil)
	assert.Nil(t, regs)
	var mismatch *MismatchedSizeAndTypeError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "wide", mismatch.Point)
}

func TestLayoutResolvesParameterNames(t *testing.T) {
	c := Default()
	params := model.NewTree(model.ModelParameters)
	voltage := model.NewParameter("Voltage")
	require.NoError(t, params.Root.AppendChild(voltage))

	tree := model.NewTree(model.ModelStaticModbus)
	require.NoError(t, tree.Root.AppendChild(model.New("", &model.FunctionData{
		ParameterUUID: voltage.UUID, TypeUUID: typeUUID(t, c, "int16"), Size: 1,
	})))

	regs, err := Layout(tree.Root, c, params)
	require.NoError(t, err)
	assert.Equal(t, "Voltage", regs[0].Name)

	require.NoError(t, tree.Root.AppendChild(model.New("", &model.FunctionData{
		ParameterUUID: uuid.New(), TypeUUID: typeUUID(t, c, "int16"), Size: 1,
	})))
	_, err = Layout(tree.Root, c, params)
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)
}
