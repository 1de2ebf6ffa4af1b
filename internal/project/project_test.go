package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewr95/pm/internal/model"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[models]
parameters = "parameters.json"
`))
	require.NoError(t, err)
	assert.Equal(t, "int16_t", cfg.C.DefaultType)
	assert.False(t, cfg.C.StrictTypedefs)
	assert.Equal(t, "canmatrix-Export", cfg.Sym.Title)
	assert.Equal(t, "catalog.db", cfg.Catalog.Path)
	assert.Empty(t, cfg.Models.Symbols)
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[models]
parameters = "p.yaml"
symbols = "s.json"
staticmodbus = "/abs/m.json"

[c]
default_type = "unsigned int"
strict_typedefs = true

[sym]
title = "Bus"
`))
	require.NoError(t, err)
	assert.Equal(t, "unsigned int", cfg.C.DefaultType)
	assert.True(t, cfg.C.StrictTypedefs)
	assert.Equal(t, "Bus", cfg.Sym.Title)
	assert.Equal(t, "/abs/m.json", cfg.Resolve(cfg.Models.StaticModbus))
	assert.Equal(t, "s.json", cfg.Resolve(cfg.Models.Symbols))
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing parameters", "[c]\ndefault_type = \"int16_t\"\n"},
		{"bad c type", "[models]\nparameters = \"p.json\"\n[c]\ndefault_type = \"int*\"\n"},
		{"quote in title", "[models]\nparameters = \"p.json\"\n[sym]\ntitle = 'a\"b'\n"},
		{"not toml", "[models"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte("[models]\nparameters = \"models/p.json\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models", "p.json"), cfg.Resolve(cfg.Models.Parameters))

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func symbolsTree(t *testing.T) *model.Tree {
	t.Helper()
	tree := model.NewTree(model.ModelSymbols)
	message := model.NewMessage("Status")
	md := message.Data.(*model.Message)
	md.Identifier = 0x123
	md.Extended = false
	md.CycleTime = apd.New(1, -1)
	signal := model.NewSignal("Voltage")
	sd := signal.Data.(*model.Signal)
	sd.Bits = 16
	sd.Signed = true
	sd.Factor = apd.New(25, -3)
	sd.ParameterUUID = uuid.New()
	require.NoError(t, message.AppendChild(signal))
	require.NoError(t, tree.Root.AppendChild(message))

	mm := model.NewMultiplexedMessage("Paged")
	require.NoError(t, mm.AppendChild(model.NewSignal("Selector")))
	mux := model.NewMultiplexer("Page A", 0)
	mux.Data.(*model.Multiplexer).Comment = "first page"
	require.NoError(t, mm.AppendChild(mux))
	require.NoError(t, tree.Root.AppendChild(mm))
	return tree
}

func TestDocumentRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		tree := symbolsTree(t)
		data, err := Encode(tree, format)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(data), "\n"))
		assert.False(t, strings.HasSuffix(string(data), "\n\n"))

		decoded, err := Decode(data, format, model.ModelSymbols)
		require.NoError(t, err)
		assert.Equal(t, tree.Len(), decoded.Len())

		message := decoded.Root.Child(0)
		assert.Equal(t, tree.Root.Child(0).UUID, message.UUID)
		md := message.Data.(*model.Message)
		assert.Equal(t, uint32(0x123), md.Identifier)
		assert.False(t, md.Extended)
		assert.Equal(t, "0.1", md.CycleTime.Text('f'))

		sd := message.Child(0).Data.(*model.Signal)
		assert.Equal(t, "0.025", sd.Factor.Text('f'))
		assert.True(t, sd.Signed)
		assert.Equal(t, tree.Root.Child(0).Child(0).Data.(*model.Signal).ParameterUUID, sd.ParameterUUID)

		mux := decoded.Root.Child(1).Child(1).Data.(*model.Multiplexer)
		require.NotNil(t, mux.Identifier)
		assert.Equal(t, 0, *mux.Identifier)
		assert.Equal(t, "first page", mux.Comment)

		again, err := Encode(decoded, format)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	}
}

func TestDecodeDefaults(t *testing.T) {
	tree, err := Decode([]byte(`{
  "_type": "root",
  "name": "Symbols",
  "children": [
    {"_type": "message", "name": "Plain", "children": [{"_type": "signal", "name": "S"}]}
  ]
}`), FormatJSON, model.ModelSymbols)
	require.NoError(t, err)

	message := tree.Root.Child(0)
	assert.NotEqual(t, uuid.Nil, message.UUID)
	md := message.Data.(*model.Message)
	assert.Equal(t, model.DefaultIdentifier, md.Identifier)
	assert.True(t, md.Extended)
	assert.Nil(t, md.CycleTime)
	sd := message.Child(0).Data.(*model.Signal)
	assert.Nil(t, sd.Factor)
	assert.Equal(t, 0, sd.Bits)
}

func TestDecodeErrors(t *testing.T) {
	dup := uuid.New()
	tests := []struct {
		name   string
		src    string
		expect model.ModelKind
		is     error
	}{
		{"not a root", `{"_type": "group", "name": "G"}`, model.ModelParameters, nil},
		{"wrong model", `{"_type": "root", "name": "R", "model": "symbols"}`, model.ModelParameters, nil},
		{"unknown type", `{"_type": "root", "name": "R", "children": [{"_type": "widget", "name": "W"}]}`, model.ModelParameters, nil},
		{"unknown field", `{"_type": "root", "name": "R", "colour": "red"}`, model.ModelParameters, nil},
		{"invalid child", `{"_type": "root", "name": "R", "children": [{"_type": "signal", "name": "S"}]}`, model.ModelParameters, model.ErrInvalidChild},
		{"duplicate uuid", `{"_type": "root", "name": "R", "children": [
			{"_type": "parameter", "name": "A", "uuid": "` + dup.String() + `"},
			{"_type": "parameter", "name": "B", "uuid": "` + dup.String() + `"}]}`, model.ModelParameters, model.ErrDuplicateUUID},
		{"bad decimal", `{"_type": "root", "name": "R", "children": [{"_type": "message", "name": "M", "cycle_time": "fast"}]}`, model.ModelSymbols, nil},
		{"identifier range", `{"_type": "root", "name": "R", "children": [{"_type": "message", "name": "M", "identifier": -1}]}`, model.ModelSymbols, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Decode([]byte(tt.src), FormatJSON, tt.expect)
			assert.Nil(t, tree)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

const parametersDoc = `_type: root
name: Parameters
children:
  - _type: parameter_table
    name: Table
    uuid: 0b0f4d43-1a41-4b7a-8b9a-8a0e4fdbd0a1
    children:
      - _type: enumeration
        name: Curves
        children:
          - {_type: enumerator, name: A, value: 0}
          - {_type: enumerator, name: B, value: 1}
      - _type: group
        name: Settings
        children:
          - {_type: parameter, name: Gain}
`

const staticModbusDoc = `{
  "_type": "root",
  "name": "Static Modbus",
  "children": [
    {"_type": "table", "name": "Table", "parameter_table_uuid": "0b0f4d43-1a41-4b7a-8b9a-8a0e4fdbd0a1"}
  ]
}
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pm.toml":           "[models]\nparameters = \"parameters.yaml\"\nstaticmodbus = \"staticmodbus.json\"\n",
		"parameters.yaml":   parametersDoc,
		"staticmodbus.json": staticModbusDoc,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return filepath.Join(dir, "pm.toml")
}

func TestLoadUpdateAndSave(t *testing.T) {
	path := writeProject(t)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	p, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, p.Paths(), 2)
	assert.Zero(t, p.Symbols.Root.Len())
	assert.Equal(t, model.ModelSymbols, p.Symbols.Model)

	require.NoError(t, p.UpdateTables())
	table := p.StaticModbus.Root.Child(0)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 2, table.Child(1).Data.(*model.TableRepeatingBlock).Repeats)

	require.NoError(t, p.Save())
	reloaded, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, p.StaticModbus.Len(), reloaded.StaticModbus.Len())
	assert.Equal(t, p.Parameters.Len(), reloaded.Parameters.Len())

	before := table.Child(1).UUID
	require.NoError(t, reloaded.UpdateTables())
	assert.Equal(t, before, reloaded.StaticModbus.Root.Child(0).Child(1).UUID)
}

func TestLoadReportsBrokenDocument(t *testing.T) {
	path := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "staticmodbus.json"), []byte("{"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	_, err = Load(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staticmodbus.json")
}
