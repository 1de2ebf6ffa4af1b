package cgen

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewr95/pm/internal/model"
)

func group(t *testing.T, name string, children ...*model.Node) *model.Node {
	t.Helper()
	g := model.NewGroup(name)
	for _, c := range children {
		require.NoError(t, g.AppendChild(c))
	}
	return g
}

func generate(t *testing.T, n *model.Node, opts Options) string {
	t.Helper()
	s, err := Generate(n, opts)
	require.NoError(t, err)
	return s
}

func TestFormatEnumAndStruct(t *testing.T) {
	decls := []Decl{
		&Enum{Tag: "EnumName_e", Enumerators: []Enumerator{{"a", 1}, {"b", 2}}},
		&Typedef{Keyword: "enum", Tag: "EnumName_e", Name: "EnumName_t"},
		&Struct{Tag: "StructName_s", Members: []Member{{Type: "int16_t", Name: "a"}, {Type: "uint16_t", Name: "b"}}},
		&Typedef{Keyword: "enum", Tag: "StructName_s", Name: "StructName_t"},
	}

	want := `enum EnumName_e {a = 1, b = 2};
typedef enum EnumName_e EnumName_t;
struct StructName_s
{
  int16_t a;
  uint16_t b;
};
typedef enum StructName_s StructName_t;
`
	assert.Equal(t, want, String(decls))
}

func TestSingleLayerGroup(t *testing.T) {
	g := group(t, "Group Name",
		model.NewParameter("Parameter A"),
		model.NewParameter("Parameter B"),
		model.NewParameter("Parameter C"),
	)

	want := `struct GroupName_s
{
  int16_t parameterA;
  int16_t parameterB;
  int16_t parameterC;
};
typedef enum GroupName_s GroupName_t;
`
	assert.Equal(t, want, generate(t, g, Options{}))
}

func TestNestedGroup(t *testing.T) {
	inner := group(t, "Inner Group Name",
		model.NewParameter("Parameter D"),
		model.NewParameter("Parameter E"),
	)
	outer := group(t, "Outer Group Name",
		model.NewParameter("Parameter A"),
		inner,
		model.NewParameter("Parameter B"),
		model.NewParameter("Parameter C"),
	)

	want := `struct InnerGroupName_s
{
  int16_t parameterD;
  int16_t parameterE;
};
typedef enum InnerGroupName_s InnerGroupName_t;
struct OuterGroupName_s
{
  int16_t parameterA;
  InnerGroupName_t innerGroupName;
  int16_t parameterB;
  int16_t parameterC;
};
typedef enum OuterGroupName_s OuterGroupName_t;
`
	assert.Equal(t, want, generate(t, outer, Options{}))
}

func TestStrictTypedefsAndDefaultType(t *testing.T) {
	p := model.NewParameter("Explicit")
	p.Data.(*model.Parameter).Type = "uint32_t"
	g := group(t, "G", model.NewParameter("Implicit"), p)

	want := `struct G_s
{
  uint16_t implicit;
  uint32_t explicit;
};
typedef struct G_s G_t;
`
	assert.Equal(t, want, generate(t, g, Options{DefaultType: "uint16_t", StrictTypedefs: true}))
}

func TestMemberOrderFollowsChildOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}

	for i := 0; i < 20; i++ {
		order := rng.Perm(len(names))
		g := model.NewGroup("Group")
		var want []string
		for _, j := range order {
			require.NoError(t, g.AppendChild(model.NewParameter(names[j])))
			want = append(want, strings.ToLower(names[j]))
		}

		decls, err := Build(g, Options{})
		require.NoError(t, err)
		s := decls[0].(*Struct)
		var got []string
		for _, m := range s.Members {
			got = append(got, m.Name)
		}
		assert.Equal(t, want, got, "permutation %v", order)
	}
}

func TestEnumerationsAndReferences(t *testing.T) {
	tree := model.NewTree(model.ModelParameters)
	mode := model.NewEnumeration("Operating Mode")
	require.NoError(t, mode.AppendChild(model.NewEnumerator("Off", 0)))
	require.NoError(t, mode.AppendChild(model.NewEnumerator("Run", 1)))
	require.NoError(t, mode.AppendChild(model.NewEnumerator("Fault", 7)))

	selected := model.NewParameter("Selected Mode")
	selected.Data.(*model.Parameter).EnumerationUUID = mode.UUID
	g := group(t, "Status", mode, selected)
	require.NoError(t, tree.Root.AppendChild(g))
	require.NoError(t, tree.Root.AppendChild(model.NewParameter("Free Standing")))

	want := `enum OperatingMode_e {OperatingMode_Off = 0, OperatingMode_Run = 1, OperatingMode_Fault = 7};
typedef enum OperatingMode_e OperatingMode_t;
struct Status_s
{
  OperatingMode_t selectedMode;
};
typedef enum Status_s Status_t;
int16_t freeStanding;
`
	assert.Equal(t, want, generate(t, tree.Root, Options{}))

	selected.Data.(*model.Parameter).EnumerationUUID = uuid.New()
	_, err := Generate(tree.Root, Options{})
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)
}

func TestArrays(t *testing.T) {
	values := model.NewArray("Values")
	for i := 0; i < 4; i++ {
		require.NoError(t, values.AppendChild(model.NewParameter(fmt.Sprintf("Value %d", i))))
	}
	points := model.NewArray("Points")
	for i := 0; i < 2; i++ {
		require.NoError(t, points.AppendChild(group(t, fmt.Sprintf("Point %d", i),
			model.NewParameter("X"), model.NewParameter("Y"))))
	}
	g := group(t, "Curve", values, points)

	want := `struct Point0_s
{
  int16_t x;
  int16_t y;
};
typedef enum Point0_s Point0_t;
struct Curve_s
{
  int16_t values[4];
  Point0_t points[2];
};
typedef enum Curve_s Curve_t;
`
	assert.Equal(t, want, generate(t, g, Options{}))

	_, err := Generate(group(t, "Empty", model.NewArray("None")), Options{})
	assert.ErrorIs(t, err, ErrEmptyArray)
}

func TestNameCollisions(t *testing.T) {
	_, err := Build(group(t, "G", model.NewParameter("Value A"), model.NewParameter("value-a")), Options{})
	var collision *NameCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "G_s", collision.Scope)
	assert.Equal(t, "valueA", collision.Name)

	tree := model.NewTree(model.ModelParameters)
	require.NoError(t, tree.Root.AppendChild(model.NewGroup("Same Name")))
	require.NoError(t, tree.Root.AppendChild(model.NewEnumeration("Same Name")))
	require.NoError(t, tree.Root.AppendChild(model.NewGroup("same name")))
	decls, err := Build(tree.Root, Options{})
	assert.Nil(t, decls)
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "file", collision.Scope)
	assert.Equal(t, "SameName_t", collision.Name)
}

func TestParameterTablesAreSkipped(t *testing.T) {
	tree := model.NewTree(model.ModelParameters)
	require.NoError(t, tree.Root.AppendChild(model.NewParameterTable("Table")))
	decls, err := Build(tree.Root, Options{})
	require.NoError(t, err)
	assert.Empty(t, decls)
}
