package ident

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpperAndLower(t *testing.T) {
	tests := []struct {
		name  string
		upper string
		lower string
	}{
		{"Group Name", "GroupName", "groupName"},
		{"Parameter A", "ParameterA", "parameterA"},
		{"inner group name", "InnerGroupName", "innerGroupName"},
		{"  DC-link voltage (V) ", "DCLinkVoltageV", "dCLinkVoltageV"},
		{"3 Phase", "_3Phase", "_3Phase"},
		{"Test Multiplexer A", "TestMultiplexerA", "testMultiplexerA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upper, err := Upper(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.upper, upper)

			lower, err := Lower(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.lower, lower)
		})
	}
}

func TestEmptyIdentifier(t *testing.T) {
	_, err := Upper(" -- ")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	_, err = StructTag("")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
}

func TestSuffixes(t *testing.T) {
	s, err := StructTag("Group Name")
	require.NoError(t, err)
	assert.Equal(t, "GroupName_s", s)

	e, err := EnumTag("Group Name")
	require.NoError(t, err)
	assert.Equal(t, "GroupName_e", e)

	td, err := Typedef("Group Name")
	require.NoError(t, err)
	assert.Equal(t, "GroupName_t", td)
}

// Distinct names made of letters, digits and single spaces between
// capitalised words never collapse onto the same identifier.
func TestDistinctSiblingNamesStayDistinct(t *testing.T) {
	seen := map[string]string{}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("Parameter %d", i)
		id, err := Lower(name)
		require.NoError(t, err)
		again, err := Lower(name)
		require.NoError(t, err)
		assert.Equal(t, id, again)

		if prev, ok := seen[id]; ok {
			t.Fatalf("%q and %q both map to %q", prev, name, id)
		}
		seen[id] = name
	}
}
