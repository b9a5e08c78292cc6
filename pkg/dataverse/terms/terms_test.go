package terms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"type_1", "type_2", "type_3a", "type_3b"}, Names())
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			terms, err := Lookup(name)
			require.NoError(t, err)
			assert.NotEmpty(t, terms.TermsOfAccess)
		})
	}

	_, err := Lookup("type_4")
	assert.ErrorContains(t, err, `unknown terms "type_4"`)
}

func TestLookupReturnsCopy(t *testing.T) {
	a, err := Lookup("type_1")
	require.NoError(t, err)
	a.License.Name = "changed"

	b, err := Lookup("type_1")
	require.NoError(t, err)
	assert.Equal(t, "CC-BY-4.0", b.License.Name)
}

func TestTermsJSONOmitsEmptyFields(t *testing.T) {
	terms, err := Lookup("type_1")
	require.NoError(t, err)

	data, err := json.Marshal(terms)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "license")
	assert.Contains(t, fields, "termsOfAccess")
}
