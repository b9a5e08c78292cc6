package codebook

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

func TestBuildWithValueLabels(t *testing.T) {
	labels := []models.VariableLabel{{Name: "sex", Label: "Sex of participant"}}
	links := map[string]string{"sex": "grp1"}
	groups := []models.ValueLabelGroup{{
		ID: "grp1",
		Entries: []models.ValueLabel{
			{RawValue: "1", Label: "Male"},
			{RawValue: "2.0", Label: "Female"},
		},
	}}

	cb, err := Build(labels, links, groups)
	require.NoError(t, err)

	want := [][]string{
		{"variable_name", "variable_label", "value", "value_label"},
		{"sex", "Sex of participant", "1", "Male"},
		{"sex", "Sex of participant", "2", "Female"},
	}
	if diff := cmp.Diff(want, cb.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, cb.HasValueLabels)
	assert.Equal(t, "grp1", cb.Rows[0].GroupID)
}

func TestBuildWithoutValueLabels(t *testing.T) {
	labels := []models.VariableLabel{
		{Name: "age", Label: "Age in years"},
		{Name: "weight", Label: ""},
	}

	cb, err := Build(labels, map[string]string{}, nil)
	require.NoError(t, err)

	want := []models.CodebookRow{
		{VariableName: "age", VariableLabel: "Age in years"},
		{VariableName: "weight"},
	}
	if diff := cmp.Diff(want, cb.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, cb.HasValueLabels)
	assert.Equal(t, [][]string{
		{"variable_name", "variable_label"},
		{"age", "Age in years"},
		{"weight", ""},
	}, cb.Records())
}

func TestBuildEmptyLabels(t *testing.T) {
	_, err := Build(nil, map[string]string{"x": "g"}, nil)
	require.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestBuildLeftJoin(t *testing.T) {
	labels := []models.VariableLabel{
		{Name: "q1", Label: "Question 1"},
		{Name: "q2", Label: "Question 2"},
		{Name: "id", Label: "Respondent"},
		{Name: "q3", Label: "Question 3"},
	}
	links := map[string]string{
		"q1": "agree",
		"q2": "missing-group",
		"q3": "agree",
	}
	groups := []models.ValueLabelGroup{{
		ID: "agree",
		Entries: []models.ValueLabel{
			{RawValue: "1.0", Label: "Agree"},
			{RawValue: "0.0", Label: "Disagree"},
		},
	}}

	cb, err := Build(labels, links, groups)
	require.NoError(t, err)

	want := []models.CodebookRow{
		{VariableName: "q1", VariableLabel: "Question 1", GroupID: "agree", Value: "1", ValueLabel: "Agree"},
		{VariableName: "q1", VariableLabel: "Question 1", GroupID: "agree", Value: "0", ValueLabel: "Disagree"},
		{VariableName: "q2", VariableLabel: "Question 2", GroupID: "missing-group"},
		{VariableName: "id", VariableLabel: "Respondent"},
		{VariableName: "q3", VariableLabel: "Question 3", GroupID: "agree", Value: "1", ValueLabel: "Agree"},
		{VariableName: "q3", VariableLabel: "Question 3", GroupID: "agree", Value: "0", ValueLabel: "Disagree"},
	}
	if diff := cmp.Diff(want, cb.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCoversEveryVariable(t *testing.T) {
	labels := []models.VariableLabel{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
	}
	links := map[string]string{"a": "g1", "c": "g2"}
	groups := []models.ValueLabelGroup{
		{ID: "g1", Entries: []models.ValueLabel{{RawValue: "1", Label: "one"}, {RawValue: "2", Label: "two"}}},
		{ID: "g2"},
	}

	cb, err := Build(labels, links, groups)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, r := range cb.Rows {
		seen[r.VariableName]++
	}
	for _, vl := range labels {
		assert.GreaterOrEqual(t, seen[vl.Name], 1, "variable %q missing from codebook", vl.Name)
	}
	assert.Equal(t, 2, seen["a"])
	assert.Len(t, cb.Rows, 5)
}

func TestBuildDuplicateGroupIDs(t *testing.T) {
	labels := []models.VariableLabel{{Name: "v"}}
	links := map[string]string{"v": "g"}
	groups := []models.ValueLabelGroup{
		{ID: "g", Entries: []models.ValueLabel{{RawValue: "1", Label: "a"}}},
		{ID: "g", Entries: []models.ValueLabel{{RawValue: "2", Label: "b"}}},
	}

	cb, err := Build(labels, links, groups)
	require.NoError(t, err)
	require.Len(t, cb.Rows, 2)
	assert.Equal(t, "1", cb.Rows[0].Value)
	assert.Equal(t, "2", cb.Rows[1].Value)
}

func TestBuildIsIdempotent(t *testing.T) {
	labels := []models.VariableLabel{{Name: "sex", Label: "Sex"}, {Name: "age", Label: "Age"}}
	links := map[string]string{"sex": "labels0"}
	groups := []models.ValueLabelGroup{{
		ID:      "labels0",
		Entries: []models.ValueLabel{{RawValue: "1.0", Label: "Male"}, {RawValue: "2.0", Label: "Female"}},
	}}

	first, err := Build(labels, links, groups)
	require.NoError(t, err)
	second, err := Build(labels, links, groups)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "1.0", groups[0].Entries[0].RawValue, "input must not be modified")
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"3.0", "3"},
		{"3", "3"},
		{"10.0", "10"},
		{"-1.0", "-1"},
		{"2.50", "2.50"},
		{"2.5", "2.5"},
		{"1.05", "1.05"},
		{"M", "M"},
		{"", ""},
	}

	for _, tt := range tests {
		result := NormalizeValue(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizeValue(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
