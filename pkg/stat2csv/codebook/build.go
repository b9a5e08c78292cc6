// Package codebook flattens variable labels and value labels into a single
// codebook table.
package codebook

import (
	"errors"
	"strings"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

// ErrMalformedMetadata indicates there are no variable labels to build a
// codebook from.
var ErrMalformedMetadata = errors.New("malformed metadata: no variable labels")

// Build joins variable labels with their value-label groups.
//
// Every variable yields at least one row. A variable without a group, or
// with a group that is not in groups, yields a single row with empty value
// fields. When groups is empty the result is the plain variable label table
// and HasValueLabels is false.
func Build(labels []models.VariableLabel, links map[string]string, groups []models.ValueLabelGroup) (*models.Codebook, error) {
	if len(labels) == 0 {
		return nil, ErrMalformedMetadata
	}

	if len(groups) == 0 {
		rows := make([]models.CodebookRow, len(labels))
		for i, vl := range labels {
			rows[i] = models.CodebookRow{VariableName: vl.Name, VariableLabel: vl.Label}
		}
		return &models.Codebook{Rows: rows}, nil
	}

	entries := flatten(groups)

	rows := make([]models.CodebookRow, 0, len(labels))
	for _, vl := range labels {
		groupID := links[vl.Name]
		matched := entries[groupID]
		if groupID == "" || len(matched) == 0 {
			rows = append(rows, models.CodebookRow{
				VariableName:  vl.Name,
				VariableLabel: vl.Label,
				GroupID:       groupID,
			})
			continue
		}
		for _, e := range matched {
			rows = append(rows, models.CodebookRow{
				VariableName:  vl.Name,
				VariableLabel: vl.Label,
				GroupID:       groupID,
				Value:         e.RawValue,
				ValueLabel:    e.Label,
			})
		}
	}

	return &models.Codebook{Rows: rows, HasValueLabels: true}, nil
}

// flatten indexes value labels by group id, normalizing raw values.
// Groups sharing an id are concatenated in order.
func flatten(groups []models.ValueLabelGroup) map[string][]models.ValueLabel {
	result := make(map[string][]models.ValueLabel, len(groups))
	for _, g := range groups {
		for _, e := range g.Entries {
			result[g.ID] = append(result[g.ID], models.ValueLabel{
				RawValue: NormalizeValue(e.RawValue),
				Label:    e.Label,
			})
		}
	}
	return result
}

// NormalizeValue strips a single trailing ".0" so that integer-valued
// doubles ("3.0") match their bare form ("3"). Other decimal forms such as
// "2.50" are returned unchanged.
func NormalizeValue(v string) string {
	return strings.TrimSuffix(v, ".0")
}
