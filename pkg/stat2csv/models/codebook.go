package models

// CodebookHeader is the header of a codebook that carries value labels.
var CodebookHeader = []string{"variable_name", "variable_label", "value", "value_label"}

// VariableLabelHeader is the header of a codebook without value labels.
var VariableLabelHeader = []string{"variable_name", "variable_label"}

// CodebookRow documents one variable, or one coded value of a variable.
type CodebookRow struct {
	// VariableName is the variable the row documents.
	VariableName string `json:"variable_name"`
	// VariableLabel is the label of the variable.
	VariableLabel string `json:"variable_label"`
	// GroupID is the value-label group of the variable (empty if none).
	GroupID string `json:"value_label_id,omitempty"`
	// Value is the normalized coded value (empty if none).
	Value string `json:"value"`
	// ValueLabel is the label of Value (empty if none).
	ValueLabel string `json:"value_label"`
}

// Codebook is the flattened variable/value label table.
type Codebook struct {
	// Rows are ordered by variable, then by value-label entry.
	Rows []CodebookRow `json:"rows"`
	// HasValueLabels is false when the dataset defines no value labels at
	// all; the codebook is then a plain variable label table.
	HasValueLabels bool `json:"has_value_labels"`
}

// Header returns the column names used when serializing the codebook.
func (c *Codebook) Header() []string {
	if c.HasValueLabels {
		return append([]string(nil), CodebookHeader...)
	}
	return append([]string(nil), VariableLabelHeader...)
}

// Records returns the header followed by one record per row. The group id
// is not serialized.
func (c *Codebook) Records() [][]string {
	records := make([][]string, 0, len(c.Rows)+1)
	records = append(records, c.Header())
	for _, r := range c.Rows {
		if c.HasValueLabels {
			records = append(records, []string{r.VariableName, r.VariableLabel, r.Value, r.ValueLabel})
		} else {
			records = append(records, []string{r.VariableName, r.VariableLabel})
		}
	}
	return records
}
