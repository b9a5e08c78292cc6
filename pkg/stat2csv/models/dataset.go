package models

// ColumnKind distinguishes numeric from string variables.
type ColumnKind int

const (
	// KindNumeric is a numeric variable (stored as a double).
	KindNumeric ColumnKind = iota
	// KindString is a character variable.
	KindString
)

func (k ColumnKind) String() string {
	if k == KindString {
		return "string"
	}
	return "numeric"
}

// Column describes one variable of a dataset.
type Column struct {
	// Name is the variable name as it appears in the data header.
	Name string `json:"name"`
	// Label is the human-readable variable label (empty if none).
	Label string `json:"label,omitempty"`
	// Kind is numeric or string.
	Kind ColumnKind `json:"kind"`
	// Format is the display format name (e.g. "F8.2", "DATE11", "DATETIME").
	Format string `json:"format,omitempty"`
	// Width is the storage width in bytes for string variables.
	Width int `json:"width,omitempty"`
}

// Dataset is the parsed content of a statistical file: the data table and
// the label metadata needed to build a codebook.
type Dataset struct {
	// Path is the source file path.
	Path string `json:"path"`
	// Format is the source file format.
	Format Format `json:"format"`
	// FileLabel is the dataset label stored in the file header.
	FileLabel string `json:"file_label,omitempty"`
	// Encoding is the character encoding the text was decoded from.
	Encoding string `json:"encoding,omitempty"`
	// Columns lists the variables in file order.
	Columns []Column `json:"columns"`
	// Rows holds one rendered text value per column; missing values are
	// empty strings.
	Rows [][]string `json:"rows"`
	// VariableLabels lists variable labels in column order.
	VariableLabels []VariableLabel `json:"variable_labels"`
	// VariableGroups maps a variable name to its value-label group id.
	// Variables without value labels are absent.
	VariableGroups map[string]string `json:"variable_groups,omitempty"`
	// ValueLabelGroups lists value-label groups in file order.
	ValueLabelGroups []ValueLabelGroup `json:"value_label_groups,omitempty"`
}

// Header returns the column names in order.
func (d *Dataset) Header() []string {
	header := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		header[i] = c.Name
	}
	return header
}

// Records returns the header followed by all rows.
func (d *Dataset) Records() [][]string {
	records := make([][]string, 0, len(d.Rows)+1)
	records = append(records, d.Header())
	return append(records, d.Rows...)
}
