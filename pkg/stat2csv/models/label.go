package models

// VariableLabel pairs a variable name with its label.
type VariableLabel struct {
	// Name is the variable name; unique within a dataset.
	Name string `json:"name"`
	// Label is the human-readable label (may be empty).
	Label string `json:"label"`
}

// ValueLabel names one coded value.
type ValueLabel struct {
	// RawValue is the coded value as text, e.g. "1.0" or "M".
	RawValue string `json:"raw_value"`
	// Label is the human-readable name of the value.
	Label string `json:"label"`
}

// ValueLabelGroup is a reusable set of value labels shared by one or more
// variables.
type ValueLabelGroup struct {
	// ID identifies the group, e.g. "labels0".
	ID string `json:"id"`
	// Entries are kept in file order.
	Entries []ValueLabel `json:"entries"`
}
