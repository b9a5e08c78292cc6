// Package output serializes converted datasets to delimited text, zip
// archives and spreadsheets.
package output

import (
	"encoding/csv"
	"io"
)

// Separator is the field delimiter of every CSV file written.
const Separator = ';'

// WriteCSV writes records as ';'-separated text. The first record is the
// header.
func WriteCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// ReadCSV reads ';'-separated text written by WriteCSV.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}
