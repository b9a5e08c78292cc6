package output

import (
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

// Sheet names of a converted workbook.
const (
	DataSheet     = "data"
	CodebookSheet = "codebook"
)

// WriteWorkbook writes the data table and the codebook as two sheets of an
// .xlsx workbook. Numeric columns are stored as numbers.
func WriteWorkbook(path string, ds *models.Dataset, cb *models.Codebook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(CodebookSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	numeric := make([]bool, len(ds.Columns))
	for i, c := range ds.Columns {
		numeric[i] = c.Kind == models.KindNumeric
	}
	if err := writeSheet(f, DataSheet, ds.Records(), numeric, bold); err != nil {
		return err
	}
	if err := writeSheet(f, CodebookSheet, cb.Records(), nil, bold); err != nil {
		return err
	}

	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// writeSheet streams records into sheet with a frozen, bold header row.
func writeSheet(f *excelize.File, sheet string, records [][]string, numeric []bool, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for rowIdx, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(record))
		for colIdx, v := range record {
			if rowIdx > 0 && colIdx < len(numeric) && numeric[colIdx] {
				values[colIdx] = cellValue(v)
			} else {
				values[colIdx] = v
			}
		}

		var opts []excelize.RowOpts
		if rowIdx == 0 {
			opts = append(opts, excelize.RowOpts{StyleID: headerStyle})
		}
		if err := sw.SetRow(cell, values, opts...); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// cellValue returns int64 for integers, float64 for decimals, nil for an
// empty value, and the original string otherwise (dates, times).
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
