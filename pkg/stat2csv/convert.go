package stat2csv

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ukaji3/dave-go/pkg/stat2csv/codebook"
	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
	"github.com/ukaji3/dave-go/pkg/stat2csv/output"
	"github.com/ukaji3/dave-go/pkg/stat2csv/parser"
)

// parseFile is replaced in tests.
var parseFile = parser.Parse

// Result lists the files written by Convert.
type Result struct {
	DataPath       string
	CodebookPath   string
	ArchivePath    string
	Variables      int
	Rows           int
	HasValueLabels bool
}

// Convert reads the statistical file at path and writes <base>.csv,
// <base>_codebook.csv and <base>.zip holding both.
func Convert(path string, opts Options) (res *Result, err error) {
	log := opts.logger().With("file", path)

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	stage := StageParse
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = NewConversionError(path, stage, fmt.Errorf("panic: %v", r))
		}
	}()

	ds, cb, err := load(path, format, log, &stage)
	if err != nil {
		return nil, err
	}

	base := outputBase(path, opts.OutputDir)
	res = &Result{
		DataPath:       base + ".csv",
		CodebookPath:   base + "_codebook.csv",
		ArchivePath:    base + ".zip",
		Variables:      len(ds.Columns),
		Rows:           len(ds.Rows),
		HasValueLabels: cb.HasValueLabels,
	}

	stage = StageWrite
	if err := output.WriteCSVFile(res.DataPath, ds.Records()); err != nil {
		return nil, NewConversionError(path, stage, &FileError{Op: "write", Path: res.DataPath, Err: err})
	}
	if err := output.WriteCSVFile(res.CodebookPath, cb.Records()); err != nil {
		return nil, NewConversionError(path, stage, &FileError{Op: "write", Path: res.CodebookPath, Err: err})
	}
	log.Debug("wrote tables", "data", res.DataPath, "codebook", res.CodebookPath)

	stage = StageArchive
	if err := output.WriteArchive(res.ArchivePath, res.DataPath, res.CodebookPath); err != nil {
		return nil, NewConversionError(path, stage, &FileError{Op: "write", Path: res.ArchivePath, Err: err})
	}
	log.Info("converted", "archive", res.ArchivePath, "variables", res.Variables, "rows", res.Rows)

	return res, nil
}

// ConvertWorkbook reads the statistical file at path and writes
// <base>.xlsx with a data sheet and a codebook sheet. It returns the
// workbook path.
func ConvertWorkbook(path string, opts Options) (out string, err error) {
	log := opts.logger().With("file", path)

	format, err := detectFormat(path)
	if err != nil {
		return "", err
	}

	stage := StageParse
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = NewConversionError(path, stage, fmt.Errorf("panic: %v", r))
		}
	}()

	ds, cb, err := load(path, format, log, &stage)
	if err != nil {
		return "", err
	}

	stage = StageWrite
	out = outputBase(path, opts.OutputDir) + ".xlsx"
	if err := output.WriteWorkbook(out, ds, cb); err != nil {
		return "", NewConversionError(path, stage, &FileError{Op: "write", Path: out, Err: err})
	}
	log.Info("converted", "workbook", out)
	return out, nil
}

// load parses the file and builds its codebook, advancing *stage.
func load(path string, format models.Format, log *slog.Logger, stage *Stage) (*models.Dataset, *models.Codebook, error) {
	*stage = StageParse
	ds, err := parseFile(path, format)
	if err != nil {
		var pathErr *fs.PathError
		switch {
		case errors.As(err, &pathErr):
			err = &FileError{Op: "read", Path: path, Err: pathErr.Err}
		case errors.Is(err, parser.ErrNotSAV), errors.Is(err, parser.ErrNotSAS7BDAT):
			err = fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		return nil, nil, NewConversionError(path, StageParse, err)
	}
	log.Debug("parsed", "format", ds.Format, "encoding", ds.Encoding,
		"variables", len(ds.Columns), "rows", len(ds.Rows), "value_label_groups", len(ds.ValueLabelGroups))

	*stage = StageCodebook
	cb, err := codebook.Build(ds.VariableLabels, ds.VariableGroups, ds.ValueLabelGroups)
	if err != nil {
		return nil, nil, NewConversionError(path, StageCodebook, err)
	}
	if !cb.HasValueLabels {
		log.Debug("no value labels")
	}
	return ds, cb, nil
}

func detectFormat(path string) (models.Format, error) {
	ext := filepath.Ext(path)
	format, ok := models.FormatForExtension(ext)
	if !ok {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return format, nil
}

// outputBase returns the output path without extension: the input path
// minus its extension, moved into dir when dir is set.
func outputBase(path, dir string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if dir != "" {
		base = filepath.Join(dir, filepath.Base(base))
	}
	return base
}
