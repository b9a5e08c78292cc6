// Package parser reads statistical files into datasets.
package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

// ErrUnsupportedCompression indicates a compression scheme this package
// cannot expand.
var ErrUnsupportedCompression = errors.New("unsupported compression")

// Parse reads the statistical file at path. The file is closed before
// Parse returns.
func Parse(path string, format models.Format) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds *models.Dataset
	switch format {
	case models.FormatSPSS:
		ds, err = ReadSAV(f)
	case models.FormatSAS:
		ds, err = ReadSAS7BDAT(f)
	default:
		return nil, fmt.Errorf("no parser for format %q", format)
	}
	if err != nil {
		return nil, err
	}

	ds.Path = path
	return ds, nil
}
