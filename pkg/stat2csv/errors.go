package stat2csv

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ukaji3/dave-go/pkg/stat2csv/codebook"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file does not match the format its
// extension names.
var ErrInvalidFormat = errors.New("invalid statistical file")

// ErrMalformedMetadata indicates the input has no variable labels.
var ErrMalformedMetadata = codebook.ErrMalformedMetadata

// UnsupportedFormatError reports an input extension with no parser.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unknown extension %s", e.Ext)
}

// FileError is a failure to read or write a file.
type FileError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Is reports a missing file as ErrFileNotFound.
func (e *FileError) Is(target error) bool {
	return target == ErrFileNotFound && errors.Is(e.Err, fs.ErrNotExist)
}

// Stage names a step of a conversion.
type Stage string

const (
	StageParse    Stage = "parse"
	StageCodebook Stage = "codebook"
	StageWrite    Stage = "write"
	StageArchive  Stage = "archive"
)

// ConversionError represents a failure while converting one file.
type ConversionError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError creates a new ConversionError.
func NewConversionError(path string, stage Stage, err error) *ConversionError {
	return &ConversionError{
		Path:  path,
		Stage: stage,
		Err:   err,
	}
}
