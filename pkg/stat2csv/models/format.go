// Package models defines data structures for statistical file conversion.
package models

import "strings"

// Format identifies a supported statistical file format.
type Format string

const (
	// FormatSPSS is an SPSS system file (.sav).
	FormatSPSS Format = "SPSS"
	// FormatSAS is a SAS dataset (.sas7bdat).
	FormatSAS Format = "SAS"
)

// knownExtensions maps lowercase file extensions to formats.
var knownExtensions = map[string]Format{
	".sav":      FormatSPSS,
	".sas7bdat": FormatSAS,
}

// FormatForExtension returns the format for a file extension such as ".sav".
// The lookup is case-insensitive.
func FormatForExtension(ext string) (Format, bool) {
	f, ok := knownExtensions[strings.ToLower(ext)]
	return f, ok
}
