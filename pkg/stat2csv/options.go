// Package stat2csv converts SPSS and SAS files into a ';'-separated data
// file, a codebook and a zip archive of both.
package stat2csv

import (
	"log/slog"
)

// Options configures a conversion.
type Options struct {
	// OutputDir is where the outputs are written. If empty, they are
	// written next to the input file.
	OutputDir string
	// Logger receives progress messages. If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns default conversion options.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}
