// Package main provides the stat2csv command, which converts SPSS and SAS
// files into CSV data and codebook files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukaji3/dave-go/pkg/stat2csv"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "could not convert due to %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	opts := stat2csv.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(logOut, nil))

	rootCmd := &cobra.Command{
		Use:   "stat2csv <file>",
		Short: "Convert SPSS or SAS files to CSV with a codebook",
		Long: `stat2csv converts a .sav or .sas7bdat file into <base>.csv and
<base>_codebook.csv, both ';'-separated, and bundles them in <base>.zip.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := stat2csv.Convert(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.ArchivePath)
			return nil
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:           "workbook <file>",
		Short:         "Convert a file to an .xlsx workbook with data and codebook sheets",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := stat2csv.ConvertWorkbook(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return rootCmd
}
