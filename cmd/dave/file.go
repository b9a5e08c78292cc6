package main

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ukaji3/dave-go/pkg/dataverse"
	"github.com/ukaji3/dave-go/pkg/dataverse/terms"
	"github.com/ukaji3/dave-go/pkg/stat2csv"
	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
	"github.com/ukaji3/dave-go/pkg/stat2csv/output"
)

func newFileCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Upload and download dataset files",
	}
	cmd.AddCommand(newFileAddCmd(g), newFileDownloadCmd(g))
	return cmd
}

func newFileAddCmd(g *globals) *cobra.Command {
	var (
		meta    dataverse.FileMetadata
		convert bool
	)
	cmd := &cobra.Command{
		Use:   "add <dataset> <file>...",
		Short: "Upload files to a dataset",
		Long: `Upload files to a dataset. With --convert, SPSS and SAS files are
first converted with stat2csv and the resulting zip archive is uploaded.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			c, err := dataverse.New(cfg)
			if err != nil {
				return err
			}

			var uploaded []dataverse.FileEntry
			for _, path := range args[1:] {
				if convert {
					if path, err = convertForUpload(path, cfg); err != nil {
						return err
					}
				}
				files, err := c.AddFile(cmd.Context(), args[0], path, meta)
				if err != nil {
					return err
				}
				uploaded = append(uploaded, files...)
			}
			return printJSON(cmd, uploaded)
		},
	}
	f := cmd.Flags()
	f.StringVar(&meta.Description, "description", "", "file description")
	f.StringVar(&meta.DirectoryLabel, "directory", "", "directory label within the dataset")
	f.BoolVar(&meta.Restrict, "restrict", false, "restrict access to the file")
	f.StringArrayVar(&meta.Categories, "category", nil, "file category (repeatable, default "+dataverse.DefaultCategory+")")
	f.BoolVar(&convert, "convert", false, "convert .sav and .sas7bdat files before uploading")
	return cmd
}

// convertForUpload converts a statistical file and returns the path of its
// archive. Other files are returned unchanged.
func convertForUpload(path string, cfg dataverse.Config) (string, error) {
	if _, ok := models.FormatForExtension(filepath.Ext(path)); !ok {
		return path, nil
	}
	opts := stat2csv.DefaultOptions()
	opts.Logger = cfg.Logger
	res, err := stat2csv.Convert(path, opts)
	if err != nil {
		return "", err
	}
	return res.ArchivePath, nil
}

func newFileDownloadCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <file>",
		Short: "Download a datafile by id or persistent id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				_, err := c.DownloadFile(cmd.Context(), args[0], cmd.OutOrStdout())
				return err
			}
			return output.WriteFileAtomic(out, func(w io.Writer) error {
				_, err := c.DownloadFile(cmd.Context(), args[0], w)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newTermsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terms [name]",
		Short: "List the standard terms of use or show one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return printJSON(cmd, terms.Names())
			}
			t, err := terms.Lookup(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
}
