package main

import (
	"github.com/spf13/cobra"
	"github.com/ukaji3/dave-go/pkg/dataverse"
	"github.com/ukaji3/dave-go/pkg/dataverse/terms"
)

func newDatasetCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dataset",
		Aliases: []string{"ds"},
		Short:   "Manage datasets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "view <dataset>",
			Short: "Show a dataset by id or persistent id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client(cmd)
				if err != nil {
					return err
				}
				ds, err := c.GetDataset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, ds)
			},
		},
		&cobra.Command{
			Use:   "delete <dataset>",
			Short: "Delete a draft dataset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client(cmd)
				if err != nil {
					return err
				}
				if err := c.DeleteDataset(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(cmd, map[string]string{"deleted": args[0]})
			},
		},
		&cobra.Command{
			Use:   "versions <dataset>",
			Short: "List the versions of a dataset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client(cmd)
				if err != nil {
					return err
				}
				versions, err := c.DatasetVersions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, versions)
			},
		},
		newDatasetCreateCmd(g),
		newDatasetPublishCmd(g),
		newDatasetFilesCmd(g),
	)
	return cmd
}

func newDatasetCreateCmd(g *globals) *cobra.Command {
	var (
		spec         dataverse.NewDataset
		authors      []string
		contactName  string
		contactEmail string
		termsName    string
	)
	cmd := &cobra.Command{
		Use:   "create <dataverse>",
		Short: "Create a draft dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range authors {
				spec.Authors = append(spec.Authors, dataverse.Author{Name: name})
			}
			if contactEmail != "" {
				spec.Contacts = []dataverse.DatasetContact{{Name: contactName, Email: contactEmail}}
			}
			if termsName != "" {
				t, err := terms.Lookup(termsName)
				if err != nil {
					return err
				}
				spec.Terms = t
			}

			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			created, err := c.CreateDataset(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		},
	}
	f := cmd.Flags()
	f.StringVar(&spec.Title, "title", "", "dataset title")
	f.StringArrayVar(&authors, "author", nil, "author name, e.g. \"Doe, Jane\" (repeatable)")
	f.StringVar(&contactName, "contact-name", "", "contact name")
	f.StringVar(&contactEmail, "contact-email", "", "contact e-mail address")
	f.StringVar(&spec.Description, "description", "", "dataset description")
	f.StringArrayVar(&spec.Subjects, "subject", nil, "subject (repeatable)")
	f.StringVar(&termsName, "terms", "", "standard terms of use, see 'dave terms'")
	return cmd
}

func newDatasetPublishCmd(g *globals) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "publish <dataset>",
		Short: "Publish the draft version of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			if err := c.PublishDataset(cmd.Context(), args[0], dataverse.VersionType(typ)); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"published": args[0], "type": typ})
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(dataverse.MinorVersion), "version bump: minor or major")
	return cmd
}

func newDatasetFilesCmd(g *globals) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "files <dataset>",
		Short: "List the files of a dataset version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			files, err := c.DatasetFiles(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			return printJSON(cmd, files)
		},
	}
	cmd.Flags().StringVar(&version, "version", ":latest", "dataset version, e.g. 1.0, :draft or :latest")
	return cmd
}
