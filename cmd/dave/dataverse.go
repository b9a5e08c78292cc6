package main

import (
	"github.com/spf13/cobra"
	"github.com/ukaji3/dave-go/pkg/dataverse"
)

func newDataverseCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dataverse",
		Aliases: []string{"dv"},
		Short:   "Manage dataverses",
	}

	// get builds a subcommand taking one dataverse id and printing the
	// result of fn.
	get := func(use, short string, fn func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <dataverse>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client(cmd)
				if err != nil {
					return err
				}
				v, err := fn(cmd, c, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			},
		}
	}

	cmd.AddCommand(
		get("view", "Show a dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			return c.GetDataverse(cmd.Context(), id)
		}),
		get("contents", "List the dataverses and datasets in a dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			return c.DataverseContents(cmd.Context(), id)
		}),
		get("publish", "Publish a dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			return c.PublishDataverse(cmd.Context(), id)
		}),
		get("delete", "Delete an empty dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			if err := c.DeleteDataverse(cmd.Context(), id); err != nil {
				return nil, err
			}
			return map[string]string{"deleted": id}, nil
		}),
		get("groups", "List the groups of a dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			return c.DataverseGroups(cmd.Context(), id)
		}),
		get("roles", "List the role assignments of a dataverse", func(cmd *cobra.Command, c *dataverse.Client, id string) (any, error) {
			return c.DataverseRoleAssignments(cmd.Context(), id)
		}),
		newDataverseCreateCmd(g),
		newAddGroupCmd(g),
		newAddRoleCmd(g),
	)
	return cmd
}

func newDataverseCreateCmd(g *globals) *cobra.Command {
	var spec dataverse.NewDataverse
	cmd := &cobra.Command{
		Use:   "create <parent>",
		Short: "Create a dataverse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			dv, err := c.CreateDataverse(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			return printJSON(cmd, dv)
		},
	}
	cmd.Flags().StringVar(&spec.Name, "name", "", "dataverse name")
	cmd.Flags().StringVar(&spec.Alias, "alias", "", "dataverse alias")
	cmd.Flags().StringVar(&spec.Contacts, "contacts", "", "comma-separated contact addresses or user names")
	cmd.Flags().StringVar(&spec.Description, "description", "", "dataverse description")
	cmd.Flags().StringVar(&spec.Type, "type", dataverse.DefaultDataverseType, "dataverse type")
	return cmd
}

func newAddGroupCmd(g *globals) *cobra.Command {
	var group dataverse.NewGroup
	cmd := &cobra.Command{
		Use:   "add-group <dataverse>",
		Short: "Create an explicit group in a dataverse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			created, err := c.AddDataverseGroup(cmd.Context(), args[0], group)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		},
	}
	cmd.Flags().StringVar(&group.DisplayName, "name", "", "group display name")
	cmd.Flags().StringVar(&group.AliasInOwner, "alias", "", "group alias within the dataverse")
	cmd.Flags().StringVar(&group.Description, "description", "", "group description")
	return cmd
}

func newAddRoleCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "add-role <dataverse> <assignee> <role>",
		Short: "Assign a role on a dataverse to a user (@name) or group (&explicit/alias)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			ra, err := c.AssignDataverseRole(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd, ra)
		},
	}
}
