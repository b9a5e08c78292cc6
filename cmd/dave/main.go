// Package main provides the dave command, a client for the native API of a
// Dataverse repository.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukaji3/dave-go/pkg/dataverse"
)

// globals holds the persistent flags.
type globals struct {
	configPath string
	baseURL    string
	token      string
	readOnly   bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:           "dave",
		Short:         "Manage dataverses, datasets and files on a Dataverse server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.StringVar(&g.baseURL, "url", "", "server base URL (overrides config)")
	pf.StringVar(&g.token, "token", "", "API token (overrides config)")
	pf.BoolVar(&g.readOnly, "readonly", false, "log modifying requests instead of sending them")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log requests")

	rootCmd.AddCommand(
		newInfoCmd(g),
		newDataverseCmd(g),
		newDatasetCmd(g),
		newFileCmd(g),
		newTermsCmd(),
	)
	return rootCmd
}

// config merges the config file with the flags that were set.
func (g *globals) config(cmd *cobra.Command) (dataverse.Config, error) {
	cfg := dataverse.DefaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = dataverse.LoadConfig(g.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BaseURL = g.baseURL
	}
	if flags.Changed("token") {
		cfg.APIToken = g.token
	}
	if flags.Changed("readonly") {
		cfg.ReadOnly = g.readOnly
	}

	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	cfg.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, nil
}

func (g *globals) client(cmd *cobra.Command) (*dataverse.Client, error) {
	cfg, err := g.config(cmd)
	if err != nil {
		return nil, err
	}
	return dataverse.New(cfg)
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func newInfoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd)
			if err != nil {
				return err
			}
			server, err := c.ServerInfo(cmd.Context())
			if err != nil {
				return err
			}
			version, err := c.Version(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"server": server.Message, "version": version})
		},
	}
}
