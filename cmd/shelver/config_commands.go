package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/titles"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolvePath(targetPath, config.DefaultConfigPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: `shelver titles init` for the title table, then `shelver cfg create` per show.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// resolvePath expands a user-supplied path, or returns fallback() when the
// flag is empty.
func resolvePath(flagValue string, fallback func() (string, error)) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", value, err)
		}
		return expanded, nil
	}
	return fallback()
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file and title table",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			if _, err := os.Stat(cfg.Titles.Path); err == nil {
				list, err := titles.Load(cfg.Titles.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Title table: %s (%d titles)\n", cfg.Titles.Path, len(list))
			} else {
				fmt.Fprintf(out, "Title table: %s (missing)\n", cfg.Titles.Path)
			}
			fmt.Fprintf(out, "TMDB lookup: %s\n", yesNo(cfg.TMDB.APIKey != "" || cfg.TMDB.APIToken != ""))
			fmt.Fprintf(out, "Scraper: %s\n", yesNo(cfg.ScraperEnabled()))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
