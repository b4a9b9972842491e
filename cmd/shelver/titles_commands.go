package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelver/internal/titles"
)

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	titlesCmd := &cobra.Command{
		Use:   "titles",
		Short: "Inspect the title table that drives file selection",
	}

	titlesCmd.AddCommand(newTitlesListCommand(ctx))
	titlesCmd.AddCommand(newTitlesInitCommand(ctx))

	return titlesCmd
}

func newTitlesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List title entries and their dispatch keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list, err := titles.Load(cfg.Titles.Path)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No titles defined in %s\n", cfg.Titles.Path)
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, title := range list {
				rows = append(rows, []string{
					title.Key(),
					strconv.FormatInt(title.ContentID, 10),
					strconv.Itoa(title.Season),
					title.Name,
					title.Pattern,
					title.MatchOn,
				})
			}
			table := renderTable(
				[]column{left("Key"), right("Content"), right("Season"), left("Name"), left("Pattern"), left("Match")},
				rows,
			)
			fmt.Fprint(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newTitlesInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample title table",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolvePath(targetPath, func() (string, error) {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return "", err
				}
				return cfg.Titles.Path, nil
			})
			if err != nil {
				return err
			}
			if err := titles.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample title table to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the title table (defaults to titles.path)")
	return cmd
}
