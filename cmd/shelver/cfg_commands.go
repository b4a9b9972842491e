package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/archive"
	"shelver/internal/store"
)

func newCfgCommand(ctx *commandContext) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "cfg",
		Short: "Manage per-show policy documents",
	}

	cfgCmd.AddCommand(newCfgCreateCommand(ctx))
	cfgCmd.AddCommand(newCfgShowCommand(ctx))
	cfgCmd.AddCommand(newCfgListCommand(ctx))

	return cfgCmd
}

func newCfgCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		season       int
		contentID    int64
		document     string
		documentFile string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a policy document for a show season",
		Long: `Store a policy document for a show season under the cfg lock.

Without --document or --document-file the configured policy.default_document
is used. The document must be a JSON object with a category_mapping from
download category to absolute library root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(document, documentFile)
			if err != nil {
				return err
			}
			return ctx.withArchiver(func(arch *archive.Archiver, _ *store.Store) error {
				outcome, err := arch.CreateCfg(cmd.Context(), season, contentID, raw)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if outcome.Kind == archive.OutcomeSkippedLocked {
					if outcome.Blocker != nil {
						fmt.Fprintf(out, "Skipped: lock %q held until %s\n",
							outcome.Blocker.Name, outcome.Blocker.ExpiresAt.Local().Format(time.DateTime))
					} else {
						fmt.Fprintln(out, "Skipped: lock held")
					}
					return nil
				}
				fmt.Fprintf(out, "Created cfg %d for content %d season %d\n", outcome.CfgID, contentID, season)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().Int64Var(&contentID, "content-id", 0, "Catalogue content id")
	cmd.Flags().StringVar(&document, "document", "", "Policy document as inline JSON")
	cmd.Flags().StringVar(&documentFile, "document-file", "", "Read the policy document from a file")
	cmd.MarkFlagsMutuallyExclusive("document", "document-file")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("content-id")
	return cmd
}

func readDocument(inline, path string) (json.RawMessage, error) {
	if strings.TrimSpace(inline) != "" {
		return json.RawMessage(inline), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy document: %w", err)
	}
	return json.RawMessage(data), nil
}

func newCfgShowCommand(ctx *commandContext) *cobra.Command {
	var (
		season    int
		contentID int64
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the policy document used for a show season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				cfg, err := st.GetCfg(cmd.Context(), contentID, season)
				if err != nil {
					if errors.Is(err, store.ErrCfgNotFound) {
						return fmt.Errorf("no cfg for content %d season %d; create one with `shelver cfg create`", contentID, season)
					}
					return err
				}
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, cfg.Document, "", "  "); err != nil {
					return fmt.Errorf("format cfg %d: %w", cfg.ID, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().Int64Var(&contentID, "content-id", 0, "Catalogue content id")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("content-id")
	return cmd
}

func newCfgListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored policy documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				cfgs, err := st.ListCfgs(cmd.Context())
				if err != nil {
					return err
				}
				if len(cfgs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No policy documents")
					return nil
				}
				rows := make([][]string, 0, len(cfgs))
				for _, cfg := range cfgs {
					categories := "invalid"
					if policy, err := cfg.Policy(); err == nil {
						categories = strings.Join(policy.Categories(), ", ")
					}
					rows = append(rows, []string{
						strconv.FormatInt(cfg.ID, 10),
						strconv.FormatInt(cfg.ContentID, 10),
						strconv.Itoa(cfg.Season),
						categories,
					})
				}
				table := renderTable([]column{right("ID"), right("Content"), right("Season"), left("Categories")}, rows)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}
