package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/archive"
	"shelver/internal/logging"
	"shelver/internal/store"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		category    string
		tagsFlag    string
		season      int
		contentID   int64
		contentName string
		contentPath string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a finished download for archiving",
		Example: `  shelver enqueue --name "SPY×FAMILY" --category anime \
    --tags season=1,content=120089-SPY×FAMILY --content-path /downloads/SPY×FAMILY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, ignored, err := parseTags(tagsFlag)
			if err != nil {
				return err
			}
			if len(ignored) > 0 {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				logger.Debug("ignoring unrecognised tags", logging.String("keys", strings.Join(ignored, ",")))
			}
			if cmd.Flags().Changed("season") {
				tags.Season = season
			}
			if cmd.Flags().Changed("content-id") {
				tags.Content.ID = contentID
			}
			if cmd.Flags().Changed("content-name") {
				tags.Content.Name = strings.TrimSpace(contentName)
			}
			if tags.Content.Name == "" {
				tags.Content.Name = strings.TrimSpace(name)
			}

			return ctx.withArchiver(func(arch *archive.Archiver, _ *store.Store) error {
				id, err := arch.Enqueue(cmd.Context(), name, category, tags, contentPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued task %d (%s)\n", id, tagsSummary(tags))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name of the download")
	cmd.Flags().StringVar(&category, "category", "", "Download category, mapped to a library root by the policy")
	cmd.Flags().StringVar(&tagsFlag, "tags", "", "Identity as season=N,content=ID-NAME")
	cmd.Flags().IntVar(&season, "season", 0, "Season number (overrides --tags)")
	cmd.Flags().Int64Var(&contentID, "content-id", 0, "Catalogue content id (overrides --tags)")
	cmd.Flags().StringVar(&contentName, "content-name", "", "Catalogue content name (overrides --tags)")
	cmd.Flags().StringVar(&contentPath, "content-path", "", "File or directory holding the download")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("content-path")
	return cmd
}

// parseTags reads "season=1,content=120089-SPY×FAMILY". The content value is
// the id, optionally followed by a dash and the name; the name may itself
// contain dashes. Keys other than season and content are returned as ignored.
func parseTags(raw string) (store.Tags, []string, error) {
	var (
		tags    store.Tags
		ignored []string
	)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tags, nil, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return tags, nil, fmt.Errorf("tags: %q is not key=value", part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "season":
			n, err := strconv.Atoi(value)
			if err != nil {
				return tags, nil, fmt.Errorf("tags: season %q: %w", value, err)
			}
			tags.Season = n
		case "content":
			idText, nameText, _ := strings.Cut(value, "-")
			id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
			if err != nil {
				return tags, nil, fmt.Errorf("tags: content id %q: %w", idText, err)
			}
			tags.Content = store.ContentRef{ID: id, Name: strings.TrimSpace(nameText)}
		default:
			ignored = append(ignored, key)
		}
	}
	return tags, ignored, nil
}

func tagsSummary(tags store.Tags) string {
	summary := fmt.Sprintf("content %d season %d", tags.Content.ID, tags.Season)
	if tags.Content.Name != "" {
		summary += ", " + tags.Content.Name
	}
	return summary
}
