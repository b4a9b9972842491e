package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shelver/internal/relocate"
	"shelver/internal/store"
)

var titleCaser = cases.Title(language.English)

func titleCase(value string) string {
	return titleCaser.String(value)
}

func taskKey(task *store.Task) string {
	return relocate.Key(task.Tags.Content.ID, task.Tags.Season)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
