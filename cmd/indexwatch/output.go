package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch"
)

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "print raw JSON instead of a table")
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProjects(w io.Writer, projects []indexwatch.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tFILES\tINDEXED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Status, p.FileCount, formatTime(p.IndexedAt))
	}
	return tw.Flush()
}

func printProject(w io.Writer, p indexwatch.Project) {
	fmt.Fprintf(w, "ID:      %s\n", p.ID)
	fmt.Fprintf(w, "Name:    %s\n", p.Name)
	fmt.Fprintf(w, "Path:    %s\n", p.Path)
	if p.Description != nil {
		fmt.Fprintf(w, "About:   %s\n", *p.Description)
	}
	fmt.Fprintf(w, "Status:  %s\n", p.Status)
	fmt.Fprintf(w, "Files:   %d\n", p.FileCount)
	fmt.Fprintf(w, "Indexed: %s\n", formatTime(p.IndexedAt))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
