package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch/backend"
)

const snippetLines = 6

var searchCmd = &cobra.Command{
	Use:   "search <project-id> <query>",
	Short: "Semantic search over an indexed project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		topK, _ := cmd.Flags().GetInt("top")
		resp, err := client.Search(cmd.Context(), backend.SearchRequest{
			ProjectID: args[0],
			Query:     args[1],
			TopK:      topK,
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if wantJSON(cmd) {
			return printJSON(out, resp)
		}

		fmt.Fprintf(out, "%d results for %q\n", resp.Total, resp.Query)
		for i, r := range resp.Results {
			fmt.Fprintf(out, "\n%d. %s (%.0f%%)\n", i+1, r.FilePath, r.Similarity*100)
			fmt.Fprintln(out, snippet(r.Content, snippetLines))
		}
		return nil
	},
}

// snippet returns the first n lines of s, indented.
func snippet(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return "   " + strings.Join(lines, "\n   ")
}

func init() {
	searchCmd.Flags().IntP("top", "k", 10, "number of results (1-50)")
	addJSONFlag(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
