package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchVendors  []string
	searchFamilies []string
	searchModels   []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed manuals",
	Long: `Performs hybrid search across all indexed manuals.
Combines keyword (BM25) and semantic (vector) search and returns
citations with estimated page ranges.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of citations")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output citations as JSON")
	searchCmd.Flags().StringSliceVar(&searchVendors, "vendor", nil, "restrict to vendor(s)")
	searchCmd.Flags().StringSliceVar(&searchFamilies, "family", nil, "restrict to product family(ies)")
	searchCmd.Flags().StringSliceVar(&searchModels, "model", nil, "restrict to model(s)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}

	citations, err := svcs.Search.Search(cmd.Context(), domain.Query{
		Text:     args[0],
		K:        searchLimit,
		Vendors:  searchVendors,
		Families: searchFamilies,
		Models:   searchModels,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputCitationsJSON(cmd, citations)
	}
	return outputCitationsTable(cmd, citations)
}

func outputCitationsJSON(cmd *cobra.Command, citations []domain.Citation) error {
	if citations == nil {
		citations = []domain.Citation{}
	}
	data, err := json.MarshalIndent(citations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputCitationsTable(cmd *cobra.Command, citations []domain.Citation) error {
	if len(citations) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, c := range citations {
		label := c.Title
		if c.Vendor != "" {
			label = fmt.Sprintf("%s (%s)", label, c.Vendor)
		}
		cmd.Printf("[%d] %s, %s (score %.3f)\n", i+1, label, formatPages(c), c.Score)
		if c.Snippet != "" {
			cmd.Printf("    %s\n", strings.ReplaceAll(c.Snippet, "\n", " "))
		}
		cmd.Println()
	}
	return nil
}

func formatPages(c domain.Citation) string {
	if c.PageStart == c.PageEnd {
		return fmt.Sprintf("p. %d", c.PageStart)
	}
	return fmt.Sprintf("pp. %d-%d", c.PageStart, c.PageEnd)
}
