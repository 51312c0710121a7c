package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}

	docs, chunks, err := svcs.Documents.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Documents: %d\n", docs)
	cmd.Printf("Chunks:    %d\n", chunks)
	return nil
}
