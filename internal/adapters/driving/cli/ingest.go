package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index PDF manuals",
	Long: `Extracts text from the given PDF manuals, splits it into overlapping
chunks, embeds them, and stores everything in the local index.

Already-indexed paths are skipped, so re-running over the same
directory is safe.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}

	// The pipeline handles the whole batch concurrently, so show an
	// indeterminate spinner rather than a per-file bar.
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("indexing %d file(s)", len(args))),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	report, err := svcs.Ingest.Ingest(cmd.Context(), args)
	bar.Finish() //nolint:errcheck
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Indexed %d, skipped %d\n", report.Indexed, report.Skipped)
	for _, warning := range report.Warnings {
		cmd.Printf("warning: %s\n", warning)
	}
	return nil
}
