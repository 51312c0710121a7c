package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Inspect and manage indexed manuals",
}

var docShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a manual's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocShow,
}

var docPageCmd = &cobra.Command{
	Use:   "page [id] [page]",
	Short: "Print the text covering one estimated page",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocPage,
}

var docDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a manual and its chunks from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocDelete,
}

func init() {
	docCmd.AddCommand(docShowCmd)
	docCmd.AddCommand(docPageCmd)
	docCmd.AddCommand(docDeleteCmd)
	rootCmd.AddCommand(docCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return id, nil
}

func runDocShow(cmd *cobra.Command, args []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	doc, err := svcs.Documents.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	cmd.Printf("Title:   %s\n", doc.Title)
	cmd.Printf("Vendor:  %s\n", doc.Vendor)
	cmd.Printf("Family:  %s\n", doc.Family)
	cmd.Printf("Model:   %s\n", doc.Model)
	cmd.Printf("Source:  %s\n", doc.SourcePath)
	cmd.Printf("Pages:   %d\n", doc.PageCount)
	cmd.Printf("Indexed: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocPage(cmd *cobra.Command, args []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	page, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid page number %q", args[1])
	}

	chunks, err := svcs.Documents.PageChunks(cmd.Context(), id, page)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		cmd.Printf("No indexed text covers page %d.\n", page)
		return nil
	}

	for i, chunk := range chunks {
		if i > 0 {
			cmd.Println()
		}
		cmd.Println(chunk.Text)
	}
	return nil
}

func runDocDelete(cmd *cobra.Command, args []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := svcs.Documents.Delete(cmd.Context(), id); err != nil {
		return err
	}
	cmd.Printf("Deleted document %d\n", id)
	return nil
}
