package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/egregore-labs/manualdex/internal/adapters/driving/httpapi"
	"github.com/egregore-labs/manualdex/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves ingestion and retrieval over a JSON HTTP API:

  POST   /ingest
  POST   /search
  GET    /doc/{id}
  GET    /doc/{id}/page/{n}
  DELETE /doc/{id}`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8787", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svcs, err := ensureServices()
	if err != nil {
		return err
	}

	server := httpapi.NewServer(serveAddr, svcs.Ingest, svcs.Search, svcs.Documents)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
