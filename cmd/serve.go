package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/nodewee/doc-translate-prep/pkg/config"
	"github.com/nodewee/doc-translate-prep/pkg/core"
	"github.com/nodewee/doc-translate-prep/pkg/manifest"
	"github.com/nodewee/doc-translate-prep/pkg/server"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction and batching over HTTP",
	Long: `Serve the extraction pipeline over HTTP.

Endpoints:
  GET  /healthz      Liveness probe
  POST /v1/extract   {"path", "target_language", "ignore_hidden", "group_size", "max_size"}
  POST /v1/batches   {"items", "group_size", "max_size", "metric"}

Paths in /v1/extract are read on the server's file system. When --manifest
is set every extraction is recorded as a run.

Examples:
  doc-translate-prep serve                          # Listen on :8080
  doc-translate-prep serve --addr 127.0.0.1:9000    # Listen on a specific address
  doc-translate-prep serve --manifest ~/prep.db     # Record extractions`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				log.Fatalf("Error (%s): %s", appErr.Type, appErr.Message)
			}
			log.Fatalf("Error: %v", err)
		}
	},
}

func runServer(cmd *cobra.Command) error {
	cfg := config.LoadConfigWithEnvOverrides()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if manifestPath != "" {
		cfg.ManifestPath = manifestPath
	}
	if verbose {
		cfg.EnableVerbose = true
	}

	appLogger := cfg.NewLogger()
	pipeline, err := core.NewDefaultPipeline(cfg, appLogger)
	if err != nil {
		return err
	}

	var store *manifest.Store
	if cfg.ManifestPath != "" {
		if store, err = manifest.Open(cfg.ManifestPath, appLogger); err != nil {
			return err
		}
		defer store.Close()
	}

	return server.New(pipeline, cfg, store, appLogger).ListenAndServe(cmd.Context(), cfg.ListenAddr)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&manifestPath, "manifest", "", "SQLite file to record extractions in")
}
