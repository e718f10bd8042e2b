package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqsift/reqsift/internal/config"
	"github.com/reqsift/reqsift/internal/logging"
	"github.com/reqsift/reqsift/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP API",
	Long: `Serve extraction over HTTP. POST a raw getData debug log to
/api/v1/extract and get the summary back as CSV or JSON. Each request is an
independent single pass; nothing is shared between requests.

Configuration comes from the environment (a local .env file is honored):
REQSIFT_ADDR, REQSIFT_MAX_BODY, REQSIFT_READ_TIMEOUT, REQSIFT_WRITE_TIMEOUT,
REQSIFT_LOG_LEVEL, REQSIFT_LOG_FORMAT.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides REQSIFT_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer log.Sync() // nolint

	s := server.New(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "reqsift shutting down...")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return s.Stop(shutdownCtx)
	}
}
