package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriLog/internal/app"
	"github.com/Rorical/RoriLog/internal/utils"
	"github.com/Rorical/RoriLog/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the log over HTTP",
	Long: `Serve the active profile's log over HTTP: a page for browsers at / and a
JSON API at /api/entries that remote profiles talk to.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := app.LoadConfig(appOptions())
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		level := cfg.GetLogLevel()
		if verboseFlag {
			level = slog.LevelDebug
		}
		utils.SetupLogging(os.Stderr, level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := app.OpenStore(ctx, cfg, cfg.Current())
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer st.Close()
		if err := st.EnsureInitialized(ctx); err != nil {
			log.Fatalf("Failed to initialize log: %v", err)
		}

		srv, err := web.NewServer(st)
		if err != nil {
			log.Fatalf("Failed to create server: %v", err)
		}
		httpServer := &http.Server{
			Addr:              serveAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown failed", "error", err)
			}
		}()

		slog.Info("serving log", "addr", serveAddr, "profile", cfg.ActiveProfile, "backend", cfg.Current().Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}
