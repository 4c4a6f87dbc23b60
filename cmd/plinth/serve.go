package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crobledo/plinth/config"
	"github.com/crobledo/plinth/database"
	plinthhttp "github.com/crobledo/plinth/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the plinth HTTP server against the configured database backend.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8000, "HTTP server port")
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server bind address")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var configFiles []string
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		configFiles = append(configFiles, configFile)
	}

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log)

	// The strategy is built once here and passed down explicitly; there is
	// no package-level instance.
	strategy, err := database.CreateStrategy(ctx, cfg.Database, slog.Default())
	if err != nil {
		return fmt.Errorf("create database strategy: %w", err)
	}
	defer func() { _ = strategy.Close() }()

	handlerCfg := plinthhttp.HandlerConfig{
		ProjectName: cfg.Project.Name,
		Version:     version,
		CORS:        cfg.CORS,
	}
	handler := plinthhttp.NewHandler(&handlerCfg, strategy)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", strategy.Backend())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
