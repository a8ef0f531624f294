// Package main provides the applyflow binary entry point.
// Applyflow automates job application form filling: it drives a
// browser through application forms, answers fields from the
// applicant's profile with model assistance, and asks the applicant
// when it cannot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	// Register LLM providers via init()
	_ "github.com/c360studio/applyflow/llm/providers"

	"github.com/spf13/cobra"

	"github.com/c360studio/applyflow/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "applyflow"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "applyflow",
		Short: "Job application automation service",
		Long: `Applyflow automates job application form filling.

It drives a headless browser through application forms, fills fields
from the applicant's stored profile with model assistance, asks the
applicant when a field needs information only they have, and streams
run progress to connected clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, addr, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serve(configPath, addr, logLevel string) error {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := config.NewLoader(wd).Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		app.Shutdown(5 * time.Second)
		return err
	}

	logger.Info("applyflow ready", "addr", cfg.HTTP.Addr)
	<-ctx.Done()

	app.Shutdown(10 * time.Second)
	return nil
}
