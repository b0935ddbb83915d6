// Package main provides the break binary entry point.
// Break stages a two-round debate between two AI debaters on any topic,
// scores it with an AI judge, and streams the result to a live viewer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/yo2158/break/llm/providers"

	"github.com/yo2158/break/client"
	"github.com/yo2158/break/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "break"
)

func main() {
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
	var logLevel string

	cmd := &cobra.Command{
		Use:   "break",
		Short: "Two-party AI debate engine",
		Long: `Break pits two AI debaters against each other on a topic, selects
the conflict axis, runs two timed rounds, and has an AI judge score the
exchange and name the break shot.

The serve command runs the engine and its HTTP API; the watch command
follows a debate from a terminal.`,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&logLevel))
	cmd.AddCommand(watchCmd(&logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serveCmd(logLevel *string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debate engine and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)
			cfg, cfgPath, err := loadConfig(configPath, logger)
			if err != nil {
				return err
			}
			return runServe(cfg, cfgPath, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	return cmd
}

func watchCmd(logLevel *string) *cobra.Command {
	var (
		serverURL string
		fast      bool
	)

	cmd := &cobra.Command{
		Use:   "watch <topic>",
		Short: "Start a debate and watch it from the terminal",
		Long: `Watch starts a debate on the given topic and renders each phase as
it becomes viewable. Press Enter to skip the reading time between phases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)

			opts := []client.Option{client.WithLogger(logger)}
			if fast {
				opts = append(opts, client.WithDwell(0, 0))
			}
			v := client.New(strings.TrimRight(serverURL, "/"), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go readSkips(ctx, v)

			return v.Watch(ctx, args[0])
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8173", "Break server base URL")
	cmd.Flags().BoolVar(&fast, "fast", false, "Skip the reading time between phases")
	return cmd
}

func runServe(cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	app, err := NewApp(cfg, cfgPath, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}

	logger.Info("break ready", "version", Version, "addr", cfg.Server.Addr())
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.Shutdown(shutdownCtx)
	return nil
}

func loadConfig(path string, logger *slog.Logger) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		merged := config.DefaultConfig()
		merged.Merge(cfg)
		if err := merged.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid configuration: %w", err)
		}
		return merged, path, nil
	}

	loader := config.NewLoader(logger)
	if err := loader.EnsureUserConfig(); err != nil {
		logger.Warn("could not create default user config", "error", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, loader.ConfigPath(), nil
}

// readSkips maps Enter presses on stdin to viewer skips.
func readSkips(ctx context.Context, v *client.Viewer) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		v.Skip()
	}
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
