// Package main provides the timecapsule server and command line.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/timecapsule/internal/config"
	"github.com/kimhsiao/timecapsule/internal/emotion"
	"github.com/kimhsiao/timecapsule/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	port    int
)

var rootCmd = &cobra.Command{
	Use:           "timecapsule",
	Short:         "Seal memories and photos until a chosen date",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		setupLogging(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored memory as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		a, err := newApp(cfg, emotion.NewVaderScorer())
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.service.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("memory %s not found", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (default: ./config.yaml or ~/.timecapsule/config.yaml)")
	serveCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd, showCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromPath(cfgFile)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) {
	logging.Init(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logger := logging.Get()
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(logging.Format(cfg.Logging.Format))
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg, emotion.NewVaderScorer())
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := a.routes()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		ErrorLog:          logging.StdLogger(logging.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Time capsule server starting", map[string]interface{}{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Provider,
			"version": Version,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error("Command failed", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
