// Package main is the entry point for the playtest CLI, which plays quiz
// sessions against a running eraquiz server and checks their results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/eraquiz/internal/playtest"
	"github.com/okian/eraquiz/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

var rootCmd = &cobra.Command{
	Use:   "playtest",
	Short: "Play quiz sessions against an eraquiz server",
	Long: `playtest starts sessions against a running eraquiz server, answers every
figure at random (sometimes changing an answer or stepping back), then fetches
the results twice and checks that rates, metrics and answers are consistent.`,
	SilenceUsage: true,
	RunE:         runPlaytest,
}

func init() {
	f := rootCmd.Flags()
	f.String("url", "http://localhost:9080", "base URL of the service")
	f.Int("sessions", playtest.DefaultSessions, "number of sessions to play")
	f.Int("workers", runtime.NumCPU(), "number of sessions played at once")
	f.Duration("timeout", playtest.DefaultTimeout, "HTTP request timeout")
	f.Duration("deadline", defaultRunTimeout, "overall run deadline")
	f.Uint64("seed", 0, "seed for answer choices (0 picks one from the clock)")
	f.Float64("change", playtest.DefaultChangeProbability, "probability of changing an answer on reveal")
	f.Float64("back", playtest.DefaultBackProbability, "probability of stepping back on reveal")
	f.String("log-format", string(logger.FormatText), "log output format: text or json")
	f.String("log-level", "info", "log level: debug, info, warn, error")
}

func runPlaytest(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	format, _ := f.GetString("log-format")
	level, _ := f.GetString("log-level")
	if err := logger.InitWith(os.Stdout, logger.Format(format)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}

	cfg := playtest.Config{Logger: logger.Named("playtest")}
	cfg.BaseURL, _ = f.GetString("url")
	cfg.Sessions, _ = f.GetInt("sessions")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.Seed, _ = f.GetUint64("seed")
	cfg.ChangeProbability, _ = f.GetFloat64("change")
	cfg.BackProbability, _ = f.GetFloat64("back")
	deadline, _ := f.GetDuration("deadline")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	_, err := playtest.Run(ctx, cfg)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
