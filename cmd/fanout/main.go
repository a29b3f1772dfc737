// fanout runs a command template once per line of an input file on a
// fixed pool of workers, capturing each invocation's output to a file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fanout/internal/apperrors"
	"fanout/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes fanout and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return apperrors.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "fanout: %v\n", err)
		return apperrors.ExitFatal
	}
	if opts.version {
		fmt.Fprintf(stdout, "fanout version %s\n", version)
		return apperrors.ExitOK
	}

	cfg := opts.config
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "fanout: %v\n", err)
		return apperrors.ExitFatal
	}

	logger := newLogger(cfg, stderr)
	slog.SetDefault(logger)

	r := &runner{cfg: cfg, stdout: stdout, stderr: stderr, logger: logger}
	summary, err := r.run(ctx)
	if err != nil {
		logger.Error("Run failed", "reason", apperrors.Reason(err), "error", err)
	}
	return apperrors.ExitStatus(err, summary.Unsuccessful())
}

// newLogger writes to stderr; stdout carries mirrored job output.
func newLogger(cfg config.RunConfig, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
