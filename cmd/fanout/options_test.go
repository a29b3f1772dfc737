package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"fanout/internal/apperrors"
)

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := parseArgs([]string{"--input-file", "in.txt", "echo", "%INPUT%"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	cfg := opts.config
	if cfg.InputFile != "in.txt" {
		t.Errorf("InputFile = %q, want in.txt", cfg.InputFile)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q, want .", cfg.OutputDir)
	}
	if cfg.Threads != runtime.NumCPU() {
		t.Errorf("Threads = %d, want %d", cfg.Threads, runtime.NumCPU())
	}
	if !cfg.Record() {
		t.Error("Record() = false, want true")
	}
	if !slices.Equal(cfg.Command, []string{"echo", "%INPUT%"}) {
		t.Errorf("Command = %v", cfg.Command)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseArgs_CommandFlagsAreNotParsed(t *testing.T) {
	opts, err := parseArgs([]string{"--input-file", "in.txt", "--threads", "2", "ls", "-la", "--clobber"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if opts.config.Clobber {
		t.Error("Clobber = true, flags after the command belong to the command")
	}
	if !slices.Equal(opts.config.Command, []string{"ls", "-la", "--clobber"}) {
		t.Errorf("Command = %v", opts.config.Command)
	}
	if opts.config.Threads != 2 {
		t.Errorf("Threads = %d, want 2", opts.config.Threads)
	}
}

func TestParseArgs_ExplicitZeroThreadsRejected(t *testing.T) {
	opts, err := parseArgs([]string{"--input-file", "in.txt", "--threads", "0", "echo"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if err := opts.config.Validate(); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Validate() error = %v, want validation error", err)
	}
}

func TestParseArgs_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fanout.yaml")
	content := `
input_file: from-file.txt
output: file-out
threads: 3
prefix: file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FANOUT_OUTPUT", "env-out")
	t.Setenv("FANOUT_PREFIX", "env")

	opts, err := parseArgs([]string{"--config", path, "--prefix", "flag", "echo"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	cfg := opts.config
	if cfg.InputFile != "from-file.txt" {
		t.Errorf("InputFile = %q, want value from file", cfg.InputFile)
	}
	if cfg.Threads != 3 {
		t.Errorf("Threads = %d, want value from file", cfg.Threads)
	}
	if cfg.OutputDir != "env-out" {
		t.Errorf("OutputDir = %q, want env to override file", cfg.OutputDir)
	}
	if cfg.Prefix != "flag" {
		t.Errorf("Prefix = %q, want flag to override env", cfg.Prefix)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	opts, err := parseArgs([]string{
		"--input-file", "in.txt",
		"--no-record",
		"--clobber",
		"--hash-suffix",
		"--timeout", "2s",
		"--journal", "j",
		"--resume",
		"--log-format", "json",
		"cat",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	cfg := opts.config
	if cfg.Record() || !cfg.Clobber || !cfg.HashSuffix || !cfg.Resume {
		t.Errorf("boolean flags not applied: %+v", cfg)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.JournalDir != "j" || cfg.LogFormat != "json" {
		t.Errorf("JournalDir = %q, LogFormat = %q", cfg.JournalDir, cfg.LogFormat)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "bad threads", args: []string{"--threads", "many"}},
		{name: "missing config", args: []string{"--config", "/nonexistent/fanout.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArgs(tt.args, io.Discard); err == nil {
				t.Error("parseArgs() error = nil, want error")
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	var out strings.Builder
	_, err := parseArgs([]string{"--help"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("parseArgs() error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(out.String(), "%INPUT%") {
		t.Errorf("usage does not mention the placeholder:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "-input-file") {
		t.Errorf("usage does not list flags:\n%s", out.String())
	}
}
