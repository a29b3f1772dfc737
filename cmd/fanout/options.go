package main

import (
	"flag"
	"fmt"
	"io"

	"fanout/internal/config"
)

const usageText = `fanout - run a command once per input line on a pool of workers

Usage:
  fanout [options] <command> [args...]

Every occurrence of %%INPUT%% in args is replaced by the current line.
Each job's stdout is echoed and saved to <output>/[<prefix>#]<command>_<line>.stdout.

Options:
`

const examplesText = `
Examples:
  # Fetch every URL in urls.txt, four at a time
  fanout --input-file urls.txt --threads 4 curl -sS %INPUT%

  # Keep results under out/, replacing earlier ones
  fanout --input-file hosts.txt --output out --clobber ping -c 1 %INPUT%

  # Run in containers and resume after an interruption
  fanout --input-file ids.txt --image alpine:3.20 --journal .fanout --resume echo %INPUT%

  # Serve metrics and progress while running
  fanout --input-file jobs.txt --metrics-addr :9090 ./process.sh %INPUT%
`

// options is the parsed command line.
type options struct {
	config  config.RunConfig
	version bool
}

// parseArgs resolves the run configuration. Precedence, lowest first:
// defaults, --config file, FANOUT_* environment, explicit flags.
// Flag parsing stops at the first non-flag argument, which starts the command.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("fanout", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFile  = fs.String("config", "", "YAML run configuration file")
		inputFile   = fs.String("input-file", "", "file with one input per line (required)")
		output      = fs.String("output", ".", "directory for output files, created if missing")
		noRecord    = fs.Bool("no-record", false, "do not save output to files")
		threads     = fs.Int("threads", 0, "number of workers (default: number of CPUs)")
		clobber     = fs.Bool("clobber", false, "overwrite existing output files")
		prefix      = fs.String("prefix", "", "prefix for output file names")
		hashSuffix  = fs.Bool("hash-suffix", false, "add a hash of the input to output file names")
		timeout     = fs.Duration("timeout", 0, "per-job timeout, e.g. 30s (0 disables)")
		image       = fs.String("image", "", "run jobs in containers of this Docker image")
		metricsAddr = fs.String("metrics-addr", "", "serve metrics and status on this address, e.g. :9090")
		callbackURL = fs.String("callback-url", "", "POST a CloudEvent per job and per run to this URL")
		callbackKey = fs.String("callback-key", "", "HMAC key for signing callback events")
		journalDir  = fs.String("journal", "", "directory of the persistent result journal")
		resume      = fs.Bool("resume", false, "skip jobs the journal records as done")
		logLevel    = fs.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat   = fs.String("log-format", "text", "log format: text or json")
		showVersion = fs.Bool("version", false, "print the version and exit")
	)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usageText)
		fs.PrintDefaults()
		fmt.Fprint(fs.Output(), examplesText)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configFile != "" {
		fc, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyFile(fc); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	threadsSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input-file":
			cfg.InputFile = *inputFile
		case "output":
			cfg.OutputDir = *output
		case "no-record":
			cfg.NoRecord = *noRecord
		case "threads":
			cfg.Threads = *threads
			threadsSet = true
		case "clobber":
			cfg.Clobber = *clobber
		case "prefix":
			cfg.Prefix = *prefix
		case "hash-suffix":
			cfg.HashSuffix = *hashSuffix
		case "timeout":
			cfg.Timeout = *timeout
		case "image":
			cfg.Image = *image
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "callback-url":
			cfg.CallbackURL = *callbackURL
		case "callback-key":
			cfg.CallbackKey = *callbackKey
		case "journal":
			cfg.JournalDir = *journalDir
		case "resume":
			cfg.Resume = *resume
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})

	if rest := fs.Args(); len(rest) > 0 {
		cfg.Command = append([]string(nil), rest...)
	}

	resolved := cfg.WithDefaults()
	if threadsSet {
		// An explicit --threads 0 is left for Validate to reject
		resolved.Threads = *threads
	}
	return &options{config: resolved, version: *showVersion}, nil
}
