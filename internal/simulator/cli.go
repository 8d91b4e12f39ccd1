package simulator

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// ErrHelp is returned by ParseFlags when usage was requested and printed.
var ErrHelp = errors.New("help requested")

// ParseFlags parses args into a Config seeded with DefaultConfig.
func ParseFlags(name string, args []string, out io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	fs.IntVar(&cfg.Instances, "instances", cfg.Instances, "number of machine instances to simulate")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "sampling steps per instance")
	fs.IntVar(&cfg.ToolEvery, "tool-every", cfg.ToolEvery, "steps between tool changes (0 disables tool changes)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent posting workers")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request and replay verification timeout")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for generated values")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "telemetry signal prefix")
	fs.StringSliceVar(&cfg.Axes, "axes", cfg.Axes, "signal suffixes sampled each step")
	fs.DurationVar(&cfg.Cadence, "cadence", cfg.Cadence, "time between sampling steps")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every notification")
	help := fs.BoolP("help", "h", false, "show help")

	fs.Usage = func() { printHelp(out, name, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, err
	}
	if *help {
		printHelp(out, name, fs)
		return nil, ErrHelp
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.BaseURL == "":
		return errors.New("--url must not be empty")
	case cfg.Instances < 1:
		return errors.New("--instances must be at least 1")
	case cfg.Samples < 0:
		return errors.New("--samples must not be negative")
	case cfg.ToolEvery < 0:
		return errors.New("--tool-every must not be negative")
	case cfg.Workers < 1:
		return errors.New("--workers must be at least 1")
	case len(cfg.Axes) == 0:
		return errors.New("--axes must name at least one signal")
	}
	return nil
}

func printHelp(out io.Writer, name string, fs *pflag.FlagSet) {
	fmt.Fprintf(out, `PowerStream Simulator
=====================

Posts synthetic machine sessions to a running server and checks that the
stream replay of every instance holds all of its samples and tool changes.

Usage:
  %s [options]

Options:
%s
Examples:
  # Four instances, default settings
  %s

  # Heavier run against another host
  %s --url http://localhost:8080 --instances 32 --samples 2000 --workers 16
`, name, fs.FlagUsages(), name, name)
}
