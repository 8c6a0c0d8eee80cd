package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vk/floodpath/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("floodpath", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
floodpath - traces downstream flood paths of riverbank points and keeps the
critical ones.

Usage:
  floodpath [options] [CONFIG_PATH...]

Arguments:
  CONFIG_PATH
    A .hcl or .yaml run file, or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.StringSliceP("config", "c", nil, "Run file or directory (repeatable).")
	duplicateFlag := flagSet.Bool("duplicate-paths", false, "Register every critical path, even when paths converge.")
	firstPointFlag := flagSet.Bool("first-point", false, "Let the first registered path own any shared route.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent route walkers. 0 uses one per CPU.")
	outputFlag := flagSet.StringP("output", "o", "", "Output location (file path or s3://bucket/key). Empty writes to stdout.")
	formatFlag := flagSet.String("format", "geojson", "Output format. Options: 'geojson' or 'json'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	summaryFlag := flagSet.Bool("summary", false, "Print a summary table when the run finishes.")
	envFileFlag := flagSet.StringSlice("env-file", []string{".env"}, "Files with FLOODPATH_S3_* settings.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := append(append([]string{}, *configFlag...), flagSet.Args()...)
	slog.Debug("Config paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var overrides app.Overrides
	if flagSet.Changed("duplicate-paths") {
		overrides.DuplicatePaths = duplicateFlag
	}
	if flagSet.Changed("first-point") {
		overrides.FirstPoint = firstPointFlag
	}
	if flagSet.Changed("workers") {
		if *workersFlag < 0 {
			return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
		}
		overrides.Workers = workersFlag
	}
	if flagSet.Changed("output") {
		overrides.OutputPath = outputFlag
	}
	if flagSet.Changed("format") {
		format := strings.ToLower(*formatFlag)
		if format != "geojson" && format != "json" {
			return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'geojson' or 'json'"}
		}
		overrides.Format = &format
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPaths:     paths,
		Overrides:       overrides,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		Summary:         *summaryFlag,
		EnvFiles:        *envFileFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
