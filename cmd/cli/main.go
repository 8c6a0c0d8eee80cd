package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/floodpath/internal/app"
	"github.com/vk/floodpath/internal/cli"
	"github.com/vk/floodpath/internal/config"
	"github.com/vk/floodpath/internal/fsutil"
	"github.com/vk/floodpath/internal/hcl"
	"github.com/vk/floodpath/internal/yamlconfig"
)

// main is the entrypoint for the floodpath application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Results go to outW, logs to logW.
func run(outW, logW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	floodpathApp := app.NewApp(outW, logW, appConfig, loaderFor(appConfig.ConfigPaths))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return floodpathApp.Run(ctx)
}

// loaderFor picks the YAML loader when the paths hold YAML run files and
// no HCL ones, and the HCL loader otherwise. Directories are judged by the
// files they contain.
func loaderFor(paths []string) config.Loader {
	sawYAML := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			if !fsutil.HasExtension(p, yamlconfig.Extensions...) {
				return hcl.NewLoader()
			}
			sawYAML = true
			continue
		}
		if found, _ := fsutil.FindFilesByExtension(p, hcl.Extension); len(found) > 0 {
			return hcl.NewLoader()
		}
		if found, _ := fsutil.FindFilesByExtension(p, yamlconfig.Extensions...); len(found) > 0 {
			sawYAML = true
		}
	}
	if !sawYAML {
		return hcl.NewLoader()
	}
	return yamlconfig.NewLoader()
}
