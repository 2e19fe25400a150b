// Command auraops runs the single-host deployment orchestrator: an HTTP API
// that deploys projects as containers, routes domains through a managed
// reverse proxy, and keeps their certificates renewed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the auraops config file (defaults apply when omitted)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("auraops %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting auraops", "version", Version, "config", *configPath)

	server, err := NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return exitCode(err)
	}

	if err := server.Start(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		return exitCode(err)
	}

	return ExitSuccess
}

// exitCode maps a ServerError to its exit code; anything else is treated as
// a configuration problem.
func exitCode(err error) int {
	var sErr *ServerError
	if errors.As(err, &sErr) {
		return sErr.ExitCode
	}
	return ExitConfigError
}
