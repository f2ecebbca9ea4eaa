/*
Copyright (c) 2026, the fairshared authors.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/fairshared/fairshared/pkg/config"
	"github.com/fairshared/fairshared/pkg/logging"
)

const (
	name           = "fairshared"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "config file path (YAML)",
		Sources: cli.EnvVars("FAIRSHARED_CONFIG"),
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (debug, info, warn, error)",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "output format (json, yaml, table)",
		Value:   "table",
	}
)

// Root assembles the fairshared command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "fair-share resource governor daemon",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCmd(),
			startCmd(),
			stopCmd(),
			restartCmd(),
			snapshotCmd(),
			planCmd(),
			registrarCmd(),
		},
	}
}

// Execute runs the CLI with SIGINT/SIGTERM wired to context cancellation.
// It exits nonzero on any command failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Root().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.String("config"))
}
