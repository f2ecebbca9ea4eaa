/*
Copyright (c) 2026, the fairshared authors.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/fairshared/fairshared/pkg/daemon"
)

func startCmd() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the governor as a background daemon",
		Description: `Re-execute this binary detached from the terminal running the
governor loop, and record its pid. Refuses to start while a live daemon
is already recorded in the pidfile.`,
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctl := daemon.NewController(cfg.Pidfile, slog.Default())
			pid, err := ctl.Start(daemonArgs(cmd)...)
			if err != nil {
				return err
			}
			fmt.Printf("fairshared started (pid %d)\n", pid)
			return nil
		},
	}
}

func stopCmd() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Stop the background daemon",
		Description: `Send SIGTERM to the recorded daemon and wait for it to exit.
The daemon restores all managed process priorities on the way down.`,
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctl := daemon.NewController(cfg.Pidfile, slog.Default())
			if err := ctl.Stop(daemon.DefaultStopTimeout); err != nil {
				return err
			}
			fmt.Println("fairshared stopped")
			return nil
		},
	}
}

func restartCmd() *cli.Command {
	return &cli.Command{
		Name:  "restart",
		Usage: "Restart the background daemon",
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctl := daemon.NewController(cfg.Pidfile, slog.Default())
			pid, err := ctl.Restart(daemon.DefaultStopTimeout, daemonArgs(cmd)...)
			if err != nil {
				return err
			}
			fmt.Printf("fairshared restarted (pid %d)\n", pid)
			return nil
		},
	}
}

// daemonArgs builds the argument list the detached daemon is started with,
// carrying the caller's config and log level through.
func daemonArgs(cmd *cli.Command) []string {
	args := []string{"run", "--log-level", cmd.String("log-level")}
	if cfgPath := cmd.String("config"); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	return args
}
