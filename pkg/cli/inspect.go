/*
Copyright (c) 2026, the fairshared authors.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/fairshared/fairshared/pkg/serializer"
)

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Collect one system snapshot and print it",
		Description: `Collect a single snapshot of the system as the governor sees
it: load averages, the high-CPU process listing with corrected owners,
the full process table, and per-user home directory disk usage.

The snapshot can be output in JSON, YAML, or table format.`,
		Flags: []cli.Flag{configFlag, logLevelFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			format := serializer.Format(cmd.String("format"))
			if format.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", format)
			}

			snap, err := newSnapshotter(cfg).Collect(ctx)
			if err != nil {
				return err
			}
			return serializer.NewWriter(format, nil).Serialize(snap)
		},
	}
}

func planCmd() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Run one dry-run cycle and print the planned actions",
		Description: `Collect a snapshot, run the configured policy over it, and
print the actions the governor would take. Nothing is reniced or killed;
this command never modifies the system.`,
		Flags: []cli.Flag{configFlag, logLevelFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			format := serializer.Format(cmd.String("format"))
			if format.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", format)
			}

			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			snap, err := newSnapshotter(cfg).Collect(ctx)
			if err != nil {
				return err
			}
			return serializer.NewWriter(format, nil).Serialize(engine.Plan(snap))
		},
	}
}
