/*
Copyright (c) 2026, the fairshared authors.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/fairshared/fairshared/pkg/registrar"
)

func registrarCmd() *cli.Command {
	return &cli.Command{
		Name:  "registrar",
		Usage: "Run the self-service account registration server",
		Description: `Serve the registration form and API. Invited users listed in
the users file can create their own account; each completed registration
is appended to the processed users file and runs useradd on this host,
so the service must run with the privileges to create accounts.`,
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "listen address override (host:port)",
				Sources: cli.EnvVars("FAIRSHARED_REGISTRAR_LISTEN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rcfg := registrar.DefaultConfig()
			if cfg.Registrar.Listen != "" {
				rcfg.Listen = cfg.Registrar.Listen
			}
			if addr := cmd.String("listen"); addr != "" {
				rcfg.Listen = addr
			}
			if cfg.Registrar.UsersFile != "" {
				rcfg.UsersFile = cfg.Registrar.UsersFile
			}
			if cfg.Registrar.ProcessedUsersFile != "" {
				rcfg.ProcessedUsersFile = cfg.Registrar.ProcessedUsersFile
			}

			srv := registrar.NewServer(rcfg, nil, slog.Default())
			return srv.Start(ctx)
		},
	}
}
