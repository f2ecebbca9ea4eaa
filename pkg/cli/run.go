/*
Copyright (c) 2026, the fairshared authors.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/fairshared/fairshared/pkg/collector"
	"github.com/fairshared/fairshared/pkg/config"
	"github.com/fairshared/fairshared/pkg/daemon"
	"github.com/fairshared/fairshared/pkg/enforcer"
	"github.com/fairshared/fairshared/pkg/governor"
	"github.com/fairshared/fairshared/pkg/policy"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the governor in the foreground",
		Description: `Run the sample-decide-enforce loop in the foreground until
interrupted. Intended for systemd units and debugging; use "start" to
detach into the background instead.

On SIGINT or SIGTERM the loop finishes its current cycle, restores all
managed process priorities to neutral, and exits.`,
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runGovernor(ctx, cfg)
		},
	}
}

func runGovernor(ctx context.Context, cfg *config.Config) error {
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	if cfg.Pidfile != "" {
		if err := daemon.WritePidfile(cfg.Pidfile, os.Getpid()); err != nil {
			return err
		}
		defer func() {
			if err := daemon.RemovePidfile(cfg.Pidfile); err != nil {
				slog.Warn("removing pidfile failed", slog.String("error", err.Error()))
			}
		}()
	}

	gov := governor.New(governor.Config{
		Sampler:      newSnapshotter(cfg),
		Planner:      engine,
		Applier:      enforcer.New(slog.Default()),
		Interval:     cfg.Interval(),
		CPUIntervene: cfg.CPUIntervene,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gov.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:        cfg.MetricsAddr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			slog.Info("metrics listening", slog.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// buildEngine assembles the policy engine from configuration.
func buildEngine(cfg *config.Config) (*policy.Engine, error) {
	scheduler, err := policy.NewScheduler(cfg.SchedulerKind(), cfg.RAMIntervene)
	if err != nil {
		return nil, err
	}

	var quota *policy.QuotaRule
	if kib := cfg.QuotaKiB(); kib > 0 {
		quota = &policy.QuotaRule{QuotaKiB: kib}
	}
	return &policy.Engine{Scheduler: scheduler, Quota: quota}, nil
}

func newSnapshotter(cfg *config.Config) *collector.Snapshotter {
	factory := collector.NewDefaultFactory(cfg.HomeRoot, cfg.ExcludedUsers())
	factory.Logger = slog.Default()
	return collector.NewSnapshotter(factory, slog.Default())
}
