// Copyright (c) 2026, the fairshared authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/policy"
)

const envPrefix = "FAIRSHARED_"

// Config holds the daemon configuration. Values are resolved in order:
// built-in defaults, YAML config file, environment variables (FAIRSHARED_*).
type Config struct {
	// CPUIntervene is the 1-minute load average above which the governor
	// intervenes; below it a cycle is skipped entirely.
	CPUIntervene float64 `yaml:"cpu_intervene"`

	// RAMIntervene is the aggregate per-user memory percentage above which
	// the RAM penalty rule demotes a user.
	RAMIntervene float64 `yaml:"ram_intervene"`

	// IntervalSeconds is the governor cycle interval.
	IntervalSeconds int `yaml:"interval"`

	// Scheduler names the priority strategy: fair-share-only,
	// ram-penalty-only, hybrid, or reset-to-neutral.
	Scheduler string `yaml:"scheduler"`

	// Excluded is a comma-separated list of user names exempt from disk
	// accounting.
	Excluded string `yaml:"excluded"`

	// UserQuota is the per-user home directory limit as magnitude plus
	// unit suffix (k/m/g, case-insensitive), e.g. "20g". Empty disables
	// quota enforcement.
	UserQuota string `yaml:"user_quota"`

	// Pidfile is the path used for single-instance enforcement.
	Pidfile string `yaml:"pidfile"`

	// HomeRoot is the directory whose entries define the valid-account set.
	HomeRoot string `yaml:"home_root"`

	// MetricsAddr, when non-empty, exposes Prometheus metrics for the
	// governor on this address.
	MetricsAddr string `yaml:"metrics_addr"`

	// Registrar configures the user-registration service.
	Registrar RegistrarConfig `yaml:"registrar"`

	// quotaKiB and schedulerKind are derived during Validate.
	quotaKiB      int64
	schedulerKind policy.SchedulerKind
}

// RegistrarConfig holds the user-registration service settings.
type RegistrarConfig struct {
	Listen             string `yaml:"listen"`
	UsersFile          string `yaml:"users_file"`
	ProcessedUsersFile string `yaml:"processed_users_file"`
	Pidfile            string `yaml:"pidfile"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		CPUIntervene:    20,
		RAMIntervene:    80,
		IntervalSeconds: 30,
		Scheduler:       string(policy.SchedulerHybrid),
		UserQuota:       "20g",
		Pidfile:         "/run/fairshared.pid",
		HomeRoot:        "/home",
		Registrar: RegistrarConfig{
			Listen:             ":8080",
			UsersFile:          "/etc/fairshared/users",
			ProcessedUsersFile: "/var/lib/fairshared/processed_users",
			Pidfile:            "/run/fairshared-registrar.pid",
		},
	}
}

// Load resolves the configuration from defaults, an optional YAML file, and
// the environment, then validates it. A missing file at an explicitly
// provided path is a startup error; path == "" skips the file layer.
func Load(path string) (*Config, error) {
	// A .env next to the binary is a convenience for dev setups.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStartupConfig, "reading config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStartupConfig, "parsing config file", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from FAIRSHARED_* environment variables.
// A numeric variable that does not parse is a startup error, same as a
// malformed file value.
func (c *Config) applyEnv() error {
	if v := os.Getenv(envPrefix + "CPU_INTERVENE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envParseError("CPU_INTERVENE", v, err)
		}
		c.CPUIntervene = f
	}
	if v := os.Getenv(envPrefix + "RAM_INTERVENE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envParseError("RAM_INTERVENE", v, err)
		}
		c.RAMIntervene = f
	}
	if v := os.Getenv(envPrefix + "INTERVAL"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return envParseError("INTERVAL", v, err)
		}
		c.IntervalSeconds = i
	}
	if v := os.Getenv(envPrefix + "SCHEDULER"); v != "" {
		c.Scheduler = v
	}
	if v := os.Getenv(envPrefix + "EXCLUDED"); v != "" {
		c.Excluded = v
	}
	if v := os.Getenv(envPrefix + "USER_QUOTA"); v != "" {
		c.UserQuota = v
	}
	if v := os.Getenv(envPrefix + "PIDFILE"); v != "" {
		c.Pidfile = v
	}
	if v := os.Getenv(envPrefix + "HOME_ROOT"); v != "" {
		c.HomeRoot = v
	}
	if v := os.Getenv(envPrefix + "METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	return nil
}

func envParseError(name, value string, err error) error {
	return errors.WrapWithContext(errors.ErrCodeStartupConfig,
		"parsing environment override", err,
		map[string]any{"variable": envPrefix + name, "value": value})
}

// Validate checks the configuration and derives parsed values. Any failure
// is a startup configuration error: the daemon must not start.
func (c *Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return errors.New(errors.ErrCodeStartupConfig,
			fmt.Sprintf("interval must be positive, got %d", c.IntervalSeconds))
	}
	if c.CPUIntervene < 0 {
		return errors.New(errors.ErrCodeStartupConfig,
			fmt.Sprintf("cpu_intervene must not be negative, got %v", c.CPUIntervene))
	}
	if c.HomeRoot == "" {
		return errors.New(errors.ErrCodeStartupConfig, "home_root must not be empty")
	}

	kind, err := policy.ParseSchedulerKind(c.Scheduler)
	if err != nil {
		return err
	}
	c.schedulerKind = kind

	if c.UserQuota != "" {
		kib, err := ParseQuota(c.UserQuota)
		if err != nil {
			return err
		}
		c.quotaKiB = kib
	}

	return nil
}

// SchedulerKind returns the parsed scheduler strategy. Only valid after
// Validate has succeeded.
func (c *Config) SchedulerKind() policy.SchedulerKind {
	return c.schedulerKind
}

// QuotaKiB returns the parsed per-user quota in KiB, 0 when quota
// enforcement is disabled. Only valid after Validate has succeeded.
func (c *Config) QuotaKiB() int64 {
	return c.quotaKiB
}

// ExcludedUsers returns the exclusion list as a set.
func (c *Config) ExcludedUsers() map[string]bool {
	out := make(map[string]bool)
	for _, name := range strings.Split(c.Excluded, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// Interval returns the cycle interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
