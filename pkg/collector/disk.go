package collector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fairshared/fairshared/pkg/errors"
)

// DiskCollector measures per-user home directory usage in KiB via `du -sk`.
//
// Directory entries whose name starts with a dot are skipped, and users on
// the exclusion list keep their account membership but are exempt from
// disk accounting. Per-entry failures are logged and skipped; only an
// unreadable home root fails the collection.
type DiskCollector struct {
	HomeRoot string
	Excluded map[string]bool
	Timeout  time.Duration
	Logger   *slog.Logger

	run commandRunner
}

func (d *DiskCollector) runner() commandRunner {
	if d.run != nil {
		return d.run
	}
	return runCommand
}

func (d *DiskCollector) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

func (d *DiskCollector) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Collect returns the valid-account set (every non-hidden home root entry)
// and the usage map for accounted users.
func (d *DiskCollector) Collect(ctx context.Context) (users []string, usage map[string]int64, err error) {
	entries, err := os.ReadDir(d.HomeRoot)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeCollection, "reading home root", err)
	}

	usage = make(map[string]int64)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		users = append(users, name)

		if d.Excluded[name] {
			continue
		}

		kib, err := d.measure(ctx, filepath.Join(d.HomeRoot, name))
		if err != nil {
			d.logger().Warn("skipping disk usage entry",
				slog.String("user", name),
				slog.String("error", err.Error()))
			continue
		}
		usage[name] = kib
	}
	return users, usage, nil
}

// measure runs `du -sk` for one home directory and parses the KiB count.
func (d *DiskCollector) measure(ctx context.Context, path string) (int64, error) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	out, err := d.runner()(cctx, "du", "-sk", path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCollection, "running du", err)
	}

	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return 0, errors.WrapWithContext(errors.ErrCodeCollection,
			"unparsable du output", nil, map[string]any{"output": string(out)})
	}

	kib, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCollection, "parsing du size", err)
	}
	return kib, nil
}
