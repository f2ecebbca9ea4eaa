package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

// LoadCollector samples the 1/5/15-minute system load averages.
type LoadCollector struct{}

// Collect implements the load average query.
func (l *LoadCollector) Collect(ctx context.Context) (snapshot.LoadAverages, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return snapshot.LoadAverages{}, errors.Wrap(errors.ErrCodeCollection, "reading load averages", err)
	}
	return snapshot.LoadAverages{
		Load1:  avg.Load1,
		Load5:  avg.Load5,
		Load15: avg.Load15,
	}, nil
}
