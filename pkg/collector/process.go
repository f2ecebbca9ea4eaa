package collector

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

// MinManagedCPU is the CPU percentage floor below which a process is not
// worth managing; the detailed listing is restricted to entries above it.
const MinManagedCPU = 10.0

// ansiPattern matches the terminal control sequences batch-mode top still
// emits; they must be stripped before the output can be parsed.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]|\x1b\(B|\x1b>`)

// topColumns is the field count of a top process row when the command is
// counted as a single trailing field.
const topColumns = 12

// ProcessCollector captures the two process views of a snapshot.
//
// The detailed listing comes from batch-mode top, which truncates user
// names; it is cross-referenced against a ps pid-to-owner listing to
// recover the true owner, and entries whose pid is absent from ps are
// discarded (the process exited between the two listings). The full table
// comes from a second ps invocation carrying command names.
type ProcessCollector struct {
	MinCPU  float64
	Timeout time.Duration

	run commandRunner
}

func (p *ProcessCollector) runner() commandRunner {
	if p.run != nil {
		return p.run
	}
	return runCommand
}

func (p *ProcessCollector) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// Collect returns the managed (high-CPU, owner-corrected) samples and the
// full process table.
func (p *ProcessCollector) Collect(ctx context.Context) (managed, table []snapshot.ProcessSample, err error) {
	managed, err = p.collectManaged(ctx)
	if err != nil {
		return nil, nil, err
	}
	table, err = p.collectTable(ctx)
	if err != nil {
		return nil, nil, err
	}
	return managed, table, nil
}

func (p *ProcessCollector) collectManaged(ctx context.Context) ([]snapshot.ProcessSample, error) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	// Several short iterations let top settle on real utilization numbers;
	// only the last frame is parsed.
	topOut, err := p.runner()(cctx, "top", "-b", "-u", "!root", "-d", ".1", "-n", "10")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCollection, "running top", err)
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	psOut, err := p.runner()(pctx, "ps", "axo", "pid,user:20")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCollection, "running ps", err)
	}

	owners, err := parseOwners(string(psOut))
	if err != nil {
		return nil, err
	}

	samples, err := parseTop(string(topOut))
	if err != nil {
		return nil, err
	}

	out := make([]snapshot.ProcessSample, 0, len(samples))
	for _, s := range samples {
		owner, ok := owners[s.PID]
		if !ok {
			// gone between the two listings
			continue
		}
		if s.CPU < p.minCPU() {
			continue
		}
		s.User = owner
		out = append(out, s)
	}
	return out, nil
}

func (p *ProcessCollector) minCPU() float64 {
	if p.MinCPU > 0 {
		return p.MinCPU
	}
	return MinManagedCPU
}

func (p *ProcessCollector) collectTable(ctx context.Context) ([]snapshot.ProcessSample, error) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	out, err := p.runner()(cctx, "ps", "axo", "pid,user:20,ni,pcpu,pmem,comm")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCollection, "running ps", err)
	}
	return parseTable(string(out))
}

// parseTop extracts process samples from batch-mode top output: control
// sequences are stripped, the last frame is located, and its process rows
// are parsed. Column layout: PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+
// COMMAND.
func parseTop(out string) ([]snapshot.ProcessSample, error) {
	clean := ansiPattern.ReplaceAllString(out, "")

	idx := strings.LastIndex(clean, "top - ")
	if idx < 0 {
		return nil, errors.New(errors.ErrCodeCollection, "no top frame found in output")
	}

	lines := strings.Split(clean[idx:], "\n")
	if len(lines) < 8 {
		return nil, errors.New(errors.ErrCodeCollection, "truncated top frame")
	}

	var samples []snapshot.ProcessSample
	for _, line := range lines[7:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < topColumns {
			return nil, errors.WrapWithContext(errors.ErrCodeCollection,
				"unparsable top row", nil, map[string]any{"row": line})
		}

		pid, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing top pid", err)
		}
		ni, err := strconv.Atoi(fields[3])
		if err != nil {
			// real-time processes report "rt"; they are not renice targets
			continue
		}
		cpu, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing top cpu", err)
		}
		mem, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing top mem", err)
		}

		samples = append(samples, snapshot.ProcessSample{
			PID:      int32(pid),
			User:     fields[1],
			Niceness: ni,
			CPU:      cpu,
			Memory:   mem,
			Command:  strings.Join(fields[11:], " "),
		})
	}
	return samples, nil
}

// parseOwners parses `ps axo pid,user:20` into a pid-to-owner map.
func parseOwners(out string) (map[int32]string, error) {
	owners := make(map[int32]string)
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.WrapWithContext(errors.ErrCodeCollection,
				"unparsable ps row", nil, map[string]any{"row": line})
		}
		pid, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing ps pid", err)
		}
		owners[int32(pid)] = fields[1]
	}
	return owners, nil
}

// parseTable parses `ps axo pid,user:20,ni,pcpu,pmem,comm` into the full
// process table.
func parseTable(out string) ([]snapshot.ProcessSample, error) {
	var samples []snapshot.ProcessSample
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, errors.WrapWithContext(errors.ErrCodeCollection,
				"unparsable ps row", nil, map[string]any{"row": line})
		}

		pid, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing ps pid", err)
		}
		ni, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		cpu, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing ps cpu", err)
		}
		mem, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCollection, "parsing ps mem", err)
		}

		samples = append(samples, snapshot.ProcessSample{
			PID:      int32(pid),
			User:     fields[1],
			Niceness: ni,
			CPU:      cpu,
			Memory:   mem,
			Command:  strings.Join(fields[5:], " "),
		})
	}
	return samples, nil
}
