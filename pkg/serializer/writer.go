package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/fairshared/fairshared/pkg/policy"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
	// FormatTable outputs data in human-readable table format
	FormatTable Format = "table"
)

func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// Writer renders snapshots and action plans in the configured format.
type Writer struct {
	format Format
	output io.Writer
}

// NewWriter creates a Writer with the specified format and destination.
// If output is nil, os.Stdout is used.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	return &Writer{format: format, output: output}
}

// Serialize outputs the given value in the configured format. The table
// format understands snapshots and action plans and falls back to YAML
// for anything else.
func (w *Writer) Serialize(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		return enc.Close()
	case FormatTable:
		return w.serializeTable(v)
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

func (w *Writer) serializeTable(v any) error {
	switch t := v.(type) {
	case *snapshot.Snapshot:
		return w.snapshotTable(t)
	case []policy.Action:
		return w.planTable(t)
	default:
		// no table shape for this value
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		return enc.Close()
	}
}

func (w *Writer) snapshotTable(s *snapshot.Snapshot) error {
	fmt.Fprintf(w.output, "taken: %s\n", s.Taken.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w.output, "load:  %.2f %.2f %.2f\n\n", s.Load.Load1, s.Load.Load5, s.Load.Load15)

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUSER\tNI\t%CPU\t%MEM\tCOMMAND")
	for _, p := range s.Managed {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.1f\t%s\n",
			p.PID, p.User, p.Niceness, p.CPU, p.Memory, p.Command)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.DiskUsage) == 0 {
		return nil
	}

	fmt.Fprintln(w.output)
	tw = tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tDISK_KIB")
	for _, u := range s.Users {
		if kib, ok := s.DiskUsage[u]; ok {
			fmt.Fprintf(tw, "%s\t%d\n", u, kib)
		}
	}
	return tw.Flush()
}

func (w *Writer) planTable(actions []policy.Action) error {
	if len(actions) == 0 {
		fmt.Fprintln(w.output, "no actions")
		return nil
	}

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tTARGET\tPRIORITY")
	for _, a := range actions {
		target := a.User
		if a.Kind != policy.ActionReniceUser {
			target = fmt.Sprintf("%d", a.PID)
		}
		priority := "-"
		if a.Kind != policy.ActionKill {
			priority = fmt.Sprintf("%d", a.Priority)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Kind, target, priority)
	}
	return tw.Flush()
}
