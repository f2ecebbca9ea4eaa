// Package serializer renders snapshots and action plans as JSON, YAML,
// or human-readable tables for the CLI inspection commands.
package serializer
