// Package cli implements the command-line interface for fairshared.
//
// # Commands
//
// run - run the governor loop in the foreground:
//
//	fairshared run [--config FILE]
//
// start / stop / restart - control the background daemon through the
// pidfile:
//
//	fairshared start
//	fairshared stop
//	fairshared restart
//
// snapshot - collect one snapshot and print it:
//
//	fairshared snapshot [--format yaml|json|table]
//
// plan - dry-run one policy cycle without touching the system:
//
//	fairshared plan [--format yaml|json|table]
//
// registrar - run the account registration service:
//
//	fairshared registrar [--listen :8420]
//
// # Global Flags
//
//	--config, -c   config file path (YAML)
//	--log-level    logging verbosity (debug, info, warn, error)
//
// # Exit Codes
//
//	0  success
//	1  any failure (bad configuration, collection error, daemon control)
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/fairshared/fairshared/pkg/cli.version=1.0.0'"
package cli
