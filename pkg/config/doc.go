// Package config loads and validates the fairshared daemon configuration
// from YAML, the environment, and built-in defaults. All validation happens
// at startup: a malformed quota string or unknown scheduler name prevents
// the daemon from starting rather than surfacing at first use.
package config
