// Package config handles configuration loading for the storefront gateway.
//
// Configuration is loaded from a YAML file with ${VAR} environment variable
// expansion, or assembled directly from environment variables when no file
// is present. Missing credentials are never fatal: each one degrades its
// dependent feature (bot replies, completions, checkout, notifications)
// while the rest of the gateway keeps serving.
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  ttl: "30m"
//	  max_turns: 20
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
