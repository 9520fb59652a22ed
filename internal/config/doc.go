// Package config loads worker settings from WORKER_* environment variables
// and an optional YAML file with viper, applies defaults, and validates the
// result with struct tags.
package config
