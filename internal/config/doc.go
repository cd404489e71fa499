// Package config loads, parses and validates service configuration from
// defaults, an optional YAML file and KANBAN_-prefixed environment variables.
package config
