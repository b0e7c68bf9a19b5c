// Package config assembles the tagexpand configuration record from command
// line flags, TAGEXPAND_* environment variables and an optional JSON, YAML
// or TOML config file, in that order of precedence.
package config
