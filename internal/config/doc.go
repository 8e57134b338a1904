// Package config loads feedline's configuration file.
//
// The file is YAML or TOML (picked by extension) and is decoded on top of
// Default, so a partial file only overrides what it names. Validate checks
// the result against an embedded CUE schema.
package config
