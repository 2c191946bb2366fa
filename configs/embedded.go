// Package configs provides the default configuration compiled into the binary.
package configs

import "embed"

// DefaultFile is the name of the embedded default configuration
const DefaultFile = "default.yaml"

// EmbeddedConfigs exposes embedded configuration files for read-only access.
//
//go:embed *.yaml
var EmbeddedConfigs embed.FS
