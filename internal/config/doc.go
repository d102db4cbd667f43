// Package config provides configuration for the FAF tonnage pipeline.
//
// # Configuration Sources
//
// Values are layered in this order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. An optional YAML file (config.yaml, configs/config.yaml, or an explicit path)
//	3. Environment variables prefixed with FAF_
//	4. Command line flags, applied by the caller
//
// # Environment Variables
//
//	FAF_PATHS_BASE_DIR=/srv/faf
//	FAF_PIPELINE_YEAR=2019
//	FAF_PIPELINE_LIMIT=10
//	FAF_LOGGING_LEVEL=debug
//	FAF_TELEMETRY_ENABLE_TRACING=true
//
// # Path Management
//
// Every input and output path hangs off a single base directory. When none is
// configured the base is the parent of the working directory, so running from
// <repo>/source reads <repo>/data.
//
//	paths := config.NewPaths(cfg.Paths)
//	meta := paths.MetadataFile
package config
