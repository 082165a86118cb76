// Package config provides centralized configuration management for the lead
// exporter. It handles loading configuration from multiple sources, validation,
// and path resolution relative to the project root.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (ilg.yaml or config/ilg.yaml under the root)
//	3. Default values (lowest priority)
//
// A .env file in the project root is applied to the process environment
// before step 1; variables that are already set are never overridden.
//
// # Environment Variables
//
// All environment variables follow the pattern ILG_<SECTION>_<FIELD>:
//
//	ILG_PATHS_ROOT=/srv/ilg
//	ILG_PATHS_DATABASE_FILE=db/ilg.db
//	ILG_EXPORT_FORMAT=xlsx
//	ILG_LOGGING_LEVEL=debug
//	ILG_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/ilg.prom
//
// # Path Management
//
// Paths resolves every configured location against the project root:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	db := paths.DatabaseFile             // <root>/db/ilg.db
//	out := paths.GetExportPath("x.csv")  // <root>/exports/x.csv
package config
