package config

// Application constants for the lead exporter
const (
	AppName    = "ilg-export-leads"
	AppVersion = "1.0.0"

	// File Paths (relative to the project root)
	DefaultDatabaseFile = "db/ilg.db"
	DefaultExportsDir   = "exports"
	DefaultLogsDir      = "logs"

	// Export naming: leads[_<category>]_20060102_150405.csv
	DefaultFilePrefix      = "leads"
	DefaultTimestampLayout = "20060102_150405"

	// Export formats
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	// File permissions
	DirPermissions  = 0755
	FilePermissions = 0644
)
