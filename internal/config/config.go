package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load (ILG_*).
const EnvPrefix = "ILG"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative entries are resolved against Root.
type PathsConfig struct {
	Root         string `yaml:"root" envconfig:"ROOT"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE"`
	ExportsDir   string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// ExportConfig controls how lead files are named and serialized
type ExportConfig struct {
	FilePrefix      string `yaml:"file_prefix" envconfig:"FILE_PREFIX"`
	TimestampLayout string `yaml:"timestamp_layout" envconfig:"TIMESTAMP_LAYOUT"`
	Format          string `yaml:"format" envconfig:"FORMAT"`
	UseCRLF         bool   `yaml:"use_crlf" envconfig:"USE_CRLF"`
	BOM             bool   `yaml:"bom" envconfig:"BOM"`
	Streaming       bool   `yaml:"streaming" envconfig:"STREAMING"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Tracing       bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// LoadOptions overrides the sources Load consults.
type LoadOptions struct {
	// Root takes precedence over every other source for Paths.Root.
	Root string
	// ConfigFile is read instead of searching the root for ilg.yaml.
	ConfigFile string
}

// Load loads configuration from the environment and the config file found
// under the project root.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions loads configuration with precedence
// environment > config file > Default(). The .env file in the project root
// is applied to the environment first without overriding set variables.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	cfg := Default()

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	if err := loadDotEnv(root); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = getConfigFilePath(root)
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// envconfig leaves fields untouched when their variable is unset, so
	// values from Default() and the file survive.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if opts.Root != "" {
		cfg.Paths.Root = root
	}
	if cfg.Paths.Root == "" {
		cfg.Paths.Root = root
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolveRoot picks the project root from the explicit option, ILG_PATHS_ROOT,
// or the working directory, in that order.
func resolveRoot(explicit string) (string, error) {
	root := explicit
	if root == "" {
		root = os.Getenv(EnvPrefix + "_PATHS_ROOT")
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(root)
}

func loadDotEnv(root string) error {
	envFile := filepath.Join(root, ".env")
	if !FileExists(envFile) {
		return nil
	}
	return godotenv.Load(envFile)
}

// loadFromFile overlays YAML configuration onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found under root
func getConfigFilePath(root string) string {
	locations := []string{
		"ilg.yaml",
		"config/ilg.yaml",
	}

	for _, location := range locations {
		path := filepath.Join(root, location)
		if FileExists(path) {
			return path
		}
	}

	return ""
}

// resolvePaths makes Root absolute and anchors the log and metrics files to
// it. The PathsConfig entries stay as configured and are joined onto Root by
// GetPaths.
func (c *Config) resolvePaths() error {
	root, err := filepath.Abs(c.Paths.Root)
	if err != nil {
		return err
	}
	c.Paths.Root = root
	c.Logging.FilePath = resolveUnder(root, c.Logging.FilePath)
	c.Telemetry.MetricsFile = resolveUnder(root, c.Telemetry.MetricsFile)
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stderr", "stdout":
	case "file", "both":
		if c.Logging.FilePath == "" {
			return fmt.Errorf("log file path is required for output %q", c.Logging.Output)
		}
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Paths.DatabaseFile == "" {
		return fmt.Errorf("database file must be specified")
	}
	if c.Paths.ExportsDir == "" {
		return fmt.Errorf("exports directory must be specified")
	}

	if c.Export.FilePrefix == "" {
		return fmt.Errorf("export file prefix must not be empty")
	}
	if c.Export.TimestampLayout == "" {
		return fmt.Errorf("export timestamp layout must not be empty")
	}
	switch strings.ToLower(c.Export.Format) {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("invalid export format: %q", c.Export.Format)
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	return nil
}

// DefaultForRoot returns Default() anchored at the project root that
// LoadWithOptions would pick for explicit. It is the fallback when loading
// fails, so it never returns an error; an unresolvable root is left empty
// and later resolves to the working directory.
func DefaultForRoot(explicit string) *Config {
	cfg := Default()
	root, err := resolveRoot(explicit)
	if err != nil {
		return cfg
	}
	cfg.Paths.Root = root
	_ = cfg.resolvePaths()
	return cfg
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stderr",
			FilePath: filepath.Join(DefaultLogsDir, "export-leads.log"),
		},
		Paths: PathsConfig{
			DatabaseFile: DefaultDatabaseFile,
			ExportsDir:   DefaultExportsDir,
			LogsDir:      DefaultLogsDir,
		},
		Export: ExportConfig{
			FilePrefix:      DefaultFilePrefix,
			TimestampLayout: DefaultTimestampLayout,
			Format:          FormatCSV,
			UseCRLF:         true,
			BOM:             false,
			Streaming:       true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			Tracing:       false,
			TraceExporter: "stdout",
			Metrics:       false,
		},
	}
}
