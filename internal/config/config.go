package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. BUGTREE_SERVER_PORT for
// server.port.
const EnvPrefix = "BUGTREE"

// LocalFile is the per-project config file looked up in the working directory.
const LocalFile = ".bugtree.yaml"

// Config represents the complete bugtree configuration
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
}

// AnalysisConfig controls what gets analyzed and how findings are grouped
type AnalysisConfig struct {
	// GroupBy is a preset name ("package") or an explicit list ("package,category,type")
	GroupBy string `mapstructure:"group_by"`
	// Analyzers restricts the bug patterns run; empty runs all of them
	Analyzers []string `mapstructure:"analyzers"`
	// Patterns are go/packages patterns relative to the module root
	Patterns []string `mapstructure:"patterns"`
	// IncludeTests analyzes _test.go files too
	IncludeTests bool `mapstructure:"include_tests"`
	// Filter keeps only packages whose import path has this prefix
	Filter string `mapstructure:"filter"`
	// MinPriority drops findings below high, normal or low; empty keeps all
	MinPriority string `mapstructure:"min_priority"`
}

// LoggingConfig controls the JSONL run log
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// ServerConfig controls the HTTP tree view
type ServerConfig struct {
	Port        int  `mapstructure:"port"`
	OpenBrowser bool `mapstructure:"open_browser"`
}

// StoreConfig controls run persistence
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			GroupBy:   string(bug.ByCategory),
			Analyzers: []string{},
			Patterns:  []string{"./..."},
		},
		Logging: LoggingConfig{
			File:  logging.DefaultFile,
			Level: "info",
		},
		Server: ServerConfig{
			Port:        8080,
			OpenBrowser: true,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(DataDir(), "runs.db"),
		},
	}
}

// SetDefaults registers every default value with v so environment overrides
// apply to keys that no config file mentions.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("analysis.group_by", defaults.Analysis.GroupBy)
	v.SetDefault("analysis.analyzers", defaults.Analysis.Analyzers)
	v.SetDefault("analysis.patterns", defaults.Analysis.Patterns)
	v.SetDefault("analysis.include_tests", defaults.Analysis.IncludeTests)
	v.SetDefault("analysis.filter", defaults.Analysis.Filter)
	v.SetDefault("analysis.min_priority", defaults.Analysis.MinPriority)

	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.open_browser", defaults.Server.OpenBrowser)

	v.SetDefault("store.enabled", defaults.Store.Enabled)
	v.SetDefault("store.path", defaults.Store.Path)
}

// New returns a viper instance with defaults, environment overrides and the
// config file registered. An empty file means: .bugtree.yaml in the working
// directory, then config.yaml in ConfigDir.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigType("yaml")
	if file == "" {
		file = findConfigFile()
	}
	if file != "" {
		v.SetConfigFile(file)
	}

	v.SetEnvPrefix(EnvPrefix)
	// BUGTREE_ANALYSIS_GROUP_BY for analysis.group_by
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads the config file registered on v, if any.
func Read(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// Unmarshal decodes v into a Config and validates it.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Load reads file (or the default locations when empty), applies environment
// overrides and validates the result.
func Load(file string) (*Config, error) {
	v := New(file)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Unmarshal(v)
}

// GroupByLevels parses GroupBy into grouping levels.
func (a *AnalysisConfig) GroupByLevels() ([]bug.GroupBy, error) {
	return bug.ParseGroupBy(a.GroupBy)
}

// Priority parses MinPriority. Zero means no threshold.
func (a *AnalysisConfig) Priority() (bug.Priority, error) {
	if strings.TrimSpace(a.MinPriority) == "" {
		return 0, nil
	}
	return bug.ParsePriority(a.MinPriority)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bugtree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bugtree"
	}
	return filepath.Join(home, ".config", "bugtree")
}

// DataDir returns the directory holding the run store
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "bugtree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bugtree"
	}
	return filepath.Join(home, ".local", "share", "bugtree")
}

func findConfigFile() string {
	for _, candidate := range []string{LocalFile, filepath.Join(ConfigDir(), "config.yaml")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
