package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Wiki    WikiConfig    `yaml:"wiki" mapstructure:"wiki"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Cleanup CleanupConfig `yaml:"cleanup" mapstructure:"cleanup"`
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig locates the canonical store document.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// WikiConfig locates the cached reference corpus.
type WikiConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Glob         string `yaml:"glob" mapstructure:"glob"`
	ParseWorkers int    `yaml:"parse_workers" mapstructure:"parse_workers"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// ResolveConfig tunes name resolution.
type ResolveConfig struct {
	SkillThreshold float64 `yaml:"skill_threshold" mapstructure:"skill_threshold"`
	JobThreshold   float64 `yaml:"job_threshold" mapstructure:"job_threshold"`
	// OverridesPath replaces the embedded override table when set.
	OverridesPath string `yaml:"overrides_path" mapstructure:"overrides_path"`
}

// ExtractConfig tunes the field extractors.
type ExtractConfig struct {
	RankCount int `yaml:"rank_count" mapstructure:"rank_count"`
}

// CleanupConfig configures the placeholder cleanup pass.
type CleanupConfig struct {
	Placeholder string `yaml:"placeholder" mapstructure:"placeholder"`
}

// JournalConfig selects the run journal backend.
type JournalConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// FetchConfig configures the wiki crawler and the archive fetcher.
type FetchConfig struct {
	UserAgent          string   `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs        int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries         int      `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSec     float64  `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxPages           int      `yaml:"max_pages" mapstructure:"max_pages"`
	AjaxDir            string   `yaml:"ajax_dir" mapstructure:"ajax_dir"`
	SnapshotTimestamps []string `yaml:"snapshot_timestamps" mapstructure:"snapshot_timestamps"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// snapshotTimestamps are the archive captures known to hold calculator
// payloads, best first.
var snapshotTimestamps = []string{
	"20170504110444",
	"20170429184609",
	"20170429185928",
	"20161221164956",
	"20161119113620",
	"20160924030950",
	"20160831035703",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("calcdata")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CALCDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "data.json")
	v.SetDefault("wiki.dir", "wiki_cache")
	v.SetDefault("wiki.glob", "site_pages_*.html.html")
	v.SetDefault("wiki.parse_workers", 8)
	v.SetDefault("wiki.base_url", "https://rondayan42.github.io/requiem-wiki/")
	v.SetDefault("resolve.skill_threshold", 0.8)
	v.SetDefault("resolve.job_threshold", 0.9)
	v.SetDefault("resolve.overrides_path", "")
	v.SetDefault("extract.rank_count", 5)
	v.SetDefault("cleanup.placeholder", "DNA Stats")
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.dsn", "calcdata.db")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; calcdata/1.0)")
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.requests_per_sec", 20)
	v.SetDefault("fetch.max_pages", 1200)
	v.SetDefault("fetch.ajax_dir", "ajax")
	v.SetDefault("fetch.snapshot_timestamps", snapshotTimestamps)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks value ranges that would otherwise surface as confusing
// pass results.
func (c *Config) Validate() error {
	var errs []string

	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if c.Resolve.SkillThreshold < 0 || c.Resolve.SkillThreshold > 1 {
		errs = append(errs, "resolve.skill_threshold must be between 0 and 1")
	}
	if c.Resolve.JobThreshold < 0 || c.Resolve.JobThreshold > 1 {
		errs = append(errs, "resolve.job_threshold must be between 0 and 1")
	}
	if c.Extract.RankCount < 1 {
		errs = append(errs, "extract.rank_count must be >= 1")
	}
	switch c.Journal.Driver {
	case "", "sqlite", "postgres", "none":
	default:
		errs = append(errs, "journal.driver must be one of sqlite, postgres, none")
	}
	if c.Journal.Driver == "postgres" && c.Journal.DSN == "" {
		errs = append(errs, "journal.dsn is required for postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
