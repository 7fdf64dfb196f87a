package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	AI        AIConfig        `toml:"ai"`
	Providers ProvidersConfig `toml:"providers"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Storage   StorageConfig   `toml:"storage"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Events    EventsConfig    `toml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// AIConfig holds text generation settings. Preference orders the
// providers tried for each prompt; providers without a key are skipped.
type AIConfig struct {
	Preference  []string    `toml:"preference"`
	ScriptModel string      `toml:"script_model"`
	Anthropic   ModelConfig `toml:"anthropic"`
	OpenAI      ModelConfig `toml:"openai"`
	Gemini      ModelConfig `toml:"gemini"`
}

// ModelConfig holds one generation provider's credentials.
type ModelConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ProvidersConfig holds content provider credentials and call limits.
type ProvidersConfig struct {
	GNews       string `toml:"gnews"`
	NewsAPI     string `toml:"newsapi"`
	Guardian    string `toml:"guardian"`
	NYT         string `toml:"nyt"`
	TMDB        string `toml:"tmdb"`
	OpenWeather string `toml:"openweather"`

	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RunTimeoutSeconds     int     `toml:"run_timeout_seconds"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`

	// EnrichLocal fetches each ranked local headline's page to fill its body.
	EnrichLocal bool `toml:"enrich_local"`
}

// PipelineConfig holds filtering and classification settings.
type PipelineConfig struct {
	MaxAgeHours       int    `toml:"max_age_hours"`
	MinChars          int    `toml:"min_chars"`
	ClassifyBatchSize int    `toml:"classify_batch_size"`
	DefaultZip        string `toml:"default_zip"`
}

// StorageConfig selects where records are kept.
type StorageConfig struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	DataDir  string `toml:"data_dir"`
}

// SchedulerConfig holds schedule engine settings.
type SchedulerConfig struct {
	Timezone            string `toml:"timezone"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	RunTimeoutMinutes   int    `toml:"run_timeout_minutes"`
}

// EventsConfig holds the run-completion publisher settings. An empty
// NATSURL disables publishing.
type EventsConfig struct {
	NATSURL string `toml:"nats_url"`
	Subject string `toml:"subject"`
}

var generationProviders = []string{"gemini", "openai", "anthropic"}

const defaultConfigContent = `[server]
port = 8080

[ai]
preference = ["gemini", "openai", "anthropic"]
script_model = ""                 # preferred provider for scripts, e.g. "anthropic"

[ai.anthropic]
api_key = ""                      # or ANTHROPIC_API_KEY
model = "claude-haiku-4-5"

[ai.openai]
api_key = ""                      # or OPENAI_API_KEY
model = "gpt-4o-mini"

[ai.gemini]
api_key = ""                      # or GEMINI_API_KEY
model = "gemini-2.0-flash"

[providers]
gnews = ""                        # or GNEWS_API_KEY
newsapi = ""                      # or NEWSAPI_KEY
guardian = ""                     # or GUARDIAN_API_KEY
nyt = ""                          # or NYT_API_KEY
tmdb = ""                         # or TMDB_API_KEY
openweather = ""                  # or OPENWEATHER_API_KEY
request_timeout_seconds = 15
run_timeout_seconds = 60
requests_per_second = 2.0
enrich_local = false              # fetch local article pages for body text

[pipeline]
max_age_hours = 24
min_chars = 50
classify_batch_size = 10
default_zip = ""

[storage]
backend = "sqlite"                # "sqlite" or "redis"
redis_url = ""                    # or REDIS_URL
data_dir = "./data"

[scheduler]
timezone = "America/New_York"
poll_interval_seconds = 60
run_timeout_minutes = 10

[events]
nats_url = ""                     # or NATS_URL; empty disables events
subject = "daybrief.briefings"
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Explicit zeros are errors, not requests for the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("providers", "request_timeout_seconds") {
		if err := checkRequestTimeout(cfg.Providers.RequestTimeoutSeconds); err != nil {
			return err
		}
	}
	if md.IsDefined("providers", "run_timeout_seconds") {
		if err := checkRunTimeout(cfg.Providers.RunTimeoutSeconds); err != nil {
			return err
		}
	}
	if md.IsDefined("pipeline", "max_age_hours") && cfg.Pipeline.MaxAgeHours < 1 {
		return fmt.Errorf("invalid pipeline.max_age_hours %d: must be >= 1", cfg.Pipeline.MaxAgeHours)
	}
	if md.IsDefined("pipeline", "classify_batch_size") && cfg.Pipeline.ClassifyBatchSize < 1 {
		return fmt.Errorf("invalid pipeline.classify_batch_size %d: must be >= 1", cfg.Pipeline.ClassifyBatchSize)
	}
	if md.IsDefined("scheduler", "poll_interval_seconds") {
		if err := checkPollInterval(cfg.Scheduler.PollIntervalSeconds); err != nil {
			return err
		}
	}
	if md.IsDefined("scheduler", "run_timeout_minutes") {
		if err := checkScheduleTimeout(cfg.Scheduler.RunTimeoutMinutes); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.AI.Preference) == 0 {
		cfg.AI.Preference = slices.Clone(generationProviders)
	}
	if cfg.AI.Anthropic.Model == "" {
		cfg.AI.Anthropic.Model = "claude-haiku-4-5"
	}
	if cfg.AI.OpenAI.Model == "" {
		cfg.AI.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.AI.Gemini.Model == "" {
		cfg.AI.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Providers.RequestTimeoutSeconds == 0 {
		cfg.Providers.RequestTimeoutSeconds = 15
	}
	if cfg.Providers.RunTimeoutSeconds == 0 {
		cfg.Providers.RunTimeoutSeconds = 60
	}
	if cfg.Providers.RequestsPerSecond == 0 {
		cfg.Providers.RequestsPerSecond = 2
	}
	if cfg.Pipeline.MaxAgeHours == 0 {
		cfg.Pipeline.MaxAgeHours = 24
	}
	if cfg.Pipeline.MinChars == 0 {
		cfg.Pipeline.MinChars = 50
	}
	if cfg.Pipeline.ClassifyBatchSize == 0 {
		cfg.Pipeline.ClassifyBatchSize = 10
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "America/New_York"
	}
	if cfg.Scheduler.PollIntervalSeconds == 0 {
		cfg.Scheduler.PollIntervalSeconds = 60
	}
	if cfg.Scheduler.RunTimeoutMinutes == 0 {
		cfg.Scheduler.RunTimeoutMinutes = 10
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "daybrief.briefings"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"ANTHROPIC_API_KEY", &cfg.AI.Anthropic.APIKey},
		{"OPENAI_API_KEY", &cfg.AI.OpenAI.APIKey},
		{"GEMINI_API_KEY", &cfg.AI.Gemini.APIKey},
		{"GNEWS_API_KEY", &cfg.Providers.GNews},
		{"NEWSAPI_KEY", &cfg.Providers.NewsAPI},
		{"GUARDIAN_API_KEY", &cfg.Providers.Guardian},
		{"NYT_API_KEY", &cfg.Providers.NYT},
		{"TMDB_API_KEY", &cfg.Providers.TMDB},
		{"OPENWEATHER_API_KEY", &cfg.Providers.OpenWeather},
		{"REDIS_URL", &cfg.Storage.RedisURL},
		{"NATS_URL", &cfg.Events.NATSURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	for _, p := range cfg.AI.Preference {
		if !slices.Contains(generationProviders, p) {
			return fmt.Errorf("invalid ai.preference entry %q: must be one of %v", p, generationProviders)
		}
	}
	if cfg.AI.ScriptModel != "" && !slices.Contains(generationProviders, cfg.AI.ScriptModel) {
		return fmt.Errorf("invalid ai.script_model %q: must be one of %v", cfg.AI.ScriptModel, generationProviders)
	}

	if err := checkRequestTimeout(cfg.Providers.RequestTimeoutSeconds); err != nil {
		return err
	}
	if err := checkRunTimeout(cfg.Providers.RunTimeoutSeconds); err != nil {
		return err
	}
	if cfg.Providers.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid providers.requests_per_second %v: must be >= 0", cfg.Providers.RequestsPerSecond)
	}

	if cfg.Pipeline.MinChars < 0 {
		return fmt.Errorf("invalid pipeline.min_chars %d: must be >= 0", cfg.Pipeline.MinChars)
	}

	switch cfg.Storage.Backend {
	case "sqlite":
	case "redis":
		if cfg.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required when storage.backend is \"redis\"")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q: must be \"sqlite\" or \"redis\"", cfg.Storage.Backend)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid scheduler.timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if err := checkPollInterval(cfg.Scheduler.PollIntervalSeconds); err != nil {
		return err
	}
	if err := checkScheduleTimeout(cfg.Scheduler.RunTimeoutMinutes); err != nil {
		return err
	}

	if cfg.AI.Anthropic.APIKey == "" && cfg.AI.OpenAI.APIKey == "" && cfg.AI.Gemini.APIKey == "" {
		slog.Warn("no generation API key configured: classification and scripts are disabled")
	}

	return nil
}

func checkRequestTimeout(s int) error {
	if s < 10 || s > 20 {
		return fmt.Errorf("invalid providers.request_timeout_seconds %d: must be between 10 and 20", s)
	}
	return nil
}

func checkRunTimeout(s int) error {
	if s < 1 || s > 60 {
		return fmt.Errorf("invalid providers.run_timeout_seconds %d: must be between 1 and 60", s)
	}
	return nil
}

func checkPollInterval(s int) error {
	if s < 1 || s > 120 {
		return fmt.Errorf("invalid scheduler.poll_interval_seconds %d: must be between 1 and 120", s)
	}
	return nil
}

func checkScheduleTimeout(m int) error {
	if m < 1 || m > 60 {
		return fmt.Errorf("invalid scheduler.run_timeout_minutes %d: must be between 1 and 60", m)
	}
	return nil
}

// Location returns the scheduler time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RequestTimeout returns the per-provider call deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Providers.RequestTimeoutSeconds) * time.Second
}

// RunTimeout returns the whole aggregation deadline.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Providers.RunTimeoutSeconds) * time.Second
}

// PollInterval returns how often the scheduler checks for due schedules.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scheduler.PollIntervalSeconds) * time.Second
}

// ScheduleRunTimeout returns the deadline for one scheduled briefing.
func (c *Config) ScheduleRunTimeout() time.Duration {
	return time.Duration(c.Scheduler.RunTimeoutMinutes) * time.Minute
}
