// Package config provides layered configuration for the orchestration
// service: built-in defaults, system-wide file, user file, and process
// environment, each layer overriding the keys it defines.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/types"
)

// Default configuration file locations.
const (
	SystemConfigPath = "/etc/aicore/config.yaml"
	UserConfigFile   = ".config/aicore/config.yaml"
)

// Config represents the complete service configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limiting"`
	Security  SecurityConfig  `yaml:"security"`
	Features  FeatureConfig   `yaml:"features"`
	Providers ProvidersConfig `yaml:"ai_providers"`
}

// ServiceConfig contains dispatcher settings.
type ServiceConfig struct {
	Enabled        bool `yaml:"enabled" env:"AI_SERVICE_ENABLED"`
	ThreadPoolSize int  `yaml:"thread_pool_size" env:"AI_THREAD_POOL_SIZE"`
	DefaultTimeout int  `yaml:"default_timeout" env:"AI_DEFAULT_TIMEOUT"`
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	Enabled    bool  `yaml:"enabled" env:"AI_CACHE_ENABLED"`
	MaxEntries int   `yaml:"max_entries" env:"AI_CACHE_MAX_ENTRIES"`
	DefaultTTL int64 `yaml:"default_ttl" env:"AI_CACHE_DEFAULT_TTL"` // seconds
}

// RateLimitConfig contains admission control settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"AI_RATE_LIMIT_ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"AI_RATE_LIMIT_RPM"`
}

// SecurityConfig contains data handling and logging settings.
type SecurityConfig struct {
	SanitizeData bool   `yaml:"sanitize_data" env:"AI_SANITIZE_DATA"`
	AuditEnabled bool   `yaml:"audit_enabled" env:"AI_AUDIT_ENABLED"`
	LogLevel     string `yaml:"log_level" env:"AI_LOG_LEVEL"`
}

// FeatureConfig enables or disables individual task types.
type FeatureConfig struct {
	VulnerabilityAnalysis bool `yaml:"vulnerability_analysis" env:"AI_VULN_ANALYSIS_ENABLED"`
	ThreatModeling        bool `yaml:"threat_modeling" env:"AI_THREAT_MODELING_ENABLED"`
	ScanOptimization      bool `yaml:"scan_optimization" env:"AI_SCAN_OPTIMIZATION_ENABLED"`
	ReportGeneration      bool `yaml:"report_generation" env:"AI_REPORT_GENERATION_ENABLED"`
	ExploitSuggestion     bool `yaml:"exploit_suggestion" env:"AI_EXPLOIT_SUGGESTION_ENABLED"`
}

// TaskTypeEnabled reports whether a task type is switched on.
func (f FeatureConfig) TaskTypeEnabled(t types.TaskType) bool {
	switch t {
	case types.TaskVulnerabilityAnalysis:
		return f.VulnerabilityAnalysis
	case types.TaskThreatModeling:
		return f.ThreatModeling
	case types.TaskScanOptimization:
		return f.ScanOptimization
	case types.TaskReportGeneration:
		return f.ReportGeneration
	case types.TaskExploitSuggestion:
		return f.ExploitSuggestion
	default:
		return false
	}
}

// ProvidersConfig holds per-backend connection settings.
type ProvidersConfig struct {
	OpenAI ProviderEntry `yaml:"openai" envPrefix:"OPENAI_"`
	Claude ProviderEntry `yaml:"claude" envPrefix:"CLAUDE_"`
	Local  ProviderEntry `yaml:"local" envPrefix:"LOCAL_AI_"`
}

// ProviderEntry holds the file/env keys for one backend.
type ProviderEntry struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	Model    string `yaml:"model" env:"MODEL"`
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	Timeout  int    `yaml:"timeout" env:"TIMEOUT"` // seconds
}

// Defaults returns the built-in configuration: the layer every file and
// environment override is applied on top of. Exploit suggestion is off by
// default.
func Defaults() Config {
	return Config{
		Service: ServiceConfig{
			Enabled:        true,
			ThreadPoolSize: 8,
			DefaultTimeout: 30,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1000,
			DefaultTTL: 3600,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
		},
		Security: SecurityConfig{
			SanitizeData: true,
			AuditEnabled: true,
			LogLevel:     "info",
		},
		Features: FeatureConfig{
			VulnerabilityAnalysis: true,
			ThreatModeling:        true,
			ScanOptimization:      true,
			ReportGeneration:      true,
			ExploitSuggestion:     false,
		},
	}
}

// Load builds the effective configuration: defaults, then each file in
// order, then environment variables. Missing files are skipped silently;
// malformed files fail the load.
func Load(paths ...string) (*Config, error) {
	cfg := Defaults()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := mergeFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefaultPaths loads the standard layering: system file, then the user
// file under the home directory, then environment.
func LoadDefaultPaths() (*Config, error) {
	paths := []string{SystemConfigPath}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home+"/"+UserConfigFile)
	}
	return Load(paths...)
}

// mergeFile unmarshals a YAML file over the current config. Keys absent
// from the file keep their current values.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config. Only variables
// that are actually set override; boolean variables accept true/yes/1
// case-insensitively.
func ApplyEnv(cfg *Config) error {
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(true): parseBool,
		},
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	// The legacy credential variable takes precedence for the Claude
	// backend.
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Providers.Claude.APIKey = key
	}
	return nil
}

// parseBool accepts true/yes/1 (case-insensitive) as truthy; anything else
// is false.
func parseBool(v string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true, nil
	default:
		return false, nil
	}
}

// BackendConfigs converts the enabled provider entries into backend
// configurations, filling per-kind defaults for unset keys.
func (c *Config) BackendConfigs() []backend.Config {
	entries := []struct {
		kind  types.BackendKind
		entry ProviderEntry
	}{
		{types.BackendOpenAI, c.Providers.OpenAI},
		{types.BackendClaude, c.Providers.Claude},
		{types.BackendLocal, c.Providers.Local},
	}

	var out []backend.Config
	for _, e := range entries {
		if !e.entry.Enabled {
			continue
		}

		bc := backend.NewConfig(e.kind, e.entry.APIKey)
		if e.entry.Model != "" {
			bc.Model = e.entry.Model
		}
		if e.entry.Endpoint != "" {
			bc.Endpoint = e.entry.Endpoint
		}
		if e.entry.Timeout > 0 {
			bc.Timeout = time.Duration(e.entry.Timeout) * time.Second
		} else if c.Service.DefaultTimeout > 0 {
			bc.Timeout = time.Duration(c.Service.DefaultTimeout) * time.Second
		}
		out = append(out, bc)
	}
	return out
}
