package model

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the host serving every benchmark endpoint
const DefaultBaseURL = "https://asia-northeast1-ljpjt-412809.cloudfunctions.net/"

// Config holds every setting of a run. It is built once by the CLI and
// passed by value or pointer to each component; nothing mutates it afterwards.
type Config struct {
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	System       SystemConfig       `yaml:"system" mapstructure:"system"`
	Settings     SettingsConfig     `yaml:"settings" mapstructure:"settings"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Poll         PollConfig         `yaml:"poll" mapstructure:"poll"`
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Predictor    PredictorConfig    `yaml:"predictor" mapstructure:"predictor"`
}

// APIConfig locates the benchmark service
type APIConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// SystemConfig identifies the participating system
type SystemConfig struct {
	Team        string `yaml:"team" mapstructure:"team"`
	Affiliation string `yaml:"affiliation" mapstructure:"affiliation"`
	Name        string `yaml:"name" mapstructure:"name"`
}

// SettingsConfig selects the test set and run mode
type SettingsConfig struct {
	TestData string `yaml:"test_data" mapstructure:"test_data"`
	Mode     string `yaml:"mode" mapstructure:"mode"`
}

// HTTPConfig applies to every call made to the benchmark service
type HTTPConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy      string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RateLimitingConfig bounds outbound request rate per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// PollConfig drives the token validation wait
type PollConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PathsConfig roots the local dataset, submissions and evaluation directories
type PathsConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// CacheConfig controls reuse of downloaded test sets across runs
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// StorageConfig configures the optional S3 mirror of stored results
type StorageConfig struct {
	S3Bucket     string `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Region     string `yaml:"s3_region" mapstructure:"s3_region"`
	S3Prefix     string `yaml:"s3_prefix" mapstructure:"s3_prefix"`
	AWSAccessKey string `yaml:"aws_access_key,omitempty" mapstructure:"aws_access_key"`
	AWSSecretKey string `yaml:"aws_secret_key,omitempty" mapstructure:"aws_secret_key"`
}

// PredictorConfig selects the prediction backend
type PredictorConfig struct {
	Kind    string `yaml:"kind" mapstructure:"kind"` // random, openai
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
	Seed    uint64 `yaml:"seed" mapstructure:"seed"` // 0 picks a random seed
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "tortbench-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".tortbench", "cache")
	}

	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
		},
		Settings: SettingsConfig{
			Mode: "practice",
		},
		HTTP: HTTPConfig{
			ConnectTimeout: 3 * time.Second,
			ReadTimeout:    7500 * time.Millisecond,
			UserAgent:      "tortbench/0.3",
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Poll: PollConfig{
			Interval: 10 * time.Second,
			Timeout:  600 * time.Second,
		},
		Paths: PathsConfig{
			Root: ".",
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     cacheDir,
			TTL:     24 * time.Hour,
		},
		Predictor: PredictorConfig{
			Kind:    "random",
			Model:   "gpt-4o-mini",
			Workers: 4,
		},
	}
}

// Validate reports the first setting a run cannot proceed without
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return errors.New("api.base_url is required")
	case c.API.Key == "":
		return errors.New("api.key is required (set TORTBENCH_API_KEY)")
	case c.System.Team == "":
		return errors.New("system.team is required")
	case c.Settings.TestData == "":
		return errors.New("settings.test_data is required")
	case c.Settings.Mode == "":
		return errors.New("settings.mode is required")
	case c.Poll.Interval <= 0:
		return errors.New("poll.interval must be positive")
	case c.Poll.Timeout < 0:
		return errors.New("poll.timeout must not be negative")
	}
	return nil
}
