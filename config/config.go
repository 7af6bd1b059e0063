package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Dexflow   DexflowConfig   `yaml:"dexflow"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Providers ProvidersConfig `yaml:"providers"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type DexflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ScannerConfig struct {
	Chain            string        `yaml:"chain"`
	Interval         time.Duration `yaml:"interval"`
	ErrorBackoff     time.Duration `yaml:"error_backoff"`
	Cooldown         time.Duration `yaml:"cooldown"`
	PreferredVenue   string        `yaml:"preferred_venue"`
	ParamsDir        string        `yaml:"params_dir"`
	ReportsDir       string        `yaml:"reports_dir"`
	AlertsDir        string        `yaml:"alerts_dir"`
	SweepEveryCycles int           `yaml:"sweep_every_cycles"`
}

type ProvidersConfig struct {
	Moralis     MoralisConfig     `yaml:"moralis"`
	Helius      HeliusConfig      `yaml:"helius"`
	DexScreener DexScreenerConfig `yaml:"dexscreener"`
	Timeout     time.Duration     `yaml:"timeout"`
	Retry       RetryConfig       `yaml:"retry"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

type MoralisConfig struct {
	APIKey       string `yaml:"api_key"`
	GatewayURL   string `yaml:"gateway_url"`
	DeepIndexURL string `yaml:"deep_index_url"`
	Network      string `yaml:"network"`
	FeedLimit    int    `yaml:"feed_limit"`
}

type HeliusConfig struct {
	APIKey string `yaml:"api_key"`
	RPCURL string `yaml:"rpc_url"`
}

// Enabled reports whether the optional enrichment provider is configured.
func (h HeliusConfig) Enabled() bool { return h.APIKey != "" }

type DexScreenerConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
	APIURL    string `yaml:"api_url"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type DashboardConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Address      string        `yaml:"address"`
	LogHistory   int           `yaml:"log_history"`
	AlertHistory int           `yaml:"alert_history"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads the application configuration, applies environment
// overrides for credentials and validates the result. Gate parameters are
// deliberately NOT part of this file; they live in their own hot-reloadable
// file under scanner.params_dir.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Dexflow: DexflowConfig{Name: "dexflow", Version: "dev"},
		Scanner: ScannerConfig{
			Chain:            "solana",
			Interval:         30 * time.Second,
			ErrorBackoff:     60 * time.Second,
			Cooldown:         60 * time.Second,
			PreferredVenue:   "PumpSwap",
			ParamsDir:        "chain_parameters",
			ReportsDir:       "scan_reports",
			AlertsDir:        "alerted_tokens",
			SweepEveryCycles: 100,
		},
		Providers: ProvidersConfig{
			Moralis: MoralisConfig{
				GatewayURL:   "https://solana-gateway.moralis.io",
				DeepIndexURL: "https://deep-index.moralis.io/api/v2.2",
				Network:      "mainnet",
				FeedLimit:    100,
			},
			Helius: HeliusConfig{
				RPCURL: "https://mainnet.helius-rpc.com",
			},
			DexScreener: DexScreenerConfig{
				BaseURL: "https://api.dexscreener.com/latest",
			},
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: 5,
				BaseDelay:   time.Second,
				MaxDelay:    time.Minute,
			},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 10,
				BurstSize:         20,
			},
		},
		Notifier: NotifierConfig{
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "Dexflow"},
			Prometheus: PrometheusConfig{Address: "0.0.0.0:2112"},
		},
		Dashboard: DashboardConfig{
			Address:      "127.0.0.1:8085",
			LogHistory:   200,
			AlertHistory: 50,
			ReadTimeout:  5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MORALIS_API_KEY"); v != "" {
		cfg.Providers.Moralis.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("HELIUS_API_KEY"); v != "" {
		cfg.Providers.Helius.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("TG_BOT_TOKEN"); v != "" {
		cfg.Notifier.Telegram.BotToken = strings.TrimSpace(v)
	}
	if v := os.Getenv("TG_SIGNALS_CHANNEL_ID"); v != "" {
		cfg.Notifier.Telegram.ChannelID = strings.TrimSpace(v)
	}
	if cfg.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			cfg.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			cfg.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			cfg.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			cfg.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Dexflow.Name == "" {
		return fmt.Errorf("dexflow.name is required")
	}

	if cfg.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be greater than 0")
	}
	if cfg.Scanner.ErrorBackoff <= 0 {
		return fmt.Errorf("scanner.error_backoff must be greater than 0")
	}
	if cfg.Scanner.Cooldown <= 0 {
		return fmt.Errorf("scanner.cooldown must be greater than 0")
	}
	if cfg.Scanner.PreferredVenue == "" {
		return fmt.Errorf("scanner.preferred_venue is required")
	}

	if cfg.Providers.Moralis.APIKey == "" {
		return fmt.Errorf("providers.moralis.api_key is required (config or MORALIS_API_KEY)")
	}
	if cfg.Providers.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("providers.retry.max_attempts must be greater than 0")
	}
	if cfg.Providers.Retry.BaseDelay <= 0 {
		return fmt.Errorf("providers.retry.base_delay must be greater than 0")
	}
	if cfg.Providers.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("providers.rate_limit.requests_per_second must be greater than 0")
	}

	if cfg.Notifier.Telegram.Enabled {
		if cfg.Notifier.Telegram.BotToken == "" {
			return fmt.Errorf("notifier.telegram.bot_token is required when telegram is enabled")
		}
		if cfg.Notifier.Telegram.ChannelID == "" {
			return fmt.Errorf("notifier.telegram.channel_id is required when telegram is enabled")
		}
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
