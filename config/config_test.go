package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
providers:
  moralis:
    api_key: test-key
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scanner.Interval != 30*time.Second {
		t.Fatalf("unexpected default interval %v", cfg.Scanner.Interval)
	}
	if cfg.Scanner.Cooldown != 60*time.Second {
		t.Fatalf("unexpected default cooldown %v", cfg.Scanner.Cooldown)
	}
	if cfg.Scanner.PreferredVenue != "PumpSwap" {
		t.Fatalf("unexpected default venue %q", cfg.Scanner.PreferredVenue)
	}
	if cfg.Providers.Moralis.GatewayURL == "" || cfg.Providers.Moralis.DeepIndexURL == "" {
		t.Fatalf("expected default provider endpoints, got %+v", cfg.Providers.Moralis)
	}
	if cfg.Providers.Retry.MaxAttempts != 5 {
		t.Fatalf("unexpected default retry attempts %d", cfg.Providers.Retry.MaxAttempts)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, `
scanner:
  interval: 10s
  cooldown: 5m
  preferred_venue: Raydium
providers:
  moralis:
    api_key: test-key
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scanner.Interval != 10*time.Second {
		t.Fatalf("unexpected interval %v", cfg.Scanner.Interval)
	}
	if cfg.Scanner.Cooldown != 5*time.Minute {
		t.Fatalf("unexpected cooldown %v", cfg.Scanner.Cooldown)
	}
	if cfg.Scanner.PreferredVenue != "Raydium" {
		t.Fatalf("unexpected venue %q", cfg.Scanner.PreferredVenue)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MORALIS_API_KEY", " env-moralis-key ")
	t.Setenv("TG_BOT_TOKEN", "env-bot-token")
	t.Setenv("TG_SIGNALS_CHANNEL_ID", "-100999")

	cfg, err := LoadConfig(writeConfigFile(t, `
notifier:
  telegram:
    enabled: true
    bot_token: file-token
    channel_id: file-channel
providers:
  moralis:
    api_key: file-key
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Providers.Moralis.APIKey != "env-moralis-key" {
		t.Fatalf("expected trimmed env override, got %q", cfg.Providers.Moralis.APIKey)
	}
	if cfg.Notifier.Telegram.BotToken != "env-bot-token" {
		t.Fatalf("expected env bot token, got %q", cfg.Notifier.Telegram.BotToken)
	}
	if cfg.Notifier.Telegram.ChannelID != "-100999" {
		t.Fatalf("expected env channel id, got %q", cfg.Notifier.Telegram.ChannelID)
	}
}

func TestLoadConfigRequiresMoralisKey(t *testing.T) {
	t.Setenv("MORALIS_API_KEY", "")
	if _, err := LoadConfig(writeConfigFile(t, "scanner:\n  interval: 10s\n")); err == nil {
		t.Fatalf("expected an error without a Moralis API key")
	}
}

func TestLoadConfigTelegramValidation(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, `
notifier:
  telegram:
    enabled: true
providers:
  moralis:
    api_key: test-key
`))
	if err == nil {
		t.Fatalf("expected an error for enabled telegram without credentials")
	}
}

func TestLoadConfigS3Validation(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, `
storage:
  s3:
    enabled: true
    bucket: "Bad_Bucket_Name"
    region: us-east-1
providers:
  moralis:
    api_key: test-key
`))
	if err == nil {
		t.Fatalf("expected an error for an invalid bucket name")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	for _, tc := range []struct {
		name  string
		valid bool
	}{
		{"dexflow-alerts", true},
		{"my.bucket.name", true},
		{"ab", false},
		{"Uppercase", false},
		{"double..dots", false},
		{".leading-dot", false},
		{"trailing-dot.", false},
	} {
		if got := isValidS3Bucket(tc.name); got != tc.valid {
			t.Fatalf("isValidS3Bucket(%q) = %v, want %v", tc.name, got, tc.valid)
		}
	}
}
