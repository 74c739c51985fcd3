package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Fallback modes. The mode is the one deployment-level policy switch in the
// pipeline: either answer the end user directly when forwarding fails, or
// only log and leave end-user communication to the downstream.
const (
	FallbackAutoReply = "auto-reply"
	FallbackLogOnly   = "log-only"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Downstream DownstreamConfig `koanf:"downstream"`
	Provider   ProviderConfig   `koanf:"provider"`
	Fallback   FallbackConfig   `koanf:"fallback"`
	Classify   ClassifyConfig   `koanf:"classify"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type WebhookConfig struct {
	VerifyToken string `koanf:"verify_token"`
}

// DownstreamConfig points at the chatbot endpoints. BaseURL unset is a
// configuration error surfaced at forward time, not at load time, so a
// relay deployed without a downstream still starts and falls back.
type DownstreamConfig struct {
	BaseURL        string `koanf:"base_url"`
	AuthToken      string `koanf:"auth_token"`
	StatusPath     string `koanf:"status_path"`
	MessageTimeout string `koanf:"message_timeout"`
	StatusTimeout  string `koanf:"status_timeout"`
}

// ProviderConfig holds the send-message credential, distinct from the
// inbound verify token.
type ProviderConfig struct {
	BaseURL       string `koanf:"base_url"`
	APIVersion    string `koanf:"api_version"`
	AccessToken   string `koanf:"access_token"`
	PhoneNumberID string `koanf:"phone_number_id"`
}

type FallbackConfig struct {
	Mode string `koanf:"mode"`
}

type ClassifyConfig struct {
	// MediaCategory is the fixed routing category for non-text messages.
	MediaCategory string `koanf:"media_category"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml if present, then overlays RELAY_-prefixed
// environment variables ("__" maps to nesting), applies defaults, and
// substitutes ${VAR} references in credential fields.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is fine, env vars can carry the whole config.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading config.yaml: %w", err)
		}
	}

	if err := k.Load(env.Provider("RELAY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "RELAY_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	defaults := map[string]any{
		"server.port":                8080,
		"downstream.status_path":     "status",
		"downstream.message_timeout": "30s",
		"downstream.status_timeout":  "10s",
		"provider.base_url":          "https://graph.facebook.com",
		"provider.api_version":       "v23.0",
		"fallback.mode":              FallbackLogOnly,
		"classify.media_category":    "customer-service",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Webhook.VerifyToken = substituteEnvVars(cfg.Webhook.VerifyToken)
	cfg.Downstream.AuthToken = substituteEnvVars(cfg.Downstream.AuthToken)
	cfg.Provider.AccessToken = substituteEnvVars(cfg.Provider.AccessToken)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Fallback.Mode {
	case FallbackAutoReply, FallbackLogOnly:
	default:
		return fmt.Errorf("fallback.mode must be %q or %q, got %q",
			FallbackAutoReply, FallbackLogOnly, c.Fallback.Mode)
	}
	if _, err := time.ParseDuration(c.Downstream.MessageTimeout); err != nil {
		return fmt.Errorf("downstream.message_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Downstream.StatusTimeout); err != nil {
		return fmt.Errorf("downstream.status_timeout: %w", err)
	}
	return nil
}

// MessageTimeoutDuration returns the parsed message forward timeout.
// validate() guarantees the duration parses.
func (c *DownstreamConfig) MessageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.MessageTimeout)
	return d
}

func (c *DownstreamConfig) StatusTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StatusTimeout)
	return d
}

// Presence reports which credential and endpoint groups are configured,
// for the health endpoint. Values are booleans only, never the secrets.
func (c *Config) Presence() map[string]bool {
	return map[string]bool{
		"verify_token":    c.Webhook.VerifyToken != "",
		"downstream_base": c.Downstream.BaseURL != "",
		"downstream_auth": c.Downstream.AuthToken != "",
		"provider_token":  c.Provider.AccessToken != "",
		"provider_sender": c.Provider.PhoneNumberID != "",
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
