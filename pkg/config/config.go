// Package config loads deskhand settings from environment variables
// with an optional YAML file underneath. Environment always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deskhand/deskhand/pkg/types"
)

// Config holds every runtime setting of the pipeline.
type Config struct {
	VaultPath     string `yaml:"vault_path"`
	WorkZone      string `yaml:"work_zone"`
	LogLevel      string `yaml:"log_level"`
	LogJSON       bool   `yaml:"log_json"`
	CheckInterval int    `yaml:"gmail_check_interval"`

	GmailFilter      string `yaml:"gmail_filter"`
	GmailAccessToken string `yaml:"gmail_access_token"`
	DailySendLimit   int    `yaml:"daily_send_limit"`
	VIPSenders       string `yaml:"vip_senders"`

	AssistantCommand string `yaml:"assistant_command"`
	AssistantModel   string `yaml:"assistant_model"`

	FileWatchEnabled bool `yaml:"file_watch_enabled"`
	FileWatchDryRun  bool `yaml:"file_watch_dry_run"`

	AutoApproveThreshold float64 `yaml:"auto_approve_threshold"`

	WebEnabled bool `yaml:"web_enabled"`
	WebPort    int  `yaml:"web_port"`

	SyncRemote string `yaml:"sync_remote"`

	LinkedInToken    string `yaml:"linkedin_access_token"`
	LinkedInAuthorID string `yaml:"linkedin_author_id"`

	FacebookToken  string `yaml:"facebook_access_token"`
	FacebookPageID string `yaml:"facebook_page_id"`
	TwitterToken   string `yaml:"twitter_bearer_token"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		VaultPath:            "./vault",
		WorkZone:             string(types.ZoneLocal),
		LogLevel:             "info",
		CheckInterval:        300,
		GmailFilter:          "is:unread -label:Processed-by-Deskhand",
		DailySendLimit:       10,
		AssistantCommand:     "claude",
		AssistantModel:       "claude-sonnet-4-20250514",
		AutoApproveThreshold: 1.0,
		WebEnabled:           false,
		WebPort:              8787,
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (or $DESKHAND_CONFIG) if one exists, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("DESKHAND_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envStr("VAULT_PATH", &c.VaultPath)
	envStr("WORK_ZONE", &c.WorkZone)
	envStr("LOG_LEVEL", &c.LogLevel)
	envBool("LOG_JSON", &c.LogJSON)
	envInt("GMAIL_CHECK_INTERVAL", &c.CheckInterval)
	envStr("GMAIL_FILTER", &c.GmailFilter)
	envStr("GMAIL_ACCESS_TOKEN", &c.GmailAccessToken)
	envInt("DAILY_SEND_LIMIT", &c.DailySendLimit)
	envStr("VIP_SENDERS", &c.VIPSenders)
	envStr("ASSISTANT_COMMAND", &c.AssistantCommand)
	envStr("ASSISTANT_MODEL", &c.AssistantModel)
	envBool("FILE_WATCH_ENABLED", &c.FileWatchEnabled)
	envBool("FILE_WATCH_DRY_RUN", &c.FileWatchDryRun)
	envFloat("AUTO_APPROVE_THRESHOLD", &c.AutoApproveThreshold)
	envBool("WEB_ENABLED", &c.WebEnabled)
	envInt("WEB_PORT", &c.WebPort)
	envStr("SYNC_REMOTE", &c.SyncRemote)
	envStr("LINKEDIN_ACCESS_TOKEN", &c.LinkedInToken)
	envStr("LINKEDIN_AUTHOR_ID", &c.LinkedInAuthorID)
	envStr("FACEBOOK_ACCESS_TOKEN", &c.FacebookToken)
	envStr("FACEBOOK_PAGE_ID", &c.FacebookPageID)
	envStr("TWITTER_BEARER_TOKEN", &c.TwitterToken)
}

func (c *Config) validate() error {
	if c.AutoApproveThreshold < 0 || c.AutoApproveThreshold > 1 {
		return fmt.Errorf("auto_approve_threshold %.2f out of range [0,1]", c.AutoApproveThreshold)
	}
	if c.CheckInterval < 1 {
		return fmt.Errorf("gmail_check_interval must be positive, got %d", c.CheckInterval)
	}
	if c.DailySendLimit < 0 {
		return fmt.Errorf("daily_send_limit must not be negative, got %d", c.DailySendLimit)
	}
	return nil
}

// Zone returns the parsed work zone.
func (c *Config) Zone() types.Zone {
	return types.ParseZone(c.WorkZone)
}

// Interval returns the cycle cadence as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// VIPList splits the comma-separated VIP senders, trimmed and lowered.
func (c *Config) VIPList() []string {
	if c.VIPSenders == "" {
		return nil
	}
	var vips []string
	for _, v := range strings.Split(c.VIPSenders, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vips = append(vips, v)
		}
	}
	return vips
}

// AutoApproveEnabled reports whether the threshold allows auto-approval
// at all. A threshold of exactly 1.0 disables the path.
func (c *Config) AutoApproveEnabled() bool {
	return c.AutoApproveThreshold < 1.0
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}

func envFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
