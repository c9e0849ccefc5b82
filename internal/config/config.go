// Package config defines the top-level configuration for the liqlens CLI and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LIQLENS_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	News       NewsConfig       `toml:"news"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Analyze    AnalyzeConfig    `toml:"analyze"`
	Monitor    MonitorConfig    `toml:"monitor"`
	Record     RecordConfig     `toml:"record"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds exchange API endpoints.
type PolymarketConfig struct {
	ClobHost  string `toml:"clob_host"`
	GammaHost string `toml:"gamma_host"`
	DataHost  string `toml:"data_host"`
	// Wallet is the proxy wallet address used for read-only position syncing.
	Wallet string `toml:"wallet"`
}

// NewsConfig holds the research search API endpoint and credentials.
type NewsConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// MaxResults caps headlines fetched per analyze run.
	MaxResults int `toml:"max_results"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// S3Config holds S3-compatible object storage parameters for cold archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AnalyzeConfig holds parameters for one-shot and batch analysis.
type AnalyzeConfig struct {
	// DepthRadiusCents is the window around the midpoint for depth scoring.
	DepthRadiusCents int `toml:"depth_radius_cents"`
	// Weights override the default composite score weighting when all four
	// are set; they must sum to 1.
	SpreadWeight       float64 `toml:"spread_weight"`
	DepthWeight        float64 `toml:"depth_weight"`
	VolumeWeight       float64 `toml:"volume_weight"`
	OpenInterestWeight float64 `toml:"open_interest_weight"`
	// SlippageSizes are the hypothetical order sizes rendered in the
	// per-size slippage table.
	SlippageSizes []int64 `toml:"slippage_sizes"`
	// MaxSlippageCents is the default slippage budget for sizing.
	MaxSlippageCents float64 `toml:"max_slippage_cents"`
}

// MonitorConfig holds parameters for the alert polling loop.
type MonitorConfig struct {
	// Markets is the list of market IDs or slugs to watch.
	Markets      []string `toml:"markets"`
	PollInterval duration `toml:"poll_interval"`
	// SizeCollapseRatio fires an alert when the max safe order size drops
	// below this fraction of its previous value.
	SizeCollapseRatio float64 `toml:"size_collapse_ratio"`
	// RateLimitPerMinute caps exchange API calls made by the watcher.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// RecordConfig holds parameters for the snapshot recording loop and archival.
type RecordConfig struct {
	Enabled              bool     `toml:"enabled"`
	Markets              []string `toml:"markets"`
	SnapshotInterval     duration `toml:"snapshot_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveInterval      duration `toml:"archive_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:  "https://clob.polymarket.com",
			GammaHost: "https://gamma-api.polymarket.com",
			DataHost:  "https://data-api.polymarket.com",
		},
		News: NewsConfig{
			BaseURL:    "https://newsapi.org/v2",
			MaxResults: 5,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "liqlens",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			DB:              0,
			PoolSize:        20,
			MaxRetries:      3,
			CacheTTLMinutes: 10,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "liqlens-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Analyze: AnalyzeConfig{
			DepthRadiusCents:   10,
			SpreadWeight:       0.30,
			DepthWeight:        0.30,
			VolumeWeight:       0.20,
			OpenInterestWeight: 0.20,
			SlippageSizes:      []int64{10, 50, 100, 500, 1000},
			MaxSlippageCents:   2.0,
		},
		Monitor: MonitorConfig{
			PollInterval:       duration{time.Minute},
			SizeCollapseRatio:  0.5,
			RateLimitPerMinute: 60,
		},
		Record: RecordConfig{
			Enabled:              false,
			SnapshotInterval:     duration{5 * time.Minute},
			ArchiveRetentionDays: 90,
			ArchiveInterval:      duration{24 * time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"grade_change", "size_collapse", "error"},
		},
		Mode:     "analyze",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"analyze":   true,
	"scan":      true,
	"portfolio": true,
	"monitor":   true,
	"record":    true,
	"full":      true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var problems []string

	if !validModes[strings.ToLower(c.Mode)] {
		problems = append(problems, fmt.Sprintf("mode %q is not supported", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		problems = append(problems, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}
	if c.Polymarket.ClobHost == "" {
		problems = append(problems, "polymarket.clob_host is required")
	}
	if c.Polymarket.GammaHost == "" {
		problems = append(problems, "polymarket.gamma_host is required")
	}
	if c.Analyze.DepthRadiusCents <= 0 {
		problems = append(problems, "analyze.depth_radius_cents must be positive")
	}
	if c.Analyze.MaxSlippageCents < 0 {
		problems = append(problems, "analyze.max_slippage_cents must be non-negative")
	}
	sum := c.Analyze.SpreadWeight + c.Analyze.DepthWeight +
		c.Analyze.VolumeWeight + c.Analyze.OpenInterestWeight
	if sum < 0.999999 || sum > 1.000001 {
		problems = append(problems, fmt.Sprintf("analyze weights sum to %v, want 1", sum))
	}
	if c.Monitor.PollInterval.Duration <= 0 {
		problems = append(problems, "monitor.poll_interval must be positive")
	}
	if c.Monitor.SizeCollapseRatio <= 0 || c.Monitor.SizeCollapseRatio >= 1 {
		problems = append(problems, "monitor.size_collapse_ratio must be in (0,1)")
	}
	if c.Record.Enabled && c.Record.SnapshotInterval.Duration <= 0 {
		problems = append(problems, "record.snapshot_interval must be positive when record is enabled")
	}
	mode := strings.ToLower(c.Mode)
	if (mode == "monitor" || mode == "full") && len(c.Monitor.Markets) == 0 {
		problems = append(problems, "monitor.markets must list at least one market in monitor mode")
	}
	if (mode == "record" || mode == "full") &&
		c.Record.ArchiveRetentionDays > 0 && c.Record.ArchiveInterval.Duration <= 0 {
		problems = append(problems, "record.archive_interval must be positive when archival is enabled")
	}
	if mode == "portfolio" && c.Polymarket.Wallet == "" {
		problems = append(problems, "polymarket.wallet is required in portfolio mode")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
