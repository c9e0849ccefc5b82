package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LIQLENS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LIQLENS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "LIQLENS_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "LIQLENS_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.DataHost, "LIQLENS_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.Wallet, "LIQLENS_POLYMARKET_WALLET")

	// ── News ──
	setStr(&cfg.News.BaseURL, "LIQLENS_NEWS_BASE_URL")
	setStr(&cfg.News.APIKey, "LIQLENS_NEWS_API_KEY")
	setInt(&cfg.News.MaxResults, "LIQLENS_NEWS_MAX_RESULTS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LIQLENS_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LIQLENS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LIQLENS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LIQLENS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LIQLENS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LIQLENS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LIQLENS_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LIQLENS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LIQLENS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LIQLENS_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "LIQLENS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LIQLENS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LIQLENS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LIQLENS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LIQLENS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LIQLENS_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "LIQLENS_REDIS_CACHE_TTL_MINUTES")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "LIQLENS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LIQLENS_S3_REGION")
	setStr(&cfg.S3.Bucket, "LIQLENS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LIQLENS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LIQLENS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LIQLENS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LIQLENS_S3_FORCE_PATH_STYLE")

	// ── Analyze ──
	setInt(&cfg.Analyze.DepthRadiusCents, "LIQLENS_ANALYZE_DEPTH_RADIUS_CENTS")
	setFloat64(&cfg.Analyze.SpreadWeight, "LIQLENS_ANALYZE_SPREAD_WEIGHT")
	setFloat64(&cfg.Analyze.DepthWeight, "LIQLENS_ANALYZE_DEPTH_WEIGHT")
	setFloat64(&cfg.Analyze.VolumeWeight, "LIQLENS_ANALYZE_VOLUME_WEIGHT")
	setFloat64(&cfg.Analyze.OpenInterestWeight, "LIQLENS_ANALYZE_OPEN_INTEREST_WEIGHT")
	setFloat64(&cfg.Analyze.MaxSlippageCents, "LIQLENS_ANALYZE_MAX_SLIPPAGE_CENTS")

	// ── Monitor ──
	setStringSlice(&cfg.Monitor.Markets, "LIQLENS_MONITOR_MARKETS")
	setDuration(&cfg.Monitor.PollInterval, "LIQLENS_MONITOR_POLL_INTERVAL")
	setFloat64(&cfg.Monitor.SizeCollapseRatio, "LIQLENS_MONITOR_SIZE_COLLAPSE_RATIO")
	setInt(&cfg.Monitor.RateLimitPerMinute, "LIQLENS_MONITOR_RATE_LIMIT_PER_MINUTE")

	// ── Record ──
	setBool(&cfg.Record.Enabled, "LIQLENS_RECORD_ENABLED")
	setStringSlice(&cfg.Record.Markets, "LIQLENS_RECORD_MARKETS")
	setDuration(&cfg.Record.SnapshotInterval, "LIQLENS_RECORD_SNAPSHOT_INTERVAL")
	setInt(&cfg.Record.ArchiveRetentionDays, "LIQLENS_RECORD_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Record.ArchiveInterval, "LIQLENS_RECORD_ARCHIVE_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LIQLENS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LIQLENS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LIQLENS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LIQLENS_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LIQLENS_MODE")
	setStr(&cfg.LogLevel, "LIQLENS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
