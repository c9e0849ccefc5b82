package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/liqlens/liqlens/internal/blob/s3"
	"github.com/liqlens/liqlens/internal/cache/redis"
	"github.com/liqlens/liqlens/internal/config"
	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/notify"
	"github.com/liqlens/liqlens/internal/store/postgres"
)

// Dependencies bundles the infrastructure-level dependencies the application
// modes need. Fields stay nil when the configured mode does not require the
// backing system; the services treat nil stores and caches as "do not
// persist".
type Dependencies struct {
	// Stores
	MarketStore   domain.MarketStore
	SnapshotStore domain.SnapshotStore
	ScoreStore    domain.ScoreStore
	AlertStore    domain.AlertStore

	// Caches
	BookCache   domain.BookCache
	ScoreCache  domain.ScoreCache
	RateLimiter domain.RateLimiter

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsPostgres reports whether the mode keeps a score and snapshot history.
func needsPostgres(mode string) bool {
	switch mode {
	case "monitor", "record", "full":
		return true
	default:
		return false
	}
}

// needsRedis reports whether the mode uses the book/score caches and the
// rate limiter.
func needsRedis(mode string) bool {
	switch mode {
	case "monitor", "record", "full":
		return true
	default:
		return false
	}
}

// needsS3 reports whether the mode archives history to object storage.
func needsS3(mode string) bool {
	switch mode {
	case "record", "full":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependency implementations for the configured
// mode and returns them with a cleanup function to be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.SnapshotStore = postgres.NewSnapshotStore(pool)
		deps.ScoreStore = postgres.NewScoreStore(pool)
		deps.AlertStore = postgres.NewAlertStore(pool)
	}

	// --- Redis ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		deps.BookCache = redis.NewBookCache(redisClient, ttl)
		deps.ScoreCache = redis.NewScoreCache(redisClient, ttl)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- S3 blob storage ---
	if needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)

		// Archiving moves rows out of Postgres, so it needs both systems.
		if deps.SnapshotStore != nil && deps.ScoreStore != nil {
			deps.Archiver = s3blob.NewArchiver(
				deps.BlobWriter,
				deps.BlobReader,
				deps.SnapshotStore,
				deps.ScoreStore,
				logger,
			)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
