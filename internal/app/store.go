package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/rezkam/pomotodo/internal/config"
	"github.com/rezkam/pomotodo/internal/storage"
	"github.com/rezkam/pomotodo/internal/storage/fs"
	"github.com/rezkam/pomotodo/internal/storage/gcs"
	"github.com/rezkam/pomotodo/internal/storage/memory"
	"github.com/rezkam/pomotodo/internal/storage/postgres"
	"github.com/rezkam/pomotodo/internal/storage/sqlite"
)

// Store is a storage backend that holds resources until closed.
type Store interface {
	storage.Store
	io.Closer
}

// OpenStore opens the backend selected by cfg.Type.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case config.StorageMemory:
		store = memory.NewStore()
	case config.StorageFS:
		store, err = fs.NewStore(cfg.FSDir)
	case config.StorageSQLite:
		store, err = sqlite.NewStore(ctx, sqlite.DBConfig{
			Path:        cfg.SQLitePath,
			BusyTimeout: cfg.SQLiteBusyTimeout,
		})
	case config.StoragePostgres:
		store, err = postgres.Open(ctx, postgres.DBConfig{
			DSN:             cfg.PostgresDSN,
			MaxOpenConns:    cfg.Pool.MaxConns,
			MaxIdleConns:    cfg.Pool.MinConns,
			ConnMaxLifetime: cfg.Pool.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Pool.ConnMaxIdleTime,
		})
	case config.StorageGCS:
		store, err = gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Type, err)
	}

	attrs := []any{"type", cfg.Type}
	if cfg.Type == config.StoragePostgres {
		attrs = append(attrs, "dsn", maskPassword(cfg.PostgresDSN))
	}
	slog.InfoContext(ctx, "storage initialized", attrs...)
	return store, nil
}

// maskPassword hides the password of a connection URL for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
