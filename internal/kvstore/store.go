// Package kvstore persists small client-side values (the bearer token, the
// logged-in user and the notices cache) behind a get/set/remove interface.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Fixed keys shared by the services.
const (
	KeyToken   = "token"
	KeyUser    = "user"
	KeyNotices = "notices"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is a string-keyed byte store. Get reports ok=false for missing keys.
// Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend named by kind rooted at dir.
func Open(kind, dir string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "chamber.db"))
	case "badger":
		cfg := DefaultBadgerConfig()
		cfg.Path = filepath.Join(dir, "badger")
		cfg.Logger = logger
		return OpenBadger(cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}
