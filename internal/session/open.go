package session

import (
	"context"
	"fmt"

	"github.com/fakeyudi/tsync/internal/config"
)

// Open returns the store named by cfg.Store.
func Open(ctx context.Context, cfg config.Config) (SessionStore, error) {
	switch cfg.Store {
	case "", "disk":
		return NewSessionStore()
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 0)
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("store %q needs mysql_dsn", cfg.Store)
		}
		return NewGormStore(cfg.MySQLDSN)
	}
	return nil, fmt.Errorf("unknown session store %q (want disk, redis or mysql)", cfg.Store)
}
