package store

import (
	"fmt"

	"github.com/hweber/particletrack/internal/config"
)

// New creates a Gateway based on the configured driver.
func New(cfg *config.StoreConfig) (Gateway, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedisStore(&RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		}), nil
	case "sqlite", "postgres":
		db, err := InitDB(&cfg.Database, cfg.Driver)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
