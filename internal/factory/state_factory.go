package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/adapters/state"
	"github.com/mikey/zimbra-queue-guard/internal/config"
	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// StateFactory creates history stores based on configuration
type StateFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStateFactory creates a new state factory
func NewStateFactory(cfg *config.Config, logger *zap.Logger) *StateFactory {
	return &StateFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStateStore creates a history store based on the configuration
func (f *StateFactory) CreateStateStore() (core.StateStore, error) {
	storeType := f.cfg.GetString("state.type")

	switch storeType {
	case "file":
		return state.NewFileStore(f.cfg.GetString("state.file_path"), f.logger)
	case "sqlite":
		sqlitePath := f.cfg.GetString("state.sqlite_path")
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return state.NewSQLiteStore(sqlitePath, f.logger)
	case "mysql":
		return state.NewMySQLStore(f.cfg.GetString("state.mysql_dsn"), f.logger)
	case "redis":
		return state.NewRedisStore(state.RedisConfig{
			Addr:      f.cfg.GetString("state.redis_addr"),
			Password:  f.cfg.GetString("state.redis_password"),
			DB:        f.cfg.GetInt("state.redis_db"),
			KeyPrefix: f.cfg.GetString("state.redis_key_prefix"),
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported state store type: %s", storeType)
	}
}
