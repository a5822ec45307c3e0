package core

import (
	"fmt"
	"os"

	"navisolcore/internal/infra/persistence/memory"
	"navisolcore/internal/infra/persistence/postgres"
	"navisolcore/internal/infra/persistence/sqlite"
	"navisolcore/pkg/domain"
)

// Storage driver selection environment variables.
const (
	EnvStorageDriver = "NAVISOL_STORAGE_DRIVER"
	EnvSQLitePath    = "NAVISOL_SQLITE_PATH"
	EnvPostgresDSN   = "NAVISOL_POSTGRES_DSN"
)

// OpenPersistentStore selects a storage backend from the environment. The
// default is the in-memory store; sqlite and postgres persist committed state
// across restarts.
func OpenPersistentStore(engine *domain.RulesEngine) (PersistentStore, error) {
	driver := os.Getenv(EnvStorageDriver)
	switch driver {
	case "", "memory":
		return memory.NewStore(engine), nil
	case "sqlite":
		return sqlite.NewStore(os.Getenv(EnvSQLitePath), engine)
	case "postgres":
		return postgres.NewStore(os.Getenv(EnvPostgresDSN), engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
