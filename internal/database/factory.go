package database

import (
	"fmt"
	"path/filepath"

	"dbexport/internal/config"
)

// NewLedgerFromConfig creates a Ledger implementation based on the
// [database] section of the engine config.
func NewLedgerFromConfig(cfg config.DatabaseConfig, hostID string) (Ledger, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteLedger(dbPath)
	case "memory":
		return NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
