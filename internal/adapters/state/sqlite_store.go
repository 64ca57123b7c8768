package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// SQLiteStore persists the address IP history in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS address_ips (
			address TEXT NOT NULL,
			ip TEXT NOT NULL,
			first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (address, ip)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load reads every recorded (address, ip) pair.
func (s *SQLiteStore) Load(ctx context.Context) (core.IPHistory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address, ip FROM address_ips ORDER BY first_seen`)
	if err != nil {
		return nil, fmt.Errorf("failed to query address IP history: %w", err)
	}
	defer rows.Close()

	history := core.IPHistory{}
	for rows.Next() {
		var address, ip string
		if err := rows.Scan(&address, &ip); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history.Add(address, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return history, nil
}

// Save inserts pairs not yet recorded. Existing rows are never touched, so
// history only grows.
func (s *SQLiteStore) Save(ctx context.Context, history core.IPHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO address_ips (address, ip) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for address, ips := range history {
		for _, ip := range ips {
			if _, err := stmt.ExecContext(ctx, address, ip); err != nil {
				return fmt.Errorf("failed to insert history row: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
