package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// MySQLStore persists the address IP history in a MySQL database.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a MySQL-backed store for dsn.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS address_ips (
			address VARCHAR(255) NOT NULL,
			ip VARCHAR(45) NOT NULL,
			first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (address, ip)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Load reads every recorded (address, ip) pair.
func (s *MySQLStore) Load(ctx context.Context) (core.IPHistory, error) {
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

// Save inserts pairs not yet recorded.
func (s *MySQLStore) Save(ctx context.Context, history core.IPHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT IGNORE INTO address_ips (address, ip) VALUES (?, ?)`)
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
