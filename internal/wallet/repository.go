package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NameRepository persists the display names of backend accounts. The
// backend only knows addresses, names live on this side.
type NameRepository interface {
	GetName(ctx context.Context, walletID string) (string, error)
	SetName(ctx context.Context, walletID, name string) error
}

// PostgresRepository stores wallet names in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the wallet_names table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS wallet_names (
        wallet_id  TEXT PRIMARY KEY,
        name       TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`)
	return err
}

// GetName fetches the stored name for a wallet.
func (r *PostgresRepository) GetName(ctx context.Context, walletID string) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT name FROM wallet_names WHERE wallet_id = $1`, walletID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNameNotFound
		}
		return "", err
	}
	return name, nil
}

// SetName upserts the name for a wallet.
func (r *PostgresRepository) SetName(ctx context.Context, walletID, name string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallet_names (wallet_id, name, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (wallet_id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`,
		walletID, name, time.Now().UTC())
	return err
}
