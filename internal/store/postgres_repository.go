/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the append-only `transfer_records`
 * table and the recent-counterparty projection over it.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssokpay/transfer-service/internal/domain"
)

var (
	ErrRecordNotFound = errors.New("transfer record not found")
	ErrInvalidRecord  = errors.New("invalid transfer record")
)

// PostgresRepository is a concrete implementation of the Repository
// interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateTransferRecord appends one ledger row. ID and CreatedAt are
// assigned by the database and written back into rec.
func (r *PostgresRepository) CreateTransferRecord(ctx context.Context, rec *domain.TransferRecord) error {
	if rec.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRecord)
	}

	query := `
		INSERT INTO transfer_records
			(account_id, counterparty_account_number, counterparty_name, direction, amount, currency, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.AccountID,
		rec.CounterpartyAccountNumber,
		rec.CounterpartyName,
		string(rec.Direction),
		rec.Amount,
		string(rec.Currency),
		string(rec.Method),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// ListTransferRecords returns an account's ledger rows, newest first.
func (r *PostgresRepository) ListTransferRecords(ctx context.Context, accountID int64, limit int) ([]domain.TransferRecord, error) {
	query := `
		SELECT id, account_id, counterparty_account_number, counterparty_name, direction, amount, currency, method, created_at
		FROM transfer_records
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TransferRecord
	for rows.Next() {
		var rec domain.TransferRecord
		var direction, currency, method string
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.CounterpartyAccountNumber, &rec.CounterpartyName, &direction, &rec.Amount, &currency, &method, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Direction = domain.TransferDirection(direction)
		rec.Currency = domain.CurrencyCode(currency)
		rec.Method = domain.TransferMethod(method)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListRecentCounterparties projects distinct debit counterparties for the
// account, most recent first.
func (r *PostgresRepository) ListRecentCounterparties(ctx context.Context, accountID int64, limit int) ([]domain.Counterparty, error) {
	query := `
		SELECT counterparty_account_number, counterparty_name, MAX(created_at) AS last_transfer_at
		FROM transfer_records
		WHERE account_id = $1 AND direction = 'DEBIT'
		GROUP BY counterparty_account_number, counterparty_name
		ORDER BY last_transfer_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Counterparty
	for rows.Next() {
		var cp domain.Counterparty
		if err := rows.Scan(&cp.AccountNumber, &cp.Name, &cp.LastTransferAt); err != nil {
			return nil, err
		}
		items = append(items, cp)
	}
	return items, rows.Err()
}

// FindTransferRecordByID fetches a single ledger row.
func (r *PostgresRepository) FindTransferRecordByID(ctx context.Context, id int64) (*domain.TransferRecord, error) {
	query := `
		SELECT id, account_id, counterparty_account_number, counterparty_name, direction, amount, currency, method, created_at
		FROM transfer_records
		WHERE id = $1
	`
	var rec domain.TransferRecord
	var direction, currency, method string
	err := r.db.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.AccountID, &rec.CounterpartyAccountNumber, &rec.CounterpartyName, &direction, &rec.Amount, &currency, &method, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	rec.Direction = domain.TransferDirection(direction)
	rec.Currency = domain.CurrencyCode(currency)
	rec.Method = domain.TransferMethod(method)
	return &rec, nil
}

var _ Repository = (*PostgresRepository)(nil)
