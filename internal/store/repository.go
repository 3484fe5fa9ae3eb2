/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for ledger persistence. Defining an interface decouples the orchestrator
 * from the PostgreSQL implementation and lets tests stub the ledger.
 *
 * The ledger is append-only: there is no update or delete operation on a
 * persisted TransferRecord, by contract.
 */

package store

import (
	"context"

	"github.com/ssokpay/transfer-service/internal/domain"
)

// Repository defines the set of methods for interacting with the ledger.
type Repository interface {
	// CreateTransferRecord appends one record and fills in the
	// server-assigned ID and CreatedAt.
	CreateTransferRecord(ctx context.Context, rec *domain.TransferRecord) error

	// ListTransferRecords returns an account's records, newest first.
	ListTransferRecords(ctx context.Context, accountID int64, limit int) ([]domain.TransferRecord, error)

	// ListRecentCounterparties returns distinct accounts the given account
	// has recently sent money to, newest first.
	ListRecentCounterparties(ctx context.Context, accountID int64, limit int) ([]domain.Counterparty, error)

	// FindTransferRecordByID fetches a single record, or ErrRecordNotFound.
	FindTransferRecordByID(ctx context.Context, id int64) (*domain.TransferRecord, error)
}
