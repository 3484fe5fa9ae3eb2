/**
 * @description
 * This file defines the core domain models for the transfer-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit (won), which avoids floating-point inaccuracies with financial data.
 * - A TransferRecord is append-only: once persisted it is never mutated or
 *   deleted, because the ledger is the audit trail for money that actually moved.
 */

package domain

import "time"

// TransferDirection marks which side of a transfer a ledger record describes.
type TransferDirection string

const (
	DirectionCredit TransferDirection = "CREDIT"
	DirectionDebit  TransferDirection = "DEBIT"
)

// TransferMethod distinguishes how the counterparty was addressed.
type TransferMethod string

const (
	// MethodDirect is a transfer to an explicitly entered account number.
	MethodDirect TransferMethod = "DIRECT"
	// MethodProximity is a transfer to a counterparty matched nearby,
	// resolved by user identifier instead of a raw account number.
	MethodProximity TransferMethod = "PROXIMITY"
)

// CurrencyCode is a closed enumeration of supported settlement currencies.
type CurrencyCode string

const (
	CurrencyKRW CurrencyCode = "KRW"
)

// TransferRequest is the DTO for an incoming transfer. It is immutable once
// constructed; validation happens in the orchestrator before any remote call.
type TransferRequest struct {
	SendAccountNumber string `json:"send_account_number"`
	SendBankCode      int    `json:"send_bank_code"`
	SendName          string `json:"send_name"`
	RecvAccountNumber string `json:"recv_account_number"`
	RecvBankCode      int    `json:"recv_bank_code"`
	RecvName          string `json:"recv_name"`
	// RecvUserID identifies the recipient inside this system, when known.
	// Proximity transfers resolve the receiving account through it; direct
	// transfers carry it only so the recipient can be notified.
	RecvUserID int64 `json:"recv_user_id,omitempty"`
	Amount     int64 `json:"amount"`
}

// TransferRecord is the central ledger record for completed money movement.
// This struct maps directly to the `transfer_records` table.
type TransferRecord struct {
	ID                        int64             `json:"id"`
	AccountID                 int64             `json:"account_id"`
	CounterpartyAccountNumber string            `json:"counterparty_account_number"`
	CounterpartyName          string            `json:"counterparty_name"`
	Direction                 TransferDirection `json:"direction"`
	Amount                    int64             `json:"amount"`
	Currency                  CurrencyCode      `json:"currency"`
	Method                    TransferMethod    `json:"method"`
	CreatedAt                 time.Time         `json:"created_at"`
}

// Counterparty is a recent-counterparty projection from the ledger, used to
// prefill the transfer form with accounts the user has sent to before.
type Counterparty struct {
	AccountNumber  string    `json:"account_number"`
	Name           string    `json:"name"`
	BankCode       int       `json:"bank_code,omitempty"`
	LastTransferAt time.Time `json:"last_transfer_at"`
}

// AccountInfo is the point-in-time snapshot returned by the account resolver.
// The balance is not transactionally locked against concurrent spend.
type AccountInfo struct {
	AccountID     int64  `json:"accountId"`
	AccountNumber string `json:"accountNumber"`
	BankCode      int    `json:"bankCode"`
	Balance       int64  `json:"balance"`
}
