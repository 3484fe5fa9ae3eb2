/**
 * @description
 * This file contains the core business logic for the transfer-service. The
 * `Service` struct orchestrates a transfer end to end: validate the request,
 * resolve the sender's account over RPC, execute the transfer on the
 * external bank rail, persist the ledger record, and enqueue the
 * notification event.
 *
 * Failure handling follows one rule: a failure before the rail call leaves
 * nothing behind; a rail failure persists nothing; a ledger failure after a
 * successful rail call is a partial-failure state surfaced with its own
 * error kind because money has moved but is unrecorded. Notification
 * failures never propagate to the transfer caller.
 *
 * @dependencies
 * - github.com/google/uuid: Per-attempt idempotency keys for the rail.
 * - internal/domain, internal/store: Domain models and ledger access.
 * - pkg/accountclient, pkg/bankclient: External service communication.
 * - internal/events: The notification producer.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ssokpay/transfer-service/internal/domain"
	"github.com/ssokpay/transfer-service/internal/events"
	"github.com/ssokpay/transfer-service/internal/store"
	"github.com/ssokpay/transfer-service/pkg/accountclient"
	"github.com/ssokpay/transfer-service/pkg/bankclient"
)

var (
	// ErrInvalidAmount rejects a zero, negative, or absent amount.
	ErrInvalidAmount = errors.New("transfer amount must be a positive integer")
	// ErrSameAccountTransfer rejects a transfer onto the sending account.
	ErrSameAccountTransfer = errors.New("same account transfer not allowed")
	// ErrInvalidRecipient rejects a proximity transfer without a resolvable
	// recipient user.
	ErrInvalidRecipient = errors.New("recipient user is required")
	// ErrInsufficientFunds rejects a transfer the resolved balance cannot
	// cover. The balance is a snapshot; the account service is authoritative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLedgerAfterExecution marks the partial-failure state: the rail
	// executed the transfer but the ledger write failed. Money has moved and
	// is unrecorded, so this is flagged for reconciliation, not retried.
	ErrLedgerAfterExecution = errors.New("transfer executed but ledger write failed")
)

// Service provides the core business logic for transfers.
type Service struct {
	resolver accountclient.Resolver
	rail     bankclient.Rail
	repo     store.Repository
	producer events.Producer
}

// NewService creates a new transfer service instance.
func NewService(resolver accountclient.Resolver, rail bankclient.Rail, repo store.Repository, producer events.Producer) *Service {
	return &Service{
		resolver: resolver,
		rail:     rail,
		repo:     repo,
		producer: producer,
	}
}

// Transfer handles a direct transfer to an entered account number.
func (s *Service) Transfer(ctx context.Context, senderUserID int64, req domain.TransferRequest) (*domain.TransferRecord, error) {
	// Validation is pure and runs before any remote call.
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.SendAccountNumber == req.RecvAccountNumber {
		return nil, ErrSameAccountTransfer
	}
	if !domain.ValidBankCode(req.RecvBankCode) {
		return nil, fmt.Errorf("receiver: %w", domain.ErrInvalidBankCode)
	}

	sender, err := s.resolver.GetPrimaryAccount(ctx, senderUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	if sender.Balance < req.Amount {
		return nil, ErrInsufficientFunds
	}

	rec, err := s.execute(ctx, sender, req, req.RecvAccountNumber, domain.MethodDirect)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req, 0, domain.TransferTypeCredit)
	return rec, nil
}

// ProximityTransfer handles a transfer to a counterparty matched nearby.
// The receiver is resolved by user identifier; there is no entered account
// number on the request.
func (s *Service) ProximityTransfer(ctx context.Context, senderUserID int64, req domain.TransferRequest) (*domain.TransferRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.RecvUserID <= 0 {
		return nil, ErrInvalidRecipient
	}

	sender, err := s.resolver.GetPrimaryAccount(ctx, senderUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	receiver, err := s.resolver.GetPrimaryAccount(ctx, req.RecvUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	if sender.AccountNumber == receiver.AccountNumber {
		return nil, ErrSameAccountTransfer
	}
	if sender.Balance < req.Amount {
		return nil, ErrInsufficientFunds
	}

	req.RecvAccountNumber = receiver.AccountNumber
	req.RecvBankCode = receiver.BankCode

	rec, err := s.execute(ctx, sender, req, receiver.AccountNumber, domain.MethodProximity)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req, receiver.AccountID, domain.TransferTypeProximityCredit)
	return rec, nil
}

// execute runs the rail call and the ledger write shared by both transfer
// kinds. The request id doubles as the rail idempotency key for the
// attempt, so a replay after an ambiguous outcome cannot move money twice.
func (s *Service) execute(ctx context.Context, sender *domain.AccountInfo, req domain.TransferRequest, recvAccountNumber string, method domain.TransferMethod) (*domain.TransferRecord, error) {
	requestID := uuid.New().String()

	result, err := s.rail.ExecuteTransfer(ctx, bankclient.TransferCommand{
		RequestID:         requestID,
		SendAccountNumber: sender.AccountNumber,
		SendBankCode:      sender.BankCode,
		SendName:          req.SendName,
		RecvAccountNumber: recvAccountNumber,
		RecvBankCode:      req.RecvBankCode,
		RecvName:          req.RecvName,
		Amount:            req.Amount,
	})
	if err != nil {
		if errors.Is(err, bankclient.ErrExecutionUnknown) {
			log.Printf("level=error component=transfer_service msg=\"rail outcome ambiguous; needs reconciliation\" request_id=%s account_id=%d amount=%d", requestID, sender.AccountID, req.Amount)
		}
		return nil, fmt.Errorf("external transfer: %w", err)
	}

	rec := &domain.TransferRecord{
		AccountID:                 sender.AccountID,
		CounterpartyAccountNumber: recvAccountNumber,
		CounterpartyName:          req.RecvName,
		Direction:                 domain.DirectionDebit,
		Amount:                    req.Amount,
		Currency:                  domain.CurrencyKRW,
		Method:                    method,
	}
	if err := s.repo.CreateTransferRecord(ctx, rec); err != nil {
		log.Printf("level=error component=transfer_service msg=\"ledger write failed after executed rail transfer\" request_id=%s rail_transfer_id=%s account_id=%d amount=%d err=%v",
			requestID, result.TransferID, sender.AccountID, req.Amount, err)
		return nil, fmt.Errorf("%w (rail transfer %s): %v", ErrLedgerAfterExecution, result.TransferID, err)
	}

	return rec, nil
}

// notify hands the notification event to the producer. The orchestrator
// only blocks on the hand-off; delivery belongs to the pipeline, and no
// failure here reaches the transfer caller.
func (s *Service) notify(ctx context.Context, req domain.TransferRequest, recvAccountID int64, transferType domain.TransferType) {
	if req.RecvUserID <= 0 {
		log.Printf("level=info component=transfer_service msg=\"recipient not in system; notification skipped\"")
		return
	}

	event := domain.NotificationEvent{
		UserID:       req.RecvUserID,
		AccountID:    recvAccountID,
		SenderName:   req.SendName,
		BankCode:     req.RecvBankCode,
		Amount:       req.Amount,
		TransferType: transferType,
	}
	if err := s.producer.PublishNotification(ctx, event); err != nil {
		class := events.ClassifyPublishError(err)
		log.Printf("level=warn component=transfer_service msg=\"notification hand-off failed\" class=%s user_id=%d err=%v", class, req.RecvUserID, err)
	}
}

// validateRequest enforces the pure preconditions shared by both transfer
// kinds. It must not perform I/O.
func validateRequest(req domain.TransferRequest) error {
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !domain.ValidBankCode(req.SendBankCode) {
		return fmt.Errorf("sender: %w", domain.ErrInvalidBankCode)
	}
	if req.RecvBankCode != 0 && !domain.ValidBankCode(req.RecvBankCode) {
		return fmt.Errorf("receiver: %w", domain.ErrInvalidBankCode)
	}
	return nil
}

// ListUserTransfers returns the caller's ledger records, newest first.
func (s *Service) ListUserTransfers(ctx context.Context, userID int64, limit int) ([]domain.TransferRecord, error) {
	account, err := s.resolver.GetPrimaryAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTransferRecords(ctx, account.AccountID, limit)
}

// ListUserRecentCounterparties returns accounts the caller recently sent to.
func (s *Service) ListUserRecentCounterparties(ctx context.Context, userID int64, limit int) ([]domain.Counterparty, error) {
	account, err := s.resolver.GetPrimaryAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.ListRecentCounterparties(ctx, account.AccountID, limit)
}

// GetTransferRecord fetches one ledger record by id.
func (s *Service) GetTransferRecord(ctx context.Context, id int64) (*domain.TransferRecord, error) {
	return s.repo.FindTransferRecordByID(ctx, id)
}
