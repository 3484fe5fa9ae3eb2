package rpc

import "github.com/ssokpay/transfer-service/internal/domain"

// Fully qualified method names for the internal RPC surfaces.
const (
	AccountGetPrimaryMethod      = "/ssok.account.v1.AccountService/GetPrimaryAccount"
	TransferCounterpartiesMethod = "/ssok.transfer.v1.TransferService/ListRecentCounterparties"
)

// GetPrimaryAccountRequest asks the account service for a user's primary
// account. The caller identifier is the only field the callee needs.
type GetPrimaryAccountRequest struct {
	UserID int64 `json:"userId"`
}

// GetPrimaryAccountResponse carries the resolved account snapshot.
type GetPrimaryAccountResponse struct {
	Account domain.AccountInfo `json:"account"`
}

// ListRecentCounterpartiesRequest asks the transfer service for accounts a
// user has recently sent money to.
type ListRecentCounterpartiesRequest struct {
	AccountID int64 `json:"accountId"`
	Limit     int   `json:"limit"`
}

// ListRecentCounterpartiesResponse carries the recent-counterparty list.
type ListRecentCounterpartiesResponse struct {
	Counterparties []domain.Counterparty `json:"counterparties"`
}
