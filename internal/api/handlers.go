/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as
 * the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 * - internal/rpcstatus, pkg/bankclient: For mapping remote failures to HTTP statuses.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ssokpay/transfer-service/internal/app"
	"github.com/ssokpay/transfer-service/internal/domain"
	"github.com/ssokpay/transfer-service/internal/rpcstatus"
	"github.com/ssokpay/transfer-service/internal/store"
	"github.com/ssokpay/transfer-service/pkg/bankclient"
)

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service *app.Service
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service *app.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// transferResponse is sent back to the client after a transfer has been
// recorded. It carries the ledger entry along with a human-readable message.
type transferResponse struct {
	Record  *domain.TransferRecord `json:"record"`
	Message string                 `json:"message"`
}

// TransferHandler handles requests for account-number transfers.
func (h *TransferHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.Transfer(r.Context(), userID, req)
	if err != nil {
		h.writeTransferError(w, "transfer", userID, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, transferResponse{
		Record:  record,
		Message: "Transfer completed",
	})
}

// ProximityTransferHandler handles transfers where the recipient was
// discovered nearby and is addressed by user id rather than account number.
func (h *TransferHandlers) ProximityTransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.ProximityTransfer(r.Context(), userID, req)
	if err != nil {
		h.writeTransferError(w, "proximity_transfer", userID, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, transferResponse{
		Record:  record,
		Message: "Transfer completed",
	})
}

// HistoryHandler returns the authenticated user's transfer records, newest
// first.
func (h *TransferHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	limit := parseLimit(r, 20, 100)
	records, err := h.service.ListUserTransfers(r.Context(), userID, limit)
	if err != nil {
		h.writeTransferError(w, "history", userID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// CounterpartiesHandler returns the accounts the user most recently sent
// money to, for the recipient picker.
func (h *TransferHandlers) CounterpartiesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	limit := parseLimit(r, 10, 50)
	counterparties, err := h.service.ListUserRecentCounterparties(r.Context(), userID, limit)
	if err != nil {
		h.writeTransferError(w, "counterparties", userID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"counterparties": counterparties})
}

// TransferRecordHandler returns a single ledger entry by id.
func (h *TransferHandlers) TransferRecordHandler(w http.ResponseWriter, r *http.Request) {
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	record, err := h.service.GetTransferRecord(r.Context(), recordID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			h.writeError(w, http.StatusNotFound, "Transfer record not found")
			return
		}
		log.Printf("level=error component=api endpoint=transfer_record record_id=%d err=%v", recordID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load transfer record")
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// writeTransferError maps service-level failures onto HTTP statuses. A ledger
// failure after the money already moved is reported as a server error so the
// client does not retry and double-spend.
func (h *TransferHandlers) writeTransferError(w http.ResponseWriter, endpoint string, userID int64, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "Transfer amount must be positive")
	case errors.Is(err, app.ErrSameAccountTransfer):
		h.writeError(w, http.StatusBadRequest, "Cannot transfer to the same account")
	case errors.Is(err, domain.ErrInvalidBankCode):
		h.writeError(w, http.StatusBadRequest, "Unknown bank code")
	case errors.Is(err, app.ErrInvalidRecipient):
		h.writeError(w, http.StatusBadRequest, "Invalid recipient")
	case errors.Is(err, app.ErrInsufficientFunds):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient balance")
	case rpcstatus.IsKind(err, rpcstatus.KindResourceNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found")
	case rpcstatus.IsKind(err, rpcstatus.KindAccountServiceError),
		rpcstatus.IsKind(err, rpcstatus.KindAccountLookupFailed),
		rpcstatus.IsKind(err, rpcstatus.KindUserServiceError):
		log.Printf("level=warn component=api endpoint=%s user_id=%d reason=account_resolution_failed err=%v", endpoint, userID, err)
		h.writeError(w, http.StatusBadGateway, "Account service is unavailable")
	case errors.Is(err, bankclient.ErrExecutionUnknown):
		log.Printf("level=error component=api endpoint=%s user_id=%d reason=execution_unknown err=%v", endpoint, userID, err)
		h.writeError(w, http.StatusGatewayTimeout, "Transfer status unknown, do not retry")
	case errors.Is(err, app.ErrLedgerAfterExecution):
		log.Printf("level=error component=api endpoint=%s user_id=%d reason=ledger_after_execution err=%v", endpoint, userID, err)
		h.writeError(w, http.StatusInternalServerError, "Transfer executed but could not be recorded")
	default:
		var railErr *bankclient.RailError
		if errors.As(err, &railErr) {
			log.Printf("level=warn component=api endpoint=%s user_id=%d outcome=reject rail_code=%s rail_msg=%q", endpoint, userID, railErr.Code, railErr.Message)
			h.writeError(w, http.StatusBadGateway, "Transfer was rejected by the banking network")
			return
		}
		var remoteErr *rpcstatus.Error
		if errors.As(err, &remoteErr) {
			log.Printf("level=warn component=api endpoint=%s user_id=%d remote_kind=%s err=%v", endpoint, userID, remoteErr.Kind, err)
			h.writeError(w, http.StatusBadGateway, "Upstream service failure")
			return
		}
		log.Printf("level=error component=api endpoint=%s user_id=%d err=%v", endpoint, userID, err)
		h.writeError(w, http.StatusInternalServerError, "Transfer failed")
	}
}

// parseLimit reads the limit query parameter, falling back to a default and
// clamping to a maximum.
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// writeJSON is a helper for writing JSON responses.
func (h *TransferHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *TransferHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
