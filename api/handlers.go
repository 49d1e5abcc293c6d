/*
handlers.go - HTTP handlers for the ledger engine

PURPOSE:
  Exposes the engine via REST. Handlers parse HTTP, build engine
  commands, and translate the error taxonomy to status codes. No
  ledger rule lives here.

IDENTITY:
  The caller is named by the X-User-Id header. Authentication happens
  upstream (reverse proxy, gateway); this layer only needs to know who
  is asking so the engine's role gate can decide. A missing header is
  401.

ERROR MAPPING:
  not found / hidden           -> 404
  visible but not allowed      -> 403
  duplicate name, cap reached  -> 409
  bad amount, bad shape        -> 400
  anything else                -> 500

SEE ALSO:
  - dto.go: wire shapes
  - server.go: router setup and middleware
  - engine: the operations behind every endpoint
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Oghma/sparagne/engine"
	"github.com/Oghma/sparagne/ledger"
)

// Handler holds the dependencies of every endpoint.
type Handler struct {
	Engine *engine.Engine
}

// NewHandler creates a handler on top of the engine.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{Engine: e}
}

// =============================================================================
// IDENTITY
// =============================================================================

type contextKey string

const userIDKey contextKey = "user-id"

// requireUser extracts the caller identity from X-User-Id.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Missing X-User-Id header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// RegisterUser makes a principal known to the engine.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.RegisterUser(r.Context(), req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": req.UserID})
}

// =============================================================================
// VAULT HANDLERS
// =============================================================================

// CreateVault creates a vault owned by the caller.
func (h *Handler) CreateVault(w http.ResponseWriter, r *http.Request) {
	var req CreateVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	vault, err := h.Engine.NewVault(r.Context(), callerID(r), req.Name, req.Currency)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVaultDTO(vault))
}

// GetVault returns the vault with its wallets and flows.
func (h *Handler) GetVault(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	snap, err := h.Engine.VaultSnapshot(r.Context(), callerID(r), vaultID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := VaultSnapshotDTO{
		Vault:   toVaultDTO(snap.Vault),
		Wallets: make([]WalletDTO, len(snap.Wallets)),
		Flows:   make([]FlowDTO, len(snap.Flows)),
	}
	for i, wallet := range snap.Wallets {
		dto.Wallets[i] = toWalletDTO(wallet)
	}
	for i, flow := range snap.Flows {
		dto.Flows[i] = toFlowDTO(flow)
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteVault removes a vault and everything in it.
func (h *Handler) DeleteVault(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	if err := h.Engine.DeleteVault(r.Context(), callerID(r), vaultID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetStatistics returns vault totals.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	stats, err := h.Engine.VaultStatistics(r.Context(), callerID(r), vaultID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatisticsDTO{
		Currency:     string(stats.Currency),
		TotalBalance: ledger.FormatAmount(stats.TotalBalance),
		TotalIncome:  ledger.FormatAmount(stats.TotalIncome),
		NetExpenses:  ledger.FormatAmount(stats.NetExpenses),
	})
}

// RecomputeBalances rebuilds the vault's balances from the leg history.
func (h *Handler) RecomputeBalances(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	if err := h.Engine.RecomputeBalances(r.Context(), callerID(r), vaultID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recomputed"})
}

// =============================================================================
// WALLET HANDLERS
// =============================================================================

// CreateWallet adds a wallet to a vault.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	wallet, err := h.Engine.NewWallet(r.Context(), callerID(r), vaultID, req.Name, req.OpeningBalance)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWalletDTO(wallet))
}

// GetWallet returns one wallet.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := uuidParam(w, r, "walletID")
	if !ok {
		return
	}
	wallet, err := h.Engine.Wallet(r.Context(), callerID(r), walletID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletDTO(wallet))
}

// RenameWallet changes a wallet's name.
func (h *Handler) RenameWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := uuidParam(w, r, "walletID")
	if !ok {
		return
	}
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.RenameWallet(r.Context(), callerID(r), walletID, req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// ArchiveWallet toggles a wallet's archived flag.
func (h *Handler) ArchiveWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := uuidParam(w, r, "walletID")
	if !ok {
		return
	}
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.SetWalletArchived(r.Context(), callerID(r), walletID, req.Archived); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListWalletTransactions pages through a wallet's history.
func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	walletID, ok := uuidParam(w, r, "walletID")
	if !ok {
		return
	}
	filter, cursor, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	page, err := h.Engine.ListWalletTransactions(r.Context(), callerID(r), walletID, filter, cursor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTargetPageDTO(page))
}

// =============================================================================
// FLOW HANDLERS
// =============================================================================

// CreateFlow adds a cash flow to a vault.
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	var req CreateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	flow, err := h.Engine.NewCashFlow(r.Context(), callerID(r), vaultID, engine.FlowCommand{
		Name:            req.Name,
		MaxBalance:      req.MaxBalance,
		IncomeTotal:     req.IncomeTotal,
		StartingBalance: req.StartingBalance,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFlowDTO(flow))
}

// GetFlow returns one cash flow.
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	flow, err := h.Engine.CashFlow(r.Context(), callerID(r), flowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowDTO(flow))
}

// RenameFlow changes a flow's name.
func (h *Handler) RenameFlow(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.RenameCashFlow(r.Context(), callerID(r), flowID, req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// ArchiveFlow toggles a flow's archived flag.
func (h *Handler) ArchiveFlow(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.SetCashFlowArchived(r.Context(), callerID(r), flowID, req.Archived); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetFlowMode changes a flow's cap mode.
func (h *Handler) SetFlowMode(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	var req SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	flow, err := h.Engine.SetCashFlowMode(r.Context(), callerID(r), flowID, engine.ModeCommand{
		MaxBalance:   req.MaxBalance,
		IncomeCapped: req.IncomeCapped,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowDTO(flow))
}

// DeleteFlow removes an empty flow.
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	if err := h.Engine.DeleteCashFlow(r.Context(), callerID(r), flowID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListFlowTransactions pages through a flow's history.
func (h *Handler) ListFlowTransactions(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	filter, cursor, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	page, err := h.Engine.ListFlowTransactions(r.Context(), callerID(r), flowID, filter, cursor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTargetPageDTO(page))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records an income, expense, refund or transfer.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	kind, err := ledger.ParseKind(req.Kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	userID := callerID(r)
	var occurredAt time.Time
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	var txn ledger.Transaction
	if kind.IsTransfer() {
		cmd := engine.TransferCommand{
			From:           selector(req.From),
			To:             selector(req.To),
			Amount:         req.Amount,
			OccurredAt:     occurredAt,
			Category:       req.Category,
			Note:           req.Note,
			IdempotencyKey: req.IdempotencyKey,
		}
		if kind == ledger.KindTransferWallet {
			txn, err = h.Engine.TransferWallet(ctx, userID, vaultID, cmd)
		} else {
			txn, err = h.Engine.TransferFlow(ctx, userID, vaultID, cmd)
		}
	} else {
		cmd := engine.EntryCommand{
			Wallet:         selector(req.Wallet),
			Flow:           selector(req.Flow),
			Amount:         req.Amount,
			OccurredAt:     occurredAt,
			Category:       req.Category,
			Note:           req.Note,
			IdempotencyKey: req.IdempotencyKey,
		}
		switch kind {
		case ledger.KindIncome:
			txn, err = h.Engine.Income(ctx, userID, vaultID, cmd)
		case ledger.KindExpense:
			txn, err = h.Engine.Expense(ctx, userID, vaultID, cmd)
		default:
			txn, err = h.Engine.Refund(ctx, userID, vaultID, cmd)
		}
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(txn))
}

// ListVaultTransactions pages through a vault's history.
func (h *Handler) ListVaultTransactions(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	filter, cursor, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	page, err := h.Engine.ListVaultTransactions(r.Context(), callerID(r), vaultID, filter, cursor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageDTO(page))
}

// GetTransaction returns a transaction with its legs.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txID, ok := uuidParam(w, r, "transactionID")
	if !ok {
		return
	}
	txn, legs, err := h.Engine.TransactionWithLegs(r.Context(), callerID(r), txID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dto := TransactionDetailDTO{
		TransactionDTO: toTransactionDTO(txn),
		Legs:           make([]LegDTO, len(legs)),
	}
	for i, leg := range legs {
		dto.Legs[i] = toLegDTO(leg)
	}
	writeJSON(w, http.StatusOK, dto)
}

// VoidTransaction reverses a transaction.
func (h *Handler) VoidTransaction(w http.ResponseWriter, r *http.Request) {
	txID, ok := uuidParam(w, r, "transactionID")
	if !ok {
		return
	}
	txn, err := h.Engine.VoidTransaction(r.Context(), callerID(r), txID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(txn))
}

// UpdateTransaction amends a transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	txID, ok := uuidParam(w, r, "transactionID")
	if !ok {
		return
	}
	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	txn, err := h.Engine.UpdateTransaction(r.Context(), callerID(r), txID, engine.UpdateCommand{
		Amount:     req.Amount,
		OccurredAt: req.OccurredAt,
		Category:   req.Category,
		Note:       req.Note,
		Wallet:     selectorPtr(req.Wallet),
		Flow:       selectorPtr(req.Flow),
		From:       selectorPtr(req.From),
		To:         selectorPtr(req.To),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(txn))
}

// =============================================================================
// MEMBERSHIP HANDLERS
// =============================================================================

// ListVaultMembers lists a vault's role grants.
func (h *Handler) ListVaultMembers(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	members, err := h.Engine.ListVaultMembers(r.Context(), callerID(r), vaultID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberDTOs(members)})
}

// UpsertVaultMember grants or changes a vault role.
func (h *Handler) UpsertVaultMember(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	req, role, ok := parseMemberRequest(w, r)
	if !ok {
		return
	}
	if err := h.Engine.UpsertVaultMember(r.Context(), callerID(r), vaultID, req.UserID, role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveVaultMember revokes a vault role.
func (h *Handler) RemoveVaultMember(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "vaultID")
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "userID")
	if err := h.Engine.RemoveVaultMember(r.Context(), callerID(r), vaultID, memberID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListFlowMembers lists a flow's role grants.
func (h *Handler) ListFlowMembers(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	members, err := h.Engine.ListFlowMembers(r.Context(), callerID(r), flowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberDTOs(members)})
}

// UpsertFlowMember grants or changes a flow-scoped role.
func (h *Handler) UpsertFlowMember(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	req, role, ok := parseMemberRequest(w, r)
	if !ok {
		return
	}
	if err := h.Engine.UpsertFlowMember(r.Context(), callerID(r), flowID, req.UserID, role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveFlowMember revokes a flow-scoped role.
func (h *Handler) RemoveFlowMember(w http.ResponseWriter, r *http.Request) {
	flowID, ok := uuidParam(w, r, "flowID")
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "userID")
	if err := h.Engine.RemoveFlowMember(r.Context(), callerID(r), flowID, memberID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the ledger error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, ledger.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", err)
		return uuid.UUID{}, false
	}
	return id, true
}

// selector accepts either a wallet/flow id or a name.
func selector(s string) engine.Selector {
	if id, err := uuid.Parse(s); err == nil {
		return engine.ByID(id)
	}
	return engine.ByName(s)
}

func selectorPtr(s *string) *engine.Selector {
	if s == nil {
		return nil
	}
	sel := selector(*s)
	return &sel
}

func parseMemberRequest(w http.ResponseWriter, r *http.Request) (MemberRequest, ledger.Role, bool) {
	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, "", false
	}
	role, err := ledger.ParseRole(req.Role)
	if err != nil {
		writeDomainError(w, err)
		return req, "", false
	}
	return req, role, true
}

// parseListQuery decodes the listing filter from query parameters:
// from/to (RFC3339), kinds (comma-separated), include_voided,
// include_transfers, limit and cursor.
func parseListQuery(w http.ResponseWriter, r *http.Request) (ledger.ListFilter, string, bool) {
	var f ledger.ListFilter
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' timestamp (use RFC3339)", err)
			return f, "", false
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' timestamp (use RFC3339)", err)
			return f, "", false
		}
		f.To = &t
	}
	if raw := q.Get("kinds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind, err := ledger.ParseKind(strings.TrimSpace(part))
			if err != nil {
				writeDomainError(w, err)
				return f, "", false
			}
			f.Kinds = append(f.Kinds, kind)
		}
	}
	f.IncludeVoided = q.Get("include_voided") == "true"
	f.IncludeTransfers = q.Get("include_transfers") == "true"
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return f, "", false
		}
		f.Limit = limit
	}
	return f, q.Get("cursor"), true
}
