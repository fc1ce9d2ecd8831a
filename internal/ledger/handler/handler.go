// Package handler wires voting-power ledger endpoints to the ledger service.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/httputil"
	"zkdao/pkg/requestcontext"
)

// Service defines the ledger operations the transport layer needs.
type Service interface {
	Mint(ctx context.Context, to domain.Address, amount *big.Int) error
	Burn(ctx context.Context, from domain.Address, amount *big.Int) error
	Transfer(ctx context.Context, to domain.Address, amount *big.Int) error
	Delegate(ctx context.Context, delegatee domain.Address) error
	GetVotes(ctx context.Context, account domain.Address) (*big.Int, error)
	GetPastVotes(ctx context.Context, account domain.Address, t time.Time) (*big.Int, error)
	GetPastTotalSupply(ctx context.Context, t time.Time) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, addr domain.Address) (*big.Int, error)
	DelegateOf(ctx context.Context, addr domain.Address) (domain.Address, error)
	SetAutoDelegation(ctx context.Context, enabled bool) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ledger/mint", h.HandleMint)
	r.Post("/ledger/burn", h.HandleBurn)
	r.Post("/ledger/transfer", h.HandleTransfer)
	r.Post("/ledger/delegate", h.HandleDelegate)
	r.Get("/ledger/accounts/{address}", h.HandleAccount)
	r.Get("/ledger/accounts/{address}/votes", h.HandleVotes)
	r.Get("/ledger/supply", h.HandleSupply)
	r.Put("/ledger/auto-delegation", h.HandleSetAutoDelegation)
}

// HandleMint handles POST /ledger/mint requests.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Mint(ctx, req.parsedTo, req.parsedAmount); err != nil {
		h.logger.ErrorContext(ctx, "mint failed",
			"request_id", requestID,
			"to", req.parsedTo,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "minted"})
}

// HandleBurn handles POST /ledger/burn requests.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BurnRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Burn(ctx, req.parsedFrom, req.parsedAmount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "burned"})
}

// HandleTransfer handles POST /ledger/transfer requests.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Transfer(ctx, req.parsedTo, req.parsedAmount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

// HandleDelegate handles POST /ledger/delegate requests.
func (h *Handler) HandleDelegate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DelegateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Delegate(ctx, req.parsedDelegatee); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"delegatee": req.parsedDelegatee.String()})
}

// HandleAccount handles GET /ledger/accounts/{address} requests.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	balance, err := h.service.BalanceOf(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	delegate, err := h.service.DelegateOf(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	votes, err := h.service.GetVotes(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := AccountResponse{
		Address: addr.String(),
		Balance: balance.String(),
		Votes:   votes.String(),
	}
	if !delegate.IsZero() {
		resp.Delegate = delegate.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleVotes handles GET /ledger/accounts/{address}/votes requests. An
// optional ?at=RFC3339 query switches to the historical lookup.
func (h *Handler) HandleVotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	var (
		votes *big.Int
		err   error
	)
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at must be an RFC 3339 timestamp"))
			return
		}
		votes, err = h.service.GetPastVotes(ctx, addr, at)
	} else {
		votes, err = h.service.GetVotes(ctx, addr)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VotesResponse{Address: addr.String(), Votes: votes.String()})
}

// HandleSupply handles GET /ledger/supply requests, with the same optional
// ?at= historical lookup as HandleVotes.
func (h *Handler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		supply *big.Int
		err    error
	)
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at must be an RFC 3339 timestamp"))
			return
		}
		supply, err = h.service.GetPastTotalSupply(ctx, at)
	} else {
		supply, err = h.service.TotalSupply(ctx)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SupplyResponse{Supply: supply.String()})
}

// HandleSetAutoDelegation handles PUT /ledger/auto-delegation requests.
func (h *Handler) HandleSetAutoDelegation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetAutoDelegationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetAutoDelegation(ctx, req.Enabled); err != nil {
		h.logger.ErrorContext(ctx, "auto-delegation update failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func pathAddress(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidAddress, "invalid address parameter"))
		return domain.ZeroAddress, false
	}
	return addr, true
}
