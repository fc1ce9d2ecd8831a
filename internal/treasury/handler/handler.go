// Package handler wires treasury endpoints to the treasury service.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkdao/internal/treasury/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/httputil"
	"zkdao/pkg/requestcontext"
)

// Service defines the treasury operations the transport layer needs.
type Service interface {
	Deposit(ctx context.Context, from domain.Address, amount *big.Int) error
	QueueWithdrawal(ctx context.Context, recipient domain.Address, amount *big.Int) (domain.WithdrawalID, error)
	ExecuteWithdrawal(ctx context.Context, id domain.WithdrawalID) error
	CancelWithdrawal(ctx context.Context, id domain.WithdrawalID) error
	EmergencyWithdraw(ctx context.Context, recipient domain.Address, amount *big.Int) error
	SetWithdrawalDelay(ctx context.Context, d time.Duration) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	GetWithdrawal(ctx context.Context, id domain.WithdrawalID) (*models.Withdrawal, error)
	PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error)
	Balance(ctx context.Context) (*big.Int, error)
	Paused() bool
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts treasury endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/treasury/deposits", h.HandleDeposit)
	r.Post("/treasury/withdrawals", h.HandleQueueWithdrawal)
	r.Get("/treasury/withdrawals", h.HandlePendingWithdrawals)
	r.Get("/treasury/withdrawals/{id}", h.HandleGetWithdrawal)
	r.Post("/treasury/withdrawals/{id}/execute", h.HandleExecuteWithdrawal)
	r.Post("/treasury/withdrawals/{id}/cancel", h.HandleCancelWithdrawal)
	r.Post("/treasury/emergency-withdrawal", h.HandleEmergencyWithdraw)
	r.Put("/treasury/delay", h.HandleSetDelay)
	r.Post("/treasury/pause", h.HandlePause)
	r.Post("/treasury/unpause", h.HandleUnpause)
	r.Get("/treasury/balance", h.HandleBalance)
}

// HandleDeposit handles POST /treasury/deposits requests.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Deposit(ctx, req.parsedFrom, req.parsedAmount); err != nil {
		h.logger.ErrorContext(ctx, "deposit failed",
			"request_id", requestID,
			"from", req.parsedFrom,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

// HandleQueueWithdrawal handles POST /treasury/withdrawals requests.
func (h *Handler) HandleQueueWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := h.service.QueueWithdrawal(ctx, req.parsedRecipient, req.parsedAmount)
	if err != nil {
		h.logger.ErrorContext(ctx, "queue withdrawal failed",
			"request_id", requestID,
			"recipient", req.parsedRecipient,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, QueueWithdrawalResponse{ID: uint64(id)})
}

// HandlePendingWithdrawals handles GET /treasury/withdrawals requests.
func (h *Handler) HandlePendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ws, err := h.service.PendingWithdrawals(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWithdrawals(ws))
}

// HandleGetWithdrawal handles GET /treasury/withdrawals/{id} requests.
func (h *Handler) HandleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathWithdrawalID(w, r)
	if !ok {
		return
	}

	wd, err := h.service.GetWithdrawal(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWithdrawal(wd))
}

// HandleExecuteWithdrawal handles POST /treasury/withdrawals/{id}/execute requests.
func (h *Handler) HandleExecuteWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathWithdrawalID(w, r)
	if !ok {
		return
	}

	if err := h.service.ExecuteWithdrawal(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "execute withdrawal failed",
			"request_id", requestID,
			"withdrawal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

// HandleCancelWithdrawal handles POST /treasury/withdrawals/{id}/cancel requests.
func (h *Handler) HandleCancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathWithdrawalID(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelWithdrawal(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "cancel withdrawal failed",
			"request_id", requestID,
			"withdrawal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// HandleEmergencyWithdraw handles POST /treasury/emergency-withdrawal requests.
func (h *Handler) HandleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.EmergencyWithdraw(ctx, req.parsedRecipient, req.parsedAmount); err != nil {
		h.logger.ErrorContext(ctx, "emergency withdrawal failed",
			"request_id", requestID,
			"recipient", req.parsedRecipient,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

// HandleSetDelay handles PUT /treasury/delay requests.
func (h *Handler) HandleSetDelay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetDelayRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetWithdrawalDelay(ctx, req.parsedDelay); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"seconds": req.Seconds})
}

// HandlePause handles POST /treasury/pause requests.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Pause(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

// HandleUnpause handles POST /treasury/unpause requests.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Unpause(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// HandleBalance handles GET /treasury/balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	balance, err := h.service.Balance(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance.String(), Paused: h.service.Paused()})
}

func pathWithdrawalID(w http.ResponseWriter, r *http.Request) (domain.WithdrawalID, bool) {
	id, err := domain.ParseWithdrawalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid withdrawal id parameter"))
		return 0, false
	}
	return id, true
}
