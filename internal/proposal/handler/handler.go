// Package handler wires proposal lifecycle endpoints to the proposal service.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/httputil"
	"zkdao/pkg/requestcontext"
)

// Service defines the proposal operations the transport layer needs.
type Service interface {
	CreateProposal(ctx context.Context, title, description string, target domain.Address, value *big.Int, payload []byte, commitment, proofHash domain.Hash32) (domain.ProposalID, error)
	Vote(ctx context.Context, id domain.ProposalID, choice models.VoteChoice, commitment, proofHash domain.Hash32) error
	FinalizeProposal(ctx context.Context, id domain.ProposalID) (models.ProposalState, error)
	ExecuteProposal(ctx context.Context, id domain.ProposalID, commitment, proofHash domain.Hash32) error
	CancelProposal(ctx context.Context, id domain.ProposalID) error
	GetProposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)
	GetExecution(ctx context.Context, id domain.ProposalID) (*models.Execution, error)
	GetVoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) (*models.VoteRecord, error)
	SetAllowedTarget(ctx context.Context, target domain.Address, allowed bool) error
	SetVotingPeriod(ctx context.Context, d time.Duration) error
	SetQuorumThreshold(ctx context.Context, q *big.Int) error
	SetExecutionDelay(ctx context.Context, d time.Duration) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts proposal and governance-parameter endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proposals", h.HandleCreate)
	r.Get("/proposals/{id}", h.HandleGet)
	r.Get("/proposals/{id}/execution", h.HandleGetExecution)
	r.Post("/proposals/{id}/votes", h.HandleVote)
	r.Get("/proposals/{id}/votes/{address}", h.HandleGetVote)
	r.Post("/proposals/{id}/finalize", h.HandleFinalize)
	r.Post("/proposals/{id}/execute", h.HandleExecute)
	r.Post("/proposals/{id}/cancel", h.HandleCancel)

	r.Put("/governance/targets", h.HandleSetAllowedTarget)
	r.Put("/governance/voting-period", h.HandleSetVotingPeriod)
	r.Put("/governance/quorum", h.HandleSetQuorum)
	r.Put("/governance/execution-delay", h.HandleSetExecutionDelay)
}

// HandleCreate handles POST /proposals requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateProposalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := h.service.CreateProposal(ctx, req.Title, req.Description, req.parsedTarget, req.parsedValue, req.parsedPayload, req.parsedCommitment, req.parsedProofHash)
	if err != nil {
		h.logger.ErrorContext(ctx, "create proposal failed",
			"request_id", requestID,
			"target", req.parsedTarget,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateProposalResponse{ID: uint64(id)})
}

// HandleGet handles GET /proposals/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProposal(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(p))
}

// HandleGetExecution handles GET /proposals/{id}/execution requests.
func (h *Handler) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}

	e, err := h.service.GetExecution(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromExecution(e))
}

// HandleVote handles POST /proposals/{id}/votes requests.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Vote(ctx, id, req.parsedChoice, req.parsedCommitment, req.parsedProofHash); err != nil {
		h.logger.ErrorContext(ctx, "vote failed",
			"request_id", requestID,
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "voted"})
}

// HandleGetVote handles GET /proposals/{id}/votes/{address} requests.
func (h *Handler) HandleGetVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}
	voter, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidAddress, "invalid address parameter"))
		return
	}

	v, err := h.service.GetVoteRecord(ctx, id, voter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVoteRecord(v))
}

// HandleFinalize handles POST /proposals/{id}/finalize requests.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}

	state, err := h.service.FinalizeProposal(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "finalize proposal failed",
			"request_id", requestID,
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FinalizeResponse{ID: uint64(id), State: string(state)})
}

// HandleExecute handles POST /proposals/{id}/execute requests.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ExecuteProposalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ExecuteProposal(ctx, id, req.parsedCommitment, req.parsedProofHash); err != nil {
		h.logger.ErrorContext(ctx, "execute proposal failed",
			"request_id", requestID,
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

// HandleCancel handles POST /proposals/{id}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathProposalID(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelProposal(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "cancel proposal failed",
			"request_id", requestID,
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// HandleSetAllowedTarget handles PUT /governance/targets requests.
func (h *Handler) HandleSetAllowedTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetAllowedTargetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetAllowedTarget(ctx, req.parsedTarget, req.Allowed); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"target": req.parsedTarget.String(), "allowed": req.Allowed})
}

// HandleSetVotingPeriod handles PUT /governance/voting-period requests.
func (h *Handler) HandleSetVotingPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetDurationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetVotingPeriod(ctx, req.parsedDuration); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"seconds": req.Seconds})
}

// HandleSetQuorum handles PUT /governance/quorum requests.
func (h *Handler) HandleSetQuorum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetQuorumRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetQuorumThreshold(ctx, req.parsedQuorum); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"quorum": req.parsedQuorum.String()})
}

// HandleSetExecutionDelay handles PUT /governance/execution-delay requests.
func (h *Handler) HandleSetExecutionDelay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetDurationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetExecutionDelay(ctx, req.parsedDuration); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"seconds": req.Seconds})
}

func pathProposalID(w http.ResponseWriter, r *http.Request) (domain.ProposalID, bool) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid proposal id parameter"))
		return 0, false
	}
	return id, true
}
