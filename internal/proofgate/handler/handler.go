// Package handler wires proof gate endpoints to the proof gate service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zkdao/internal/proofgate/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/httputil"
	"zkdao/pkg/requestcontext"
)

// Service defines the proof gate operations the transport layer needs.
type Service interface {
	SubmitProof(ctx context.Context, user domain.Address, proof, publicInputs []byte, commitment, proofHash domain.Hash32, vtype models.VerificationType) error
	KycStatus(ctx context.Context, user domain.Address) (*models.KycStatus, error)
	BatchVerifyMembers(ctx context.Context, users []domain.Address) ([]bool, error)
	AddMember(ctx context.Context, addr domain.Address) error
	VerifyMember(ctx context.Context, addr domain.Address, vtype models.VerificationType) error
	AddVerifier(ctx context.Context, addr domain.Address) error
	RevokeMember(ctx context.Context, addr domain.Address) error
	Policy() models.Policy
	UpdatePolicy(ctx context.Context, p models.Policy) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts proof gate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/members", h.HandleAddMember)
	r.Post("/members/batch-verify", h.HandleBatchVerify)
	r.Get("/members/{address}", h.HandleMemberStatus)
	r.Post("/members/{address}/proofs", h.HandleSubmitProof)
	r.Post("/members/{address}/verify", h.HandleVerifyMember)
	r.Delete("/members/{address}/verification", h.HandleRevokeMember)
	r.Post("/verifiers", h.HandleAddVerifier)
	r.Get("/policy", h.HandleGetPolicy)
	r.Put("/policy", h.HandleUpdatePolicy)
}

// HandleSubmitProof handles POST /members/{address}/proofs requests.
func (h *Handler) HandleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	user, ok := pathAddress(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitProofRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.SubmitProof(ctx, user, req.parsedProof, req.parsedInputs,
		req.parsedCommitment, req.parsedProofHash, req.parsedType)
	if err != nil {
		h.logger.ErrorContext(ctx, "proof submission failed",
			"request_id", requestID,
			"user", user,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"status": "verified"})
}

// HandleMemberStatus handles GET /members/{address} requests.
func (h *Handler) HandleMemberStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := pathAddress(w, r)
	if !ok {
		return
	}

	status, err := h.service.KycStatus(ctx, user)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromKycStatus(status))
}

// HandleBatchVerify handles POST /members/batch-verify requests.
func (h *Handler) HandleBatchVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.service.BatchVerifyMembers(ctx, req.parsedAddresses)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := BatchVerifyResponse{Results: make(map[string]bool, len(results))}
	for i, addr := range req.parsedAddresses {
		resp.Results[addr.String()] = results[i]
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAddMember handles POST /members requests.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddMember(ctx, req.parsedAddress); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"address": req.parsedAddress.String()})
}

// HandleVerifyMember handles POST /members/{address}/verify requests.
func (h *Handler) HandleVerifyMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	user, ok := pathAddress(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.VerifyMember(ctx, user, req.parsedType); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// HandleRevokeMember handles DELETE /members/{address}/verification requests.
func (h *Handler) HandleRevokeMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := pathAddress(w, r)
	if !ok {
		return
	}

	if err := h.service.RevokeMember(ctx, user); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddVerifier handles POST /verifiers requests.
func (h *Handler) HandleAddVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddVerifier(ctx, req.parsedAddress); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"address": req.parsedAddress.String()})
}

// HandleGetPolicy handles GET /policy requests.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PolicyResponse{Policy: uint32(h.service.Policy())})
}

// HandleUpdatePolicy handles PUT /policy requests.
func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdatePolicyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdatePolicy(ctx, req.parsedPolicy); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PolicyResponse{Policy: uint32(req.parsedPolicy)})
}

// pathAddress parses the {address} URL parameter, writing the error response
// on failure.
func pathAddress(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidAddress, "invalid address parameter"))
		return domain.ZeroAddress, false
	}
	return addr, true
}
