package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	proposalStore "zkdao/internal/proposal/store/proposal"
	"zkdao/internal/proposal/service"
	"zkdao/pkg/domain"
	"zkdao/pkg/testutil"
)

// The handler tests drive the real service over HTTP against the in-memory
// store; only the proof gate, voting power, and executor are stubbed.

type gateStub struct{}

func (gateStub) IsVerified(context.Context, domain.Address) (bool, error) { return true, nil }
func (gateStub) Validate(context.Context, domain.Address, domain.Hash32, domain.Hash32) (bool, error) {
	return true, nil
}
func (gateStub) ConsumeProof(context.Context, domain.Hash32) error { return nil }

type votesStub map[domain.Address]*big.Int

func (v votesStub) GetVotes(_ context.Context, account domain.Address) (*big.Int, error) {
	if votes, ok := v[account]; ok {
		return new(big.Int).Set(votes), nil
	}
	return new(big.Int), nil
}

type executorStub struct{ calls int }

func (e *executorStub) Execute(context.Context, domain.Address, *big.Int, []byte) error {
	e.calls++
	return nil
}

var genesis = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustAddr(t *testing.T, hexByte string) domain.Address {
	t.Helper()
	addr, err := domain.ParseAddress("0x" + strings.Repeat(hexByte, 20))
	if err != nil {
		t.Fatalf("failed to parse address: %v", err)
	}
	return addr
}

func newProposalRouter(t *testing.T) (http.Handler, *executorStub) {
	t.Helper()

	owner := mustAddr(t, "aa")
	member := mustAddr(t, "bb")
	other := mustAddr(t, "cc")
	target := mustAddr(t, "dd")

	executor := &executorStub{}
	svc, err := service.New(proposalStore.New(), gateStub{}, votesStub{
		member: big.NewInt(80),
		other:  big.NewInt(50),
	}, executor, owner,
		service.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		service.WithVotingPeriod(24*time.Hour),
		service.WithQuorumThreshold(big.NewInt(100)),
		service.WithExecutionDelay(48*time.Hour),
		service.WithProposalThreshold(big.NewInt(10)),
		service.WithAllowedTarget(target),
	)
	if err != nil {
		t.Fatalf("failed to build proposal service: %v", err)
	}

	router := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(router)
	return router, executor
}

func doJSON(router http.Handler, method, path string, payload any, caller string, at time.Time) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req = testutil.WithCaller(req, caller)
	}
	req = testutil.WithTime(req, at)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func hash(seed byte) string {
	return "0x" + strings.Repeat("00", 31) + string([]byte{hexDigit(seed >> 4), hexDigit(seed & 0x0f)})
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + n - 10
}

func TestProposalLifecycleViaHandlers(t *testing.T) {
	router, executor := newProposalRouter(t)
	member := "0x" + strings.Repeat("bb", 20)
	other := "0x" + strings.Repeat("cc", 20)
	target := "0x" + strings.Repeat("dd", 20)

	rec := doJSON(router, http.MethodPost, "/proposals", map[string]any{
		"title":      "fund grants",
		"target":     target,
		"value":      "500",
		"commitment": hash(1),
		"proof_hash": hash(2),
	}, member, genesis)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating proposal, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID uint64 `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected proposal id 1, got %d", created.ID)
	}

	rec = doJSON(router, http.MethodPost, "/proposals/1/votes", map[string]any{
		"choice":     "for",
		"commitment": hash(3),
		"proof_hash": hash(4),
	}, member, genesis.Add(time.Hour))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 voting, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(router, http.MethodPost, "/proposals/1/votes", map[string]any{
		"choice":     "abstain",
		"commitment": hash(5),
		"proof_hash": hash(6),
	}, other, genesis.Add(2*time.Hour))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 voting, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodGet, "/proposals/1", nil, member, genesis.Add(3*time.Hour))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching proposal, got %d", rec.Code)
	}
	var got struct {
		ForVotes     string `json:"for_votes"`
		AbstainVotes string `json:"abstain_votes"`
		State        string `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode proposal response: %v", err)
	}
	if got.ForVotes != "80" || got.AbstainVotes != "50" || got.State != "active" {
		t.Fatalf("unexpected tallies: %+v", got)
	}

	finalizedAt := genesis.Add(25 * time.Hour)
	rec = doJSON(router, http.MethodPost, "/proposals/1/finalize", nil, member, finalizedAt)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 finalizing, got %d: %s", rec.Code, rec.Body.String())
	}
	var finalized struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&finalized); err != nil {
		t.Fatalf("failed to decode finalize response: %v", err)
	}
	if finalized.State != "passed" {
		t.Fatalf("expected proposal to pass, got %q", finalized.State)
	}

	rec = doJSON(router, http.MethodPost, "/proposals/1/execute", map[string]any{
		"commitment": hash(7),
		"proof_hash": hash(8),
	}, member, finalizedAt.Add(48*time.Hour))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 executing, got %d: %s", rec.Code, rec.Body.String())
	}
	if executor.calls != 1 {
		t.Fatalf("expected one executor call, got %d", executor.calls)
	}

	rec = doJSON(router, http.MethodGet, "/proposals/1/execution", nil, member, finalizedAt.Add(49*time.Hour))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching execution, got %d", rec.Code)
	}
	var execution struct {
		Executed bool   `json:"executed"`
		Value    string `json:"value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&execution); err != nil {
		t.Fatalf("failed to decode execution response: %v", err)
	}
	if !execution.Executed || execution.Value != "500" {
		t.Fatalf("unexpected execution record: %+v", execution)
	}
}

func TestVoteErrorTranslation(t *testing.T) {
	router, _ := newProposalRouter(t)
	member := "0x" + strings.Repeat("bb", 20)
	target := "0x" + strings.Repeat("dd", 20)

	rec := doJSON(router, http.MethodPost, "/proposals", map[string]any{
		"title":      "fund grants",
		"target":     target,
		"commitment": hash(1),
		"proof_hash": hash(2),
	}, member, genesis)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating proposal, got %d", rec.Code)
	}

	vote := map[string]any{
		"choice":     "for",
		"commitment": hash(3),
		"proof_hash": hash(4),
	}
	if rec := doJSON(router, http.MethodPost, "/proposals/1/votes", vote, member, genesis.Add(time.Hour)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 voting, got %d", rec.Code)
	}

	// Double vote maps to 409.
	if rec := doJSON(router, http.MethodPost, "/proposals/1/votes", vote, member, genesis.Add(2*time.Hour)); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double vote, got %d", rec.Code)
	}

	// Unknown proposal maps to 404.
	if rec := doJSON(router, http.MethodPost, "/proposals/9/votes", vote, member, genesis.Add(time.Hour)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown proposal, got %d", rec.Code)
	}

	// Malformed choice never reaches the service.
	bad := map[string]any{"choice": "maybe", "commitment": hash(5), "proof_hash": hash(6)}
	if rec := doJSON(router, http.MethodPost, "/proposals/1/votes", bad, member, genesis.Add(time.Hour)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid choice, got %d", rec.Code)
	}

	// Unauthenticated requests map to 401.
	if rec := doJSON(router, http.MethodPost, "/proposals/1/votes", vote, "", genesis.Add(time.Hour)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a caller, got %d", rec.Code)
	}

	// Non-numeric path ids map to 400.
	if rec := doJSON(router, http.MethodGet, "/proposals/abc", nil, member, genesis); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestGovernanceParamsRequireOwner(t *testing.T) {
	router, _ := newProposalRouter(t)
	owner := "0x" + strings.Repeat("aa", 20)
	member := "0x" + strings.Repeat("bb", 20)

	payload := map[string]any{"seconds": int64(3600)}
	if rec := doJSON(router, http.MethodPut, "/governance/voting-period", payload, member, genesis); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-owner, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodPut, "/governance/voting-period", payload, owner, genesis); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", rec.Code, rec.Body.String())
	}

	quorum := map[string]any{"quorum": "250"}
	if rec := doJSON(router, http.MethodPut, "/governance/quorum", quorum, owner, genesis); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating quorum, got %d: %s", rec.Code, rec.Body.String())
	}
}
