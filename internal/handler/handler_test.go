package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/config"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/pipeline"
	"golang.org/x/crypto/bcrypt"
)

type memoryProposalStore struct {
	mu        sync.Mutex
	proposals map[string]*PendingProposal
}

func newMemoryProposalStore() *memoryProposalStore {
	return &memoryProposalStore{proposals: make(map[string]*PendingProposal)}
}

func (s *memoryProposalStore) Save(ctx context.Context, p *PendingProposal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ID] = p
	return nil
}

func (s *memoryProposalStore) Get(ctx context.Context, id string) (*PendingProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

func (s *memoryProposalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proposals, id)
	return nil
}

type memoryRecorder struct {
	saved []*optimizer.Assignment
}

func (r *memoryRecorder) SaveAssignment(a *optimizer.Assignment) error {
	r.saved = append(r.saved, a)
	return nil
}

type memoryNotifier struct {
	sent []*domain.MailMessage
}

func (n *memoryNotifier) Send(ctx context.Context, msg *domain.MailMessage) error {
	n.sent = append(n.sent, msg)
	return nil
}

type testResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	handler  *Handler
	recorder *memoryRecorder
	notifier *memoryNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := &config.Config{}
	cfg.Operator.Username = "operator"
	cfg.Operator.PasswordHash = string(hash)
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.Proposal.Expiration = 1800

	cal := domain.NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 14)
	roster := domain.NewRoster(cal)

	wa := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
	emp := domain.NewEmployee("Ann Lee", "C01", "Lee, Ann #", domain.EmploymentCasual, domain.ContractNoIFA)
	emp.Email = "c01@example.com"
	emp.AddWorkArea(wa)
	roster.AddEmployee(emp)

	shift, err := cal.NewShift(domain.ShiftSpec{
		Start:    time.Date(2024, time.October, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2024, time.October, 3, 13, 0, 0, 0, time.UTC),
		WorkArea: wa,
		Attended: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roster.AddUnassignedShift(shift)

	optimizerParams := optimizer.DefaultParameters()
	optimizerParams.Now = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
	p := pipeline.New(roster, pipeline.Options{Optimizer: optimizerParams}, nil)

	recorder := &memoryRecorder{}
	notifier := &memoryNotifier{}
	h, err := NewHandler(cfg, p, newMemoryProposalStore(), recorder, notifier, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.RegisterRoutes()

	return &testServer{handler: h, recorder: recorder, notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) (testResponse, *http.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error decoding %s %s: %v", method, path, err)
	}
	return resp, rec.Result()
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()

	resp, res := s.do(t, http.MethodPost, "/auth/login", `{"username":"operator","password":"secret"}`, nil)
	if !resp.Success {
		t.Fatalf("expected login to succeed, got %s", resp.Message)
	}
	for _, c := range res.Cookies() {
		if c.Name == tokenCookieName {
			return c
		}
	}
	t.Fatalf("expected token cookie")
	return nil
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/summary", "", nil)
	if resp.Success {
		t.Fatalf("expected failure without cookie")
	}

	resp, _ = s.do(t, http.MethodGet, "/summary", "", &http.Cookie{Name: tokenCookieName, Value: "garbage"})
	if resp.Success {
		t.Fatalf("expected failure with invalid token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/auth/login", `{"username":"operator","password":"wrong"}`, nil)
	if resp.Success {
		t.Fatalf("expected login to fail")
	}

	resp, _ = s.do(t, http.MethodPost, "/auth/login", `{"username":"operator"}`, nil)
	if resp.Success || resp.Message == "" {
		t.Fatalf("expected validation message, got %+v", resp)
	}
}

func TestProposalLifecycle(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	resp, _ := s.do(t, http.MethodGet, "/proposals/next", "", cookie)
	if !resp.Success {
		t.Fatalf("expected proposal, got %s", resp.Message)
	}
	var proposal proposalView
	if err := json.Unmarshal(resp.Data, &proposal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proposal.EmployeeCode != "C01" || proposal.ID == "" {
		t.Fatalf("expected proposal for C01, got %+v", proposal)
	}

	// 规则判断
	resp, _ = s.do(t, http.MethodGet, "/employees/C01/eligibility?shift="+url.QueryEscape(proposal.ShiftKey), "", cookie)
	if !resp.Success || !strings.Contains(string(resp.Data), `"eligible":true`) {
		t.Fatalf("expected eligible verdict, got %s %s", resp.Message, resp.Data)
	}

	// 缺少 accepted 字段
	resp, _ = s.do(t, http.MethodPost, "/proposals/"+proposal.ID+"/respond", `{}`, cookie)
	if resp.Success {
		t.Fatalf("expected validation failure")
	}

	resp, _ = s.do(t, http.MethodPost, "/proposals/"+proposal.ID+"/respond", `{"accepted":true}`, cookie)
	if !resp.Success || !strings.Contains(string(resp.Data), string(optimizer.OutcomeAssigned)) {
		t.Fatalf("expected assigned outcome, got %s %s", resp.Message, resp.Data)
	}
	if len(s.recorder.saved) != 1 {
		t.Fatalf("expected 1 saved assignment, got %d", len(s.recorder.saved))
	}
	if len(s.notifier.sent) != 1 || s.notifier.sent[0].To != "c01@example.com" {
		t.Fatalf("expected shift offer to c01@example.com, got %v", s.notifier.sent)
	}

	// 已处理的提议不能再次处理
	resp, _ = s.do(t, http.MethodPost, "/proposals/"+proposal.ID+"/respond", `{"accepted":true}`, cookie)
	if resp.Success {
		t.Fatalf("expected stale proposal to be rejected")
	}

	resp, _ = s.do(t, http.MethodGet, "/proposals/next", "", cookie)
	if !resp.Success || string(resp.Data) != "null" {
		t.Fatalf("expected no further proposals, got %s", resp.Data)
	}

	resp, _ = s.do(t, http.MethodGet, "/summary", "", cookie)
	var summary struct {
		Summary optimizer.Summary `json:"summary"`
	}
	if err := json.Unmarshal(resp.Data, &summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Summary.Assigned != 1 || summary.Summary.Remaining != 0 {
		t.Fatalf("expected 1 assigned and 0 remaining, got %+v", summary.Summary)
	}
}

func TestEmployeeCompliance(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	resp, _ := s.do(t, http.MethodGet, "/employees/C01/compliance", "", cookie)
	if !resp.Success || !strings.Contains(string(resp.Data), `"employeeCode":"C01"`) {
		t.Fatalf("expected compliance report for C01, got %s %s", resp.Message, resp.Data)
	}

	resp, _ = s.do(t, http.MethodGet, "/employees/X99/compliance", "", cookie)
	if resp.Success {
		t.Fatalf("expected unknown employee to fail")
	}
}

func nextProposal(t *testing.T, s *testServer, cookie *http.Cookie) proposalView {
	t.Helper()

	resp, _ := s.do(t, http.MethodGet, "/proposals/next", "", cookie)
	if !resp.Success {
		t.Fatalf("expected proposal, got %s", resp.Message)
	}
	var proposal proposalView
	if err := json.Unmarshal(resp.Data, &proposal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return proposal
}

func TestRejectedPairCannotBeAcceptedThroughAnotherID(t *testing.T) {
	s := newTestServer(t)

	wa := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
	other := domain.NewEmployee("Bea Ng", "C02", "Ng, Bea #", domain.EmploymentCasual, domain.ContractNoIFA)
	other.AddWorkArea(wa)
	s.handler.pipeline.Roster.AddEmployee(other)

	cookie := s.login(t)

	first := nextProposal(t, s, cookie)
	second := nextProposal(t, s, cookie)
	if first.ID == second.ID || first.EmployeeCode != second.EmployeeCode || first.ShiftKey != second.ShiftKey {
		t.Fatalf("expected two ids for the same pair, got %+v and %+v", first, second)
	}

	resp, _ := s.do(t, http.MethodPost, "/proposals/"+first.ID+"/respond", `{"accepted":false}`, cookie)
	if !resp.Success || !strings.Contains(string(resp.Data), string(optimizer.OutcomeRejected)) {
		t.Fatalf("expected rejected outcome, got %s %s", resp.Message, resp.Data)
	}

	resp, _ = s.do(t, http.MethodPost, "/proposals/"+second.ID+"/respond", `{"accepted":true}`, cookie)
	if resp.Success {
		t.Fatalf("expected accepting a rejected pair to fail")
	}
	if resp.Code != CodeConflict {
		t.Fatalf("expected code %q, got %q", CodeConflict, resp.Code)
	}
	if len(s.recorder.saved) != 0 {
		t.Fatalf("expected no saved assignments, got %d", len(s.recorder.saved))
	}

	// 作废的提议已被删除
	resp, _ = s.do(t, http.MethodPost, "/proposals/"+second.ID+"/respond", `{"accepted":true}`, cookie)
	if resp.Success || resp.Code != CodeNotFound {
		t.Fatalf("expected stale id to be gone, got %+v", resp)
	}

	next := nextProposal(t, s, cookie)
	if next.EmployeeCode == first.EmployeeCode {
		t.Fatalf("expected the next proposal to go to another employee, got %s", next.EmployeeCode)
	}
}
