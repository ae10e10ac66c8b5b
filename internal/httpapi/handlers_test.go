package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"outdial/internal/audit"
	"outdial/internal/auth"
	"outdial/internal/callrecords"
	"outdial/internal/convo"
	"outdial/internal/dispatch"
	"outdial/internal/leads"
	"outdial/internal/queue"
	"outdial/internal/reporting"
	"outdial/internal/telephony"

	"github.com/gin-gonic/gin"
)

type stubDialer struct {
	mu   sync.Mutex
	next int
}

func (s *stubDialer) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("CA%d", s.next), nil
}

func testIdentity(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), userID, "operator"))
		c.Next()
	}
}

type env struct {
	router  *gin.Engine
	store   *leads.MemoryStore
	groupID string
	leadID  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := leads.NewMemoryStore()
	lead, err := store.AddLead(leads.Lead{UserID: "user-1", Name: "Dana", Phone: "+15550001111"})
	if err != nil {
		t.Fatalf("add lead: %v", err)
	}
	g := store.AddGroup(leads.Group{UserID: "user-1", Name: "prospects"}, []string{lead.ID})

	records := callrecords.NewMemoryRepo()
	queues := queue.NewService(queue.NewMemoryRepo(), store)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := dispatch.New(dispatch.Deps{
		Queues:  queues,
		Records: records,
		Dialer:  &stubDialer{},
		Leads:   store,
		Audit:   audit.NewService(audit.NewMemoryRepo()),
		Logger:  log,
	})

	h := Handlers{
		Queues:     queues,
		Dispatcher: dispatcher,
		Records:    records,
		Convo:      convo.NewService(records, store, nil, log),
		Reporting:  reporting.NewService(records),
	}

	r := gin.New()
	v1 := r.Group("/v1", testIdentity("user-1"))
	v1.POST("/group-calls", h.CreateGroupCall)
	v1.GET("/group-calls", h.ListGroupCalls)
	v1.GET("/group-calls/:id", h.GetGroupCall)
	v1.GET("/group-calls/:id/queue-status", h.GetQueueStatus)
	v1.POST("/group-calls/:id/start", h.StartGroupCall)
	v1.POST("/group-calls/:id/pause", h.PauseGroupCall)
	v1.POST("/calls", h.StartCall)
	v1.GET("/calls", h.ListCalls)
	v1.GET("/reports/calls-summary", h.CallsSummary)
	r.GET("/internal/call-context/:provider_call_id", h.GetCallContext)

	return &env{router: r, store: store, groupID: g.ID, leadID: lead.ID}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateAndStartGroupCall(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/group-calls", fmt.Sprintf(`{"group_id":%q}`, e.groupID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var gc queue.GroupCall
	if err := json.Unmarshal(w.Body.Bytes(), &gc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gc.Status != queue.StatusQueued || gc.TotalLeads != 1 {
		t.Fatalf("unexpected group call: %+v", gc)
	}

	w = e.do(t, http.MethodPost, "/v1/group-calls/"+gc.ID+"/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start: status %d body %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/v1/group-calls/"+gc.ID+"/queue-status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("queue-status: status %d body %s", w.Code, w.Body.String())
	}
	var qs queue.QueueStatus
	if err := json.Unmarshal(w.Body.Bytes(), &qs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if qs.Status != queue.StatusInProgress || qs.TotalLeads != 1 || qs.Remaining != 1 {
		t.Fatalf("unexpected status: %+v", qs)
	}

	// The first placement exists and is visible in listings.
	w = e.do(t, http.MethodGet, "/v1/calls?group_call_id="+gc.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list calls: status %d", w.Code)
	}
	var listing struct {
		Calls []callrecords.Record `json:"calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Calls) != 1 || listing.Calls[0].Status != callrecords.StatusInitiated {
		t.Fatalf("unexpected listing: %+v", listing.Calls)
	}
}

func TestCreateGroupCall_UnknownGroup(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/v1/group-calls", `{"group_id":"nope"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestPauseBeforeStartConflictFree(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/group-calls", fmt.Sprintf(`{"group_id":%q}`, e.groupID))
	var gc queue.GroupCall
	if err := json.Unmarshal(w.Body.Bytes(), &gc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if w := e.do(t, http.MethodPost, "/v1/group-calls/"+gc.ID+"/pause", ""); w.Code != http.StatusOK {
		t.Fatalf("pause from queued: status %d", w.Code)
	}
	// Pausing again is a state machine conflict.
	if w := e.do(t, http.MethodPost, "/v1/group-calls/"+gc.ID+"/pause", ""); w.Code != http.StatusConflict {
		t.Fatalf("double pause: status %d", w.Code)
	}
}

func TestStartCallAndCallContext(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/calls", fmt.Sprintf(`{"lead_id":%q,"purpose":"feedback"}`, e.leadID))
	if w.Code != http.StatusCreated {
		t.Fatalf("start call: status %d body %s", w.Code, w.Body.String())
	}
	var rec callrecords.Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ProviderCallID == "" || rec.Purpose != callrecords.PurposeFeedback {
		t.Fatalf("unexpected record: %+v", rec)
	}

	w = e.do(t, http.MethodGet, "/internal/call-context/"+rec.ProviderCallID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("call context: status %d body %s", w.Code, w.Body.String())
	}
	var cc convo.CallContext
	if err := json.Unmarshal(w.Body.Bytes(), &cc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cc.LeadName != "Dana" || cc.Purpose != callrecords.PurposeFeedback {
		t.Fatalf("unexpected context: %+v", cc)
	}

	if w := e.do(t, http.MethodGet, "/internal/call-context/CA-unknown", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown call context: status %d", w.Code)
	}
}

func TestStartCall_UnknownLead(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/v1/calls", `{"lead_id":"nope"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestCallsSummaryEndpoint(t *testing.T) {
	e := newEnv(t)

	if w := e.do(t, http.MethodPost, "/v1/calls", fmt.Sprintf(`{"lead_id":%q}`, e.leadID)); w.Code != http.StatusCreated {
		t.Fatalf("start call: status %d", w.Code)
	}
	w := e.do(t, http.MethodGet, "/v1/reports/calls-summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary: status %d body %s", w.Code, w.Body.String())
	}
	var out reporting.CallsSummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalCalls != 1 || out.InFlightCalls != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
}
