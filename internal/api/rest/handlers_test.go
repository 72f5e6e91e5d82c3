package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bwbexpress/leadflow-backend/internal/domain/verification"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/repository"
	"github.com/bwbexpress/leadflow-backend/internal/service/ingest"
	"github.com/bwbexpress/leadflow-backend/internal/service/prospect"
	"github.com/bwbexpress/leadflow-backend/internal/service/verification"
)

type stubResolver struct{}

func (stubResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return []*net.MX{{Host: "mx.example.com.", Pref: 10}}, nil
}

func (stubResolver) HasMXRecords(ctx context.Context, domain string) bool { return true }

type stubProber struct{}

func (stubProber) Probe(ctx context.Context, dom, email string) (domain.Status, string) {
	return domain.StatusValid, domain.ReasonSMTPOK
}

type stubCarrier struct{}

func (stubCarrier) Lookup(ctx context.Context, e164 string) domain.Result {
	return domain.NewResult(domain.StatusValid, domain.LineTypeReason("mobile"), 0.9)
}

type recordingOrchestrator struct {
	mu          sync.Mutex
	orchestrate []string
	smsFrom     []string
	smsBody     []string
	emailFrom   []string
}

func (o *recordingOrchestrator) Orchestrate(ctx context.Context, leadID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orchestrate = append(o.orchestrate, leadID)
	return nil
}

func (o *recordingOrchestrator) HandleInboundSMS(ctx context.Context, from, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.smsFrom = append(o.smsFrom, from)
	o.smsBody = append(o.smsBody, body)
	return nil
}

func (o *recordingOrchestrator) HandleInboundEmail(ctx context.Context, from, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emailFrom = append(o.emailFrom, from)
	return nil
}

func (o *recordingOrchestrator) orchestrated() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.orchestrate...)
}

type stubSource struct{ candidates []prospect.Candidate }

func (s stubSource) Search(ctx context.Context, _, _ string, _ int) ([]prospect.Candidate, error) {
	return s.candidates, nil
}

type testServer struct {
	server *httptest.Server
	repo   *repository.MemoryLeadRepository
	orch   *recordingOrchestrator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repository.NewMemoryLeadRepository()
	log := repository.NewMemoryMessageLog()
	orch := &recordingOrchestrator{}

	verifier := verification.NewService(stubResolver{}, stubProber{}, stubCarrier{}, nil)
	prospector := prospect.NewService(
		stubSource{},
		stubSource{candidates: []prospect.Candidate{
			{Name: "Gem City Plumbing", Phone: "+19375550177", Company: "Gem City Plumbing", Source: prospect.SourceYelp},
		}},
		repo, "America/New_York", nil)
	importer := ingest.NewService(repo, "America/New_York", nil)

	handler := NewHandler(repo, log, verifier, prospector, importer, orch, "America/New_York", nil)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)

	return &testServer{server: server, repo: repo, orch: orch}
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateLead(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/leads", map[string]any{
		"name":        "Maria Lopez",
		"phone":       "+15551234567",
		"email":       "maria@lopezbakery.com",
		"company":     "Lopez Bakery",
		"consent_sms": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decode[map[string]any](t, resp)
	assert.Equal(t, "lead_1", out["id"])

	stored, err := ts.repo.GetByID(context.Background(), "lead_1")
	require.NoError(t, err)
	assert.True(t, stored.ConsentSMS)
	assert.Equal(t, "America/New_York", stored.Timezone)
	assert.Equal(t, "api", stored.Source)

	// First contact runs in the background after the response.
	assert.Eventually(t, func() bool {
		ids := ts.orch.orchestrated()
		return len(ids) == 1 && ids[0] == "lead_1"
	}, time.Second, 10*time.Millisecond)
}

func TestCreateLeadValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/leads", map[string]any{"name": "No Contact"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/v1/leads", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/v1/leads", map[string]any{"phone": "123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	assert.Empty(t, ts.orch.orchestrated(), "rejected leads trigger no outreach")
}

func TestGetAndListLeads(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/leads", map[string]any{"phone": "+15551234567", "name": "Maria"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(ts.server.URL + "/api/v1/leads/lead_1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	getResp.Body.Close()

	missing, err := http.Get(ts.server.URL + "/api/v1/leads/lead_404")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()

	listResp, err := http.Get(ts.server.URL + "/api/v1/leads")
	require.NoError(t, err)
	list := decode[map[string]any](t, listResp)
	assert.Equal(t, float64(1), list["count"])
}

func TestVerifyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/prospect/verify", map[string]any{
		"phone": "+15551234567",
		"email": "user@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[map[string]map[string]any](t, resp)
	assert.Equal(t, "valid", out["phone"]["status"])
	assert.Equal(t, "valid", out["email"]["status"])
	assert.Equal(t, "smtp_ok", out["email"]["reason"])

	empty := ts.postJSON(t, "/api/v1/prospect/verify", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
	empty.Body.Close()
}

func TestGenerateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/prospect/generate", map[string]any{
		"vertical": "local_business",
		"query":    "plumber",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.Equal(t, float64(1), out["count"])

	bad := ts.postJSON(t, "/api/v1/prospect/generate", map[string]any{
		"vertical": "crypto",
		"query":    "x",
	})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	bad.Body.Close()
}

func TestImportCSVEndpoint(t *testing.T) {
	ts := newTestServer(t)

	upload := func(t *testing.T, filename, content string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(ts.server.URL+"/api/v1/import/csv", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		return resp
	}

	resp := upload(t, "leads.csv", "name,phone\nMaria,+15551234567\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.Equal(t, float64(1), out["imported"])

	bad := upload(t, "leads.txt", "name,phone\n")
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	bad.Body.Close()
}

func TestTwilioWebhook(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("Body", " STOP ")
	resp, err := http.Post(ts.server.URL+"/webhooks/twilio/sms",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Len(t, ts.orch.smsFrom, 1)
	assert.Equal(t, "+15551234567", ts.orch.smsFrom[0])
	assert.Equal(t, "STOP", ts.orch.smsBody[0], "body is trimmed before classification")
}

func TestSendgridWebhook(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/webhooks/sendgrid/inbound", map[string]any{
		"from":    "maria@lopezbakery.com",
		"subject": "re: plan",
		"text":    "sounds good",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Len(t, ts.orch.emailFrom, 1)
	assert.Equal(t, "maria@lopezbakery.com", ts.orch.emailFrom[0])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	health, err := http.Get(ts.server.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, health.StatusCode)
	health.Body.Close()

	metrics, err := http.Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	metrics.Body.Close()
}

func TestCreateLeadDuplicate(t *testing.T) {
	ts := newTestServer(t)

	payload := map[string]any{
		"name":  "Maria Lopez",
		"phone": "+19375550142",
	}
	first := ts.postJSON(t, "/api/v1/leads", payload)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	first.Body.Close()

	second := ts.postJSON(t, "/api/v1/leads", payload)
	require.Equal(t, http.StatusConflict, second.StatusCode)
	body := decode[map[string]map[string]any](t, second)
	assert.Equal(t, "CONFLICT", body["error"]["code"])

	leads, err := ts.repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestMetricsLabelRequestsByRoutePattern(t *testing.T) {
	ts := newTestServer(t)

	missing, err := http.Get(ts.server.URL + "/api/v1/leads/lead_404")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()

	resp, err := http.Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `handler="GET /api/v1/leads/{id}"`)
	assert.NotContains(t, string(body), `handler="/api/v1/leads/lead_404"`)
}
