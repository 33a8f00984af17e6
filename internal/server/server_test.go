package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/acesso/internal/audit"
	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/testutil"
)

type stubDiscoverer struct{ urls []string }

func (s stubDiscoverer) Discover(context.Context) ([]string, error) { return s.urls, nil }

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, interfaces.Page) ([]model.Finding, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *testutil.MemStore, *audit.Orchestrator) {
	t.Helper()
	st := testutil.NewMemStore()
	browser := &testutil.FakeBrowser{Pages: map[string]string{
		"https://example.com/": "<html></html>",
	}}
	factory := func(_ context.Context, _ model.AuditRequest) (*audit.Runner, func(), error) {
		r := audit.NewRunner(browser, stubDiscoverer{urls: []string{"https://example.com/"}},
			stubAnalyzer{}, st, &testutil.DummyLogger{}, audit.DefaultConfig())
		return r, func() {}, nil
	}
	orch := audit.NewOrchestrator(factory, &testutil.DummyLogger{})

	s, err := NewServer(Config{Logger: &testutil.DummyLogger{}}, orch, st)
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv, st, orch
}

func waitForJob(t *testing.T, orch *audit.Orchestrator, jobID string) *audit.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never finished", jobID)
		case <-time.After(5 * time.Millisecond):
		}
		job := orch.GetJob(jobID)
		require.NotNil(t, job)
		if job.Status == audit.JobDone || job.Status == audit.JobFailed {
			return job
		}
	}
}

func TestStartAuditAndFetchResult(t *testing.T) {
	_, srv, _, orch := newTestServer(t)

	body := `{"site": "https://example.com", "strategy": "crawl"}`
	resp, err := http.Post(srv.URL+"/audits", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job audit.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	require.NotEmpty(t, job.ID)

	done := waitForJob(t, orch, job.ID)
	require.Equal(t, audit.JobDone, done.Status)

	auditResp, err := http.Get(srv.URL + "/audits/" + done.AuditID)
	require.NoError(t, err)
	defer auditResp.Body.Close()
	require.Equal(t, http.StatusOK, auditResp.StatusCode)

	var got model.Audit
	require.NoError(t, json.NewDecoder(auditResp.Body).Decode(&got))
	require.Equal(t, "https://example.com", got.Site)
	require.Equal(t, 100, got.HealthScore)
}

func TestStartAuditRejectsBadRequests(t *testing.T) {
	_, srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/audits", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/audits", "application/json", strings.NewReader(`{"strategy":"crawl"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing site must be rejected")
}

func TestGetAuditNotFound(t *testing.T) {
	_, srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/audits/desconhecido")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAuditsAndViolations(t *testing.T) {
	_, srv, st, _ := newTestServer(t)

	a := &model.Audit{
		ID:           "a-1",
		Site:         "https://example.com",
		HealthScore:  85,
		ScoringModel: "passfail/v1",
		Summary:      model.Summary{Critical: 1, Total: 1, CriticalPatterns: 1},
	}
	require.NoError(t, st.SaveAudit(context.Background(), a))
	require.NoError(t, st.SaveViolations(context.Background(), "a-1", []model.AggregatedViolation{{
		Fingerprint: "image-alt",
		Representative: model.Finding{
			RuleID: "image-alt", Fingerprint: "image-alt", Impact: model.ImpactCritical,
		},
		Occurrences: 1,
		PageURLs:    []string{"https://example.com/"},
	}}))

	resp, err := http.Get(srv.URL + "/audits?site=https://example.com")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audits []model.Audit
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&audits))
	require.Len(t, audits, 1)

	vResp, err := http.Get(srv.URL + "/audits/a-1/violations")
	require.NoError(t, err)
	defer vResp.Body.Close()
	require.Equal(t, http.StatusOK, vResp.StatusCode)
	var violations []model.AggregatedViolation
	require.NoError(t, json.NewDecoder(vResp.Body).Decode(&violations))
	require.Len(t, violations, 1)
	require.Equal(t, "image-alt", violations[0].Fingerprint)
}

func TestCompareAudits(t *testing.T) {
	_, srv, st, _ := newTestServer(t)
	ctx := context.Background()

	previous := &model.Audit{
		ID: "prev", Site: "https://example.com", HealthScore: 60,
		Summary: model.Summary{Critical: 2, Serious: 3, Minor: 5, Total: 10,
			CriticalPatterns: 1, SeriousPatterns: 2, MinorPatterns: 3},
	}
	current := &model.Audit{
		ID: "cur", Site: "https://example.com", HealthScore: 85,
		Summary: model.Summary{Serious: 2, Minor: 3, Total: 5,
			SeriousPatterns: 1, MinorPatterns: 2},
	}
	require.NoError(t, st.SaveAudit(ctx, previous))
	require.NoError(t, st.SaveAudit(ctx, current))

	resp, err := http.Get(srv.URL + "/audits/cur/compare/prev")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body comparisonResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Comparison)
	require.Equal(t, 25, body.Comparison.Delta.HealthScore)
	require.Equal(t, -2, body.Comparison.Delta.Critical)
	require.Equal(t, -5, body.Comparison.Delta.Total)
	require.True(t, body.Comparison.HasOverallImprovement)
	require.NotEmpty(t, body.Insights)

	missing, err := http.Get(srv.URL + "/audits/cur/compare/nada")
	require.NoError(t, err)
	missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestJobEndpoints(t *testing.T) {
	_, srv, _, orch := newTestServer(t)

	resp, err := http.Post(srv.URL+"/audits", "application/json",
		bytes.NewReader([]byte(`{"site":"https://example.com","strategy":"crawl"}`)))
	require.NoError(t, err)
	var job audit.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	waitForJob(t, orch, job.ID)

	listResp, err := http.Get(srv.URL + "/jobs")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var jobs []audit.Job
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&jobs))
	require.NotEmpty(t, jobs)

	getResp, err := http.Get(srv.URL + "/jobs/" + job.ID)
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	notFound, err := http.Get(srv.URL + "/jobs/inexistente")
	require.NoError(t, err)
	notFound.Body.Close()
	require.Equal(t, http.StatusNotFound, notFound.StatusCode)

	// Finished jobs have no cancel func registered anymore.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/jobs/"+job.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusNotFound, delResp.StatusCode)
}

func TestJobWebSocketStreamsState(t *testing.T) {
	_, srv, _, orch := newTestServer(t)

	resp, err := http.Post(srv.URL+"/audits", "application/json",
		strings.NewReader(`{"site":"https://example.com","strategy":"crawl"}`))
	require.NoError(t, err)
	var job audit.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	waitForJob(t, orch, job.ID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/jobs/" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var state audit.Job
	require.NoError(t, conn.ReadJSON(&state))
	require.Equal(t, job.ID, state.ID)
}
