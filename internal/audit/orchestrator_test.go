package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raysh454/acesso/internal/model"
	"github.com/raysh454/acesso/internal/testutil"
)

func testRunnerFactory(browser *testutil.FakeBrowser, disc stubDiscoverer) RunnerFactory {
	return func(_ context.Context, _ model.AuditRequest) (*Runner, func(), error) {
		r := NewRunner(browser, disc, stubAnalyzer{}, testutil.NewMemStore(),
			&testutil.DummyLogger{}, DefaultConfig())
		return r, func() {}, nil
	}
}

func waitForTerminal(t *testing.T, o *Orchestrator, jobID string) *Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal status", jobID)
		case <-time.After(5 * time.Millisecond):
		}
		job := o.GetJob(jobID)
		require.NotNil(t, job)
		switch job.Status {
		case JobDone, JobFailed, JobCanceled:
			return job
		}
	}
}

func TestOrchestratorJobLifecycle(t *testing.T) {
	browser := &testutil.FakeBrowser{Pages: map[string]string{
		"https://example.com/": "<html></html>",
	}}
	o := NewOrchestrator(testRunnerFactory(browser,
		stubDiscoverer{urls: []string{"https://example.com/"}}), &testutil.DummyLogger{})

	job, err := o.StartAudit(context.Background(), model.AuditRequest{Site: "https://example.com"})
	require.NoError(t, err)

	var sawResult bool
	for ev := range job.Events {
		if ev.Type == JobEventResult {
			sawResult = true
			require.NotEmpty(t, ev.AuditID)
		}
	}
	require.True(t, sawResult, "a result event must be emitted before the channel closes")

	done := waitForTerminal(t, o, job.ID)
	require.Equal(t, JobDone, done.Status)
	require.NotEmpty(t, done.AuditID)
	require.False(t, done.EndedAt.IsZero())
}

func TestOrchestratorRejectsEmptySite(t *testing.T) {
	o := NewOrchestrator(testRunnerFactory(&testutil.FakeBrowser{}, stubDiscoverer{}),
		&testutil.DummyLogger{})
	_, err := o.StartAudit(context.Background(), model.AuditRequest{})
	require.Error(t, err)
}

func TestOrchestratorFailedJob(t *testing.T) {
	o := NewOrchestrator(testRunnerFactory(&testutil.FakeBrowser{},
		stubDiscoverer{err: fmt.Errorf("discovery exploded")}), &testutil.DummyLogger{})

	job, err := o.StartAudit(context.Background(), model.AuditRequest{Site: "https://example.com"})
	require.NoError(t, err)

	done := waitForTerminal(t, o, job.ID)
	require.Equal(t, JobFailed, done.Status)
	require.Contains(t, done.Error, "discovery exploded")
}

type blockingDiscoverer struct{}

func (blockingDiscoverer) Discover(ctx context.Context) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOrchestratorCancelJob(t *testing.T) {
	factory := func(_ context.Context, _ model.AuditRequest) (*Runner, func(), error) {
		r := NewRunner(&testutil.FakeBrowser{}, blockingDiscoverer{}, stubAnalyzer{},
			nil, &testutil.DummyLogger{}, DefaultConfig())
		return r, func() {}, nil
	}
	o := NewOrchestrator(factory, &testutil.DummyLogger{})

	job, err := o.StartAudit(context.Background(), model.AuditRequest{Site: "https://example.com"})
	require.NoError(t, err)

	require.True(t, o.CancelJob(job.ID))
	done := waitForTerminal(t, o, job.ID)
	require.Equal(t, JobCanceled, done.Status)

	require.False(t, o.CancelJob("unknown"))
}

func TestOrchestratorListJobsNewestFirst(t *testing.T) {
	browser := &testutil.FakeBrowser{Pages: map[string]string{
		"https://example.com/": "<html></html>",
	}}
	o := NewOrchestrator(testRunnerFactory(browser,
		stubDiscoverer{urls: []string{"https://example.com/"}}), &testutil.DummyLogger{})

	first, err := o.StartAudit(context.Background(), model.AuditRequest{Site: "https://example.com"})
	require.NoError(t, err)
	waitForTerminal(t, o, first.ID)

	second, err := o.StartAudit(context.Background(), model.AuditRequest{Site: "https://example.com"})
	require.NoError(t, err)
	waitForTerminal(t, o, second.ID)

	jobs := o.ListJobs()
	require.Len(t, jobs, 2)
	require.Equal(t, second.ID, jobs[0].ID)
}
