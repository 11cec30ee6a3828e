package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
	"github.com/battlab/cycler-queue-service/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedJob(t *testing.T, store storage.Store, id string, state domain.JobState, pipeline string) {
	t.Helper()
	err := store.UpsertJob(context.Background(), &domain.Job{
		ID:         id,
		State:      state,
		Pipeline:   pipeline,
		Scheduler:  domain.SchedulerTypeTomato,
		LastSeenAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed job %s: %v", id, err)
	}
}

func TestExporter_Handler(t *testing.T) {
	store := newTestStore(t)
	seedJob(t, store, "1", domain.JobStateRunning, "pipeline-01")
	seedJob(t, store, "2", domain.JobStateRunning, "pipeline-02")
	seedJob(t, store, "3", domain.JobStateQueued, "")
	seedJob(t, store, "4", domain.JobStateDone, "pipeline-01")

	exporter := NewExporter(store)
	exporter.SubmissionResult(true)
	exporter.SubmissionResult(false)
	exporter.CancellationResult(true)
	exporter.ParseFailure("status")

	server := httptest.NewServer(exporter.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	text := string(body)

	expected := []string{
		`cycler_jobs{state="running"} 2`,
		`cycler_jobs{state="queued"} 1`,
		`cycler_jobs{state="done"} 1`,
		`cycler_pipeline_jobs{pipeline="pipeline-01"} 1`,
		`cycler_pipeline_jobs{pipeline="pipeline-02"} 1`,
		`cycler_submissions_total{result="ok"} 1`,
		`cycler_submissions_total{result="failed"} 1`,
		`cycler_cancellations_total{result="ok"} 1`,
		`cycler_scheduler_parse_failures_total{op="status"} 1`,
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestExporter_CollectRefreshesGauges(t *testing.T) {
	store := newTestStore(t)
	exporter := NewExporter(store)

	seedJob(t, store, "1", domain.JobStateQueued, "")
	if err := exporter.Collect(context.Background()); err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	// Job completes; the queued gauge must drop back to zero series.
	seedJob(t, store, "1", domain.JobStateDone, "")
	if err := exporter.Collect(context.Background()); err != nil {
		t.Fatalf("second Collect returned error: %v", err)
	}

	server := httptest.NewServer(exporter.Handler())
	defer server.Close()
	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if strings.Contains(string(body), `cycler_jobs{state="queued"}`) {
		t.Error("stale queued gauge series survived Reset")
	}
	if !strings.Contains(string(body), `cycler_jobs{state="done"} 1`) {
		t.Error("done gauge not refreshed")
	}
}
