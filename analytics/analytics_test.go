package analytics

import (
	"context"
	"errors"
	"testing"
)

type failingRecorder struct {
	calls int
}

func (r *failingRecorder) Record(ctx context.Context, q *Query) error {
	r.calls++
	return errors.New("analytics backend down")
}

func TestReporterRecordsQuery(t *testing.T) {
	recorder := NewInMemoryRecorder()
	reporter := NewReporter(recorder)

	reporter.Report(context.Background(), &Query{
		SessionID:      "s-1",
		CareNeeded:     "knee MRI",
		ZipCode:        "11201",
		ProvidersFound: 3,
		Confidence:     0.85,
		FinalScore:     88,
		Urgency:        "soon",
	})

	queries := recorder.Queries()
	if len(queries) != 1 {
		t.Fatalf("recorded %d queries, want 1", len(queries))
	}
	got := queries[0]
	if got.SessionID != "s-1" || got.FinalScore != 88 || got.ProvidersFound != 3 {
		t.Errorf("recorded query = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped when unset")
	}
}

func TestReporterSwallowsFailures(t *testing.T) {
	recorder := &failingRecorder{}
	reporter := NewReporter(recorder)

	// Must not panic or propagate the backend error.
	reporter.Report(context.Background(), &Query{SessionID: "s-1"})
	if recorder.calls != 1 {
		t.Errorf("recorder called %d times, want 1", recorder.calls)
	}
}

func TestReporterNilRecorderIsNoop(t *testing.T) {
	reporter := NewReporter(nil)
	reporter.Report(context.Background(), &Query{SessionID: "s-1"})
}
