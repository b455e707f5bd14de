package analytics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"agrivoice-ai/internal/diagnosis"
)

func newTestSink(t *testing.T) *FileSink {
	t.Helper()
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "events", "diagnoses.jsonl"))
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	return sink
}

func event(lang, disease, severity string) diagnosis.Event {
	return diagnosis.Event{
		Timestamp:    time.Now(),
		DetectedTags: []string{"leaf", "spots"},
		Query:        "what is wrong?",
		Language:     lang,
		CropType:     "maize",
		Severity:     severity,
		DiseaseName:  disease,
		Diagnosis:    "advisory text",
	}
}

func TestLogAppendsOneLinePerEvent(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	if err := sink.Log(ctx, event("en", "Leaf Rust", "moderate")); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := sink.Log(ctx, event("sw", "Leaf Rust", "severe")); err != nil {
		t.Fatalf("Log: %v", err)
	}

	data, err := os.ReadFile(sink.path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSummarizeAggregates(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := sink.Log(ctx, event("en", "Leaf Rust", "moderate")); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Log(ctx, event("sw", "Early Blight", "severe")); err != nil {
		t.Fatal(err)
	}
	// Disease name missing: the first detected tag stands in.
	if err := sink.Log(ctx, event("sw", "", "mild")); err != nil {
		t.Fatal(err)
	}

	s, err := sink.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalDiagnoses != 5 {
		t.Fatalf("total = %d", s.TotalDiagnoses)
	}
	if s.LanguagesUsed["en"] != 3 || s.LanguagesUsed["sw"] != 2 {
		t.Fatalf("languages = %#v", s.LanguagesUsed)
	}
	if s.SeverityBreakdown["moderate"] != 3 || s.SeverityBreakdown["severe"] != 1 {
		t.Fatalf("severities = %#v", s.SeverityBreakdown)
	}
	if len(s.TopDiseases) != 3 || s.TopDiseases[0].Disease != "Leaf Rust" || s.TopDiseases[0].Count != 3 {
		t.Fatalf("top diseases = %#v", s.TopDiseases)
	}
}

func TestSummarizeMissingFileIsEmpty(t *testing.T) {
	sink := newTestSink(t)
	s, err := sink.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalDiagnoses != 0 || len(s.TopDiseases) != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Log(ctx, event("en", "Leaf Rust", "moderate"))
		}()
	}
	wg.Wait()

	s, err := sink.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalDiagnoses != 20 {
		t.Fatalf("expected 20 parseable events, got %d", s.TotalDiagnoses)
	}
}
