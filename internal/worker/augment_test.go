package worker

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimrank/internal/extract"
)

// textExtractor fails for texts listed in fail and succeeds otherwise
type textExtractor struct {
	mu    sync.Mutex
	fail  map[string]error
	delay time.Duration
	seen  []string
}

func (e *textExtractor) Name() string { return "gemini" }

func (e *textExtractor) ExtractClaims(ctx context.Context, text string) ([]extract.ExtractedClaim, error) {
	e.mu.Lock()
	e.seen = append(e.seen, text)
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := e.fail[text]; ok {
		return nil, err
	}
	if text == "empty" {
		return nil, nil
	}
	return []extract.ExtractedClaim{{Text: "claim from " + text, Confidence: 0.75}}, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestAugmenter_PartialFailure(t *testing.T) {
	ex := &textExtractor{fail: map[string]error{
		"bad": errors.New("permission denied"),
	}}
	w := NewEvidenceWorker(ex)
	w.Sleep = noSleep

	a := NewAugmenter(w, 2, nil)
	texts := []string{"one", "bad", "two", "three"}

	outcomes := a.Augment(context.Background(), texts)
	if len(outcomes) != len(texts) {
		t.Fatalf("expected %d outcomes, got %d", len(texts), len(outcomes))
	}

	indices := make([]int, 0, len(outcomes))
	failures := 0
	for _, o := range outcomes {
		indices = append(indices, o.Index)
		if o.Err != nil {
			failures++
			if texts[o.Index] != "bad" || o.Err.Kind != ReportFatal {
				t.Errorf("unexpected failure for %q: %+v", texts[o.Index], o.Err)
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}

	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("expected one outcome per index, got %v", indices)
		}
	}
}

func TestAugmenter_Reasons(t *testing.T) {
	ex := &textExtractor{}
	a := NewAugmenter(NewEvidenceWorker(ex), 1, nil)

	outcomes := []Outcome{
		{Index: 0, Snippets: []Snippet{{Text: "Latency fell", Confidence: 0.912}}},
		{Index: 1, Err: &ErrorReport{Kind: ReportFatal, Attempts: 1, Message: "invalid api key"}},
		{Index: 2, Snippets: []Snippet{}},
		{Index: 3, Err: &ErrorReport{Kind: ReportExhausted, Attempts: 3, Message: "429"}},
	}

	got := a.Reasons(outcomes)
	want := []string{
		"GEMINI: Latency fell (confidence 0.91)",
		"GEMINI ERROR: invalid api key",
		"GEMINI: no claims extracted",
		"GEMINI ERROR: gave up after 3 attempts: 429",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d reasons, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reason %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAugmenter_EmptyInput(t *testing.T) {
	a := NewAugmenter(NewEvidenceWorker(&textExtractor{}), 4, nil)
	outcomes := a.Augment(context.Background(), nil)
	if outcomes == nil || len(outcomes) != 0 {
		t.Errorf("expected empty non-nil outcomes, got %#v", outcomes)
	}
}

func TestAugmenter_NoClaims(t *testing.T) {
	a := NewAugmenter(NewEvidenceWorker(&textExtractor{}), 1, nil)
	outcomes := a.Augment(context.Background(), []string{"empty"})

	reasons := a.Reasons(outcomes)
	if len(reasons) != 1 || reasons[0] != "GEMINI: no claims extracted" {
		t.Errorf("unexpected reasons: %q", reasons)
	}
}

func TestAugmenter_CancelledOutcomesAreSynthesised(t *testing.T) {
	ex := &textExtractor{delay: time.Second}
	w := NewEvidenceWorker(ex)
	w.Sleep = noSleep

	a := NewAugmenter(w, 1, nil)
	texts := []string{"a", "b", "c", "d", "e"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcomes := a.Augment(ctx, texts)
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("cancellation did not abandon in-flight work")
	}

	if len(outcomes) != len(texts) {
		t.Fatalf("expected %d outcomes, got %d", len(texts), len(outcomes))
	}
	for i, o := range outcomes {
		if o.Err == nil || o.Err.Kind != ReportCancelled {
			t.Errorf("outcome %d: expected cancelled report, got %+v", i, o.Err)
		}
		if o.Index != i {
			t.Errorf("synthesised outcomes must be in index order: position %d has index %d", i, o.Index)
		}
	}
}

func TestAugmenter_ConcurrencyBound(t *testing.T) {
	var mu sync.Mutex
	current, peak := 0, 0

	ex := &trackingExtractor{enter: func() {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()
	}, exit: func() {
		mu.Lock()
		current--
		mu.Unlock()
	}}

	a := NewAugmenter(NewEvidenceWorker(ex), 3, nil)
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	outcomes := a.Augment(context.Background(), texts)
	if len(outcomes) != len(texts) {
		t.Fatalf("expected %d outcomes, got %d", len(texts), len(outcomes))
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 3 {
		t.Errorf("peak concurrency %d exceeded 3 workers", peak)
	}
}

type trackingExtractor struct {
	enter func()
	exit  func()
}

func (e *trackingExtractor) Name() string { return "heuristic" }

func (e *trackingExtractor) ExtractClaims(ctx context.Context, text string) ([]extract.ExtractedClaim, error) {
	e.enter()
	defer e.exit()
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}
