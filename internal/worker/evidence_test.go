package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimrank/internal/extract"
)

// scriptedExtractor returns errs in order, then claims
type scriptedExtractor struct {
	mu     sync.Mutex
	errs   []error
	claims []extract.ExtractedClaim
	calls  int
	block  bool
}

func (s *scriptedExtractor) Name() string { return "gemini" }

func (s *scriptedExtractor) ExtractClaims(ctx context.Context, text string) ([]extract.ExtractedClaim, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if call < len(s.errs) {
		return nil, s.errs[call]
	}
	return s.claims, nil
}

func (s *scriptedExtractor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingSleeper records requested delays without sleeping
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureClass
	}{
		{nil, FailureNone},
		{errors.New("HTTP 429"), FailureTransient},
		{errors.New("Rate limit reached for requests"), FailureTransient},
		{errors.New("RESOURCE_EXHAUSTED: quota"), FailureTransient},
		{errors.New("503 Service Unavailable"), FailureTransient},
		{errors.New("model is overloaded"), FailureTransient},
		{errors.New("server temporarily down"), FailureTransient},
		{errors.New("Too Many Requests"), FailureTransient},
		{fmt.Errorf("call: %w", extract.ErrTransient), FailureTransient},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), FailureTransient},
		{errors.New("invalid api key"), FailureFatal},
		{fmt.Errorf("decode: %w", extract.ErrMalformedOutput), FailureFatal},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := Backoff(0, base, 0); got != base {
		t.Errorf("attempt 0 without jitter: expected %v, got %v", base, got)
	}
	if got := Backoff(2, base, 0.5); got != 450*time.Millisecond {
		t.Errorf("attempt 2 with jitter 0.5: expected 450ms, got %v", got)
	}
}

func TestEvidenceWorker_RetriesTransientThenSucceeds(t *testing.T) {
	ex := &scriptedExtractor{
		errs:   []error{errors.New("429 too many requests"), errors.New("503 unavailable")},
		claims: []extract.ExtractedClaim{{Text: "Vendor B doubled throughput", Confidence: 0.91}},
	}
	sleeper := &recordingSleeper{}
	base := 10 * time.Millisecond

	w := NewEvidenceWorker(ex)
	w.BackoffBase = base
	w.Sleep = sleeper.Sleep
	w.Rand = rand.New(rand.NewPCG(1, 2))

	outcome := w.Extract(context.Background(), "doc")
	if outcome.Err != nil {
		t.Fatalf("expected success, got %s", outcome.Err)
	}
	if ex.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", ex.Calls())
	}
	if len(outcome.Snippets) != 1 || outcome.Snippets[0].Confidence != 0.91 {
		t.Errorf("unexpected snippets: %+v", outcome.Snippets)
	}

	// Replay the same jitter stream to get the expected delays
	expected := rand.New(rand.NewPCG(1, 2))
	want := []time.Duration{
		Backoff(0, base, expected.Float64()),
		Backoff(1, base, expected.Float64()),
	}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(sleeper.delays))
	}
	for i := range want {
		if sleeper.delays[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], sleeper.delays[i])
		}
	}
	if sleeper.delays[0] < base || sleeper.delays[0] >= 2*base {
		t.Errorf("first delay %v outside [base, 2*base)", sleeper.delays[0])
	}
	if sleeper.delays[1] < 2*base || sleeper.delays[1] >= 3*base {
		t.Errorf("second delay %v outside [2*base, 3*base)", sleeper.delays[1])
	}
}

func TestEvidenceWorker_Exhausted(t *testing.T) {
	limited := errors.New("rate limit exceeded")
	ex := &scriptedExtractor{errs: []error{limited, limited, limited, limited}}
	sleeper := &recordingSleeper{}

	w := NewEvidenceWorker(ex)
	w.Sleep = sleeper.Sleep

	outcome := w.Extract(context.Background(), "doc")
	if outcome.Err == nil {
		t.Fatal("expected error report")
	}
	if outcome.Err.Kind != ReportExhausted || outcome.Err.Attempts != 3 {
		t.Errorf("unexpected report: %+v", outcome.Err)
	}
	if ex.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", ex.Calls())
	}
	if len(sleeper.delays) != 2 {
		t.Errorf("expected 2 sleeps between 3 attempts, got %d", len(sleeper.delays))
	}
	if !strings.Contains(outcome.Err.String(), "rate limit exceeded") {
		t.Errorf("report should carry the last error: %s", outcome.Err)
	}
}

func TestEvidenceWorker_FatalDoesNotRetry(t *testing.T) {
	ex := &scriptedExtractor{errs: []error{fmt.Errorf("parse: %w", extract.ErrMalformedOutput)}}
	sleeper := &recordingSleeper{}

	w := NewEvidenceWorker(ex)
	w.Sleep = sleeper.Sleep

	outcome := w.Extract(context.Background(), "doc")
	if outcome.Err == nil || outcome.Err.Kind != ReportFatal {
		t.Fatalf("expected fatal report, got %+v", outcome.Err)
	}
	if ex.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", ex.Calls())
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("fatal errors must not sleep, got %v", sleeper.delays)
	}
}

func TestEvidenceWorker_PerCallDeadlineIsTransient(t *testing.T) {
	ex := &scriptedExtractor{block: true}
	sleeper := &recordingSleeper{}

	w := NewEvidenceWorker(ex)
	w.CallTimeout = 5 * time.Millisecond
	w.MaxRetries = 2
	w.Sleep = sleeper.Sleep

	outcome := w.Extract(context.Background(), "doc")
	if outcome.Err == nil || outcome.Err.Kind != ReportExhausted {
		t.Fatalf("expected exhausted report, got %+v", outcome.Err)
	}
	if ex.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", ex.Calls())
	}
}

func TestEvidenceWorker_CancelledDuringBackoff(t *testing.T) {
	ex := &scriptedExtractor{errs: []error{errors.New("429")}}
	ctx, cancel := context.WithCancel(context.Background())

	w := NewEvidenceWorker(ex)
	w.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	outcome := w.Extract(ctx, "doc")
	if outcome.Err == nil || outcome.Err.Kind != ReportCancelled {
		t.Fatalf("expected cancelled report, got %+v", outcome.Err)
	}
	if ex.Calls() != 1 {
		t.Errorf("expected no retry after cancellation, got %d calls", ex.Calls())
	}
}

func TestEvidenceWorker_TruncatesSnippets(t *testing.T) {
	long := strings.Repeat("é", 100)
	ex := &scriptedExtractor{claims: []extract.ExtractedClaim{
		{Text: long, Confidence: 0.5},
		{Text: "short", Confidence: 0.4},
	}}

	outcome := NewEvidenceWorker(ex).Extract(context.Background(), "doc")
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %s", outcome.Err)
	}

	want := strings.Repeat("é", SnippetRunes) + "..."
	if outcome.Snippets[0].Text != want {
		t.Errorf("expected rune-safe cut with ellipsis, got %q", outcome.Snippets[0].Text)
	}
	if outcome.Snippets[1].Text != "short" {
		t.Errorf("short snippet must be unchanged, got %q", outcome.Snippets[1].Text)
	}
}

func TestEvidenceWorker_Limiter(t *testing.T) {
	ex := &scriptedExtractor{}
	w := NewEvidenceWorker(ex)
	w.Limiter = NewLimiter(0.001, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if outcome := w.Extract(ctx, "first"); outcome.Err != nil {
		t.Fatalf("first call should pass the limiter: %s", outcome.Err)
	}

	outcome := w.Extract(ctx, "second")
	if outcome.Err == nil {
		t.Fatal("expected the exhausted limiter to fail the second call")
	}
	if ex.Calls() != 1 {
		t.Errorf("limited call must not reach the extractor, got %d calls", ex.Calls())
	}
}
