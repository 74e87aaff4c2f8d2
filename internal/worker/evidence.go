package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrank/internal/extract"
)

const (
	// DefaultMaxRetries bounds the total attempts per text
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the unit of the exponential backoff
	DefaultBackoffBase = time.Second

	// DefaultCallTimeout bounds a single extraction attempt
	DefaultCallTimeout = 30 * time.Second

	// SnippetRunes is the maximum length of a snippet before it is cut
	SnippetRunes = 80
)

// FailureClass is the retry classification of an extraction error
type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureTransient
	FailureFatal
)

func (c FailureClass) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// ReportKind says why an extraction produced no snippets
type ReportKind string

const (
	ReportExhausted ReportKind = "transient-exhausted"
	ReportFatal     ReportKind = "fatal"
	ReportCancelled ReportKind = "cancelled"
)

// ErrorReport describes a failed extraction
type ErrorReport struct {
	Kind     ReportKind
	Attempts int
	Message  string
}

func (r *ErrorReport) String() string {
	switch r.Kind {
	case ReportExhausted:
		return fmt.Sprintf("gave up after %d attempts: %s", r.Attempts, r.Message)
	case ReportCancelled:
		return fmt.Sprintf("cancelled: %s", r.Message)
	default:
		return r.Message
	}
}

// Snippet is one extracted claim reduced for display
type Snippet struct {
	Text       string
	Confidence float64
}

// Outcome is the result of extracting evidence from one document text.
// Exactly one of Snippets or Err is meaningful.
type Outcome struct {
	Index    int
	Snippets []Snippet
	Err      *ErrorReport
}

// GetError implements Result
func (o *Outcome) GetError() error {
	if o.Err == nil {
		return nil
	}
	return errors.New(o.Err.String())
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// EvidenceWorker calls an extractor for one text with bounded retries
type EvidenceWorker struct {
	Extractor   extract.Extractor
	MaxRetries  int
	BackoffBase time.Duration
	CallTimeout time.Duration // zero disables the per-call deadline
	Limiter     *Limiter
	Sleep       SleepFunc
	Logger      *zap.Logger

	// Rand supplies backoff jitter; nil seeds a fresh source per call
	Rand *rand.Rand

	randMu sync.Mutex
}

// NewEvidenceWorker creates a worker with default retry settings
func NewEvidenceWorker(extractor extract.Extractor) *EvidenceWorker {
	return &EvidenceWorker{
		Extractor:   extractor,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
		CallTimeout: DefaultCallTimeout,
	}
}

// transientMarkers are matched case-insensitively against error messages
var transientMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"too many requests",
	"503",
	"service unavailable",
	"unavailable",
	"resource_exhausted",
	"resource exhausted",
	"overloaded",
	"temporarily",
}

// Classify decides whether err is worth retrying.
// A deadline error is transient; callers must check their own context first
// so that only per-call deadlines land here.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, extract.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return FailureTransient
		}
	}
	return FailureFatal
}

// Backoff returns the delay before retrying after the given zero-based attempt
func Backoff(attempt int, base time.Duration, jitter float64) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))*float64(base) + jitter*float64(base))
}

// Extract runs the extractor on text, retrying transient failures
func (w *EvidenceWorker) Extract(ctx context.Context, text string) Outcome {
	maxRetries := w.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	base := w.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = timerSleep
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var jitter func() float64
	if w.Rand != nil {
		jitter = func() float64 {
			w.randMu.Lock()
			defer w.randMu.Unlock()
			return w.Rand.Float64()
		}
	} else {
		r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		jitter = r.Float64
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		claims, err := w.attempt(ctx, text)
		if err == nil {
			return Outcome{Snippets: snippets(claims)}
		}
		lastErr = err

		if ctx.Err() != nil {
			return Outcome{Err: &ErrorReport{Kind: ReportCancelled, Attempts: attempt + 1, Message: ctx.Err().Error()}}
		}

		if Classify(err) != FailureTransient {
			return Outcome{Err: &ErrorReport{Kind: ReportFatal, Attempts: attempt + 1, Message: err.Error()}}
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := Backoff(attempt, base, jitter())
		logger.Warn("transient extraction failure, retrying",
			zap.String("provider", w.Extractor.Name()),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return Outcome{Err: &ErrorReport{Kind: ReportCancelled, Attempts: attempt + 1, Message: err.Error()}}
		}
	}

	return Outcome{Err: &ErrorReport{Kind: ReportExhausted, Attempts: maxRetries, Message: lastErr.Error()}}
}

// attempt performs one rate-limited extraction call under the per-call deadline
func (w *EvidenceWorker) attempt(ctx context.Context, text string) ([]extract.ExtractedClaim, error) {
	if w.Limiter != nil {
		if err := w.Limiter.Wait(ctx, w.Extractor.Name()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	callCtx := ctx
	if w.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.CallTimeout)
		defer cancel()
	}

	return w.Extractor.ExtractClaims(callCtx, text)
}

func snippets(claims []extract.ExtractedClaim) []Snippet {
	out := make([]Snippet, 0, len(claims))
	for _, c := range claims {
		out = append(out, Snippet{Text: truncate(c.Text, SnippetRunes), Confidence: c.Confidence})
	}
	return out
}

// truncate cuts s to n runes and marks the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
