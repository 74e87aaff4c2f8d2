package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAugmentWorkers is the default extraction fan-out
const DefaultAugmentWorkers = 4

// evidenceJob extracts evidence from one document text
type evidenceJob struct {
	index  int
	text   string
	worker *EvidenceWorker
}

// Execute executes the evidence job
func (j *evidenceJob) Execute(ctx context.Context) Result {
	outcome := j.worker.Extract(ctx, j.text)
	outcome.Index = j.index
	return &outcome
}

// Augmenter fans extraction out over document texts on a worker pool
type Augmenter struct {
	worker  *EvidenceWorker
	workers int
	logger  *zap.Logger
}

// NewAugmenter creates a new augmenter
func NewAugmenter(worker *EvidenceWorker, workers int, logger *zap.Logger) *Augmenter {
	if workers <= 0 {
		workers = DefaultAugmentWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Augmenter{
		worker:  worker,
		workers: workers,
		logger:  logger,
	}
}

// Source returns the upper-cased provider name used in reasons
func (a *Augmenter) Source() string {
	return strings.ToUpper(a.worker.Extractor.Name())
}

// Augment extracts evidence from every text and returns one outcome per
// text. Outcomes arrive in completion order; texts that never completed
// because ctx ended are appended as cancelled reports in index order.
func (a *Augmenter) Augment(ctx context.Context, texts []string) []Outcome {
	if len(texts) == 0 {
		return []Outcome{}
	}

	start := time.Now()

	pool := NewPool(ctx, a.workers)
	pool.Start()

	for i, text := range texts {
		if !pool.Submit(&evidenceJob{index: i, text: text, worker: a.worker}) {
			break
		}
	}

	results := pool.Wait()

	outcomes := make([]Outcome, 0, len(texts))
	done := make([]bool, len(texts))
	for _, result := range results {
		outcome := result.(*Outcome)
		done[outcome.Index] = true
		outcomes = append(outcomes, *outcome)
	}

	reason := "not started"
	if err := ctx.Err(); err != nil {
		reason = err.Error()
	}
	for i := range texts {
		if !done[i] {
			outcomes = append(outcomes, Outcome{
				Index: i,
				Err:   &ErrorReport{Kind: ReportCancelled, Message: reason},
			})
		}
	}

	a.logger.Debug("augmentation finished",
		zap.String("provider", a.worker.Extractor.Name()),
		zap.Int("texts", len(texts)),
		zap.Int("completed", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return outcomes
}

// Reasons renders outcomes as reason lines in outcome order
func (a *Augmenter) Reasons(outcomes []Outcome) []string {
	source := a.Source()

	var reasons []string
	for _, o := range outcomes {
		if o.Err != nil {
			reasons = append(reasons, fmt.Sprintf("%s ERROR: %s", source, o.Err))
			continue
		}
		if len(o.Snippets) == 0 {
			reasons = append(reasons, fmt.Sprintf("%s: no claims extracted", source))
			continue
		}
		for _, s := range o.Snippets {
			reasons = append(reasons, fmt.Sprintf("%s: %s (confidence %.2f)", source, s.Text, s.Confidence))
		}
	}
	return reasons
}
