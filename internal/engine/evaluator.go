package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrank/internal/model"
	"github.com/ppiankov/claimrank/internal/score"
	"github.com/ppiankov/claimrank/internal/worker"
)

// Repository is the read access the evaluator needs
type Repository interface {
	GetOptions(ctx context.Context, decisionID int64) ([]model.DecisionOption, error)

	// GetClaimLinksForOption returns links with claims and their outgoing
	// relations (and the relation targets) eager-loaded
	GetClaimLinksForOption(ctx context.Context, optionID int64) ([]model.DecisionClaimLink, error)

	GetDocumentTextsForOption(ctx context.Context, optionID int64) ([]string, error)
	GetDocumentTextsForDecision(ctx context.Context, decisionID int64) ([]string, error)
}

// DocumentRepository is an optional extension of Repository. When the
// repository implements it, documents are deduplicated by id rather than
// by their text.
type DocumentRepository interface {
	GetDocumentsForOption(ctx context.Context, optionID int64) ([]model.Document, error)
	GetDocumentsForDecision(ctx context.Context, decisionID int64) ([]model.Document, error)
}

// Augmenter gathers live evidence for document texts
type Augmenter interface {
	// Source names the evidence provider in reasons, e.g. "OPENAI"
	Source() string
	Augment(ctx context.Context, texts []string) []worker.Outcome
	Reasons(outcomes []worker.Outcome) []string
}

// Options configures an Evaluator
type Options struct {
	MaxDepth      int
	OptionWorkers int       // Options scored concurrently; 1 is sequential
	Augmenter     Augmenter // nil disables augmentation
	Logger        *zap.Logger
}

// Evaluator ranks the options of a decision
type Evaluator struct {
	repo          Repository
	scorer        *score.Scorer
	augmenter     Augmenter
	maxDepth      int
	optionWorkers int
	logger        *zap.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(repo Repository, opts Options) *Evaluator {
	if opts.OptionWorkers <= 0 {
		opts.OptionWorkers = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Evaluator{
		repo:          repo,
		scorer:        score.NewScorer(),
		augmenter:     opts.Augmenter,
		maxDepth:      opts.MaxDepth,
		optionWorkers: opts.OptionWorkers,
		logger:        opts.Logger,
	}
}

// Evaluate scores every option of a decision and ranks them by descending
// score. A failure confined to one option is reported on that option and
// does not prevent the others from being scored; failed options rank after
// every scored option.
func (e *Evaluator) Evaluate(ctx context.Context, decisionID int64) (*model.DecisionResult, error) {
	options, err := e.repo.GetOptions(ctx, decisionID)
	if err != nil {
		return nil, fmt.Errorf("get options: %w", err)
	}

	start := time.Now()

	var scores []model.OptionScore
	if e.optionWorkers == 1 || len(options) <= 1 {
		scores = make([]model.OptionScore, len(options))
		for i, option := range options {
			scores[i] = e.scoreOption(ctx, decisionID, option)
		}
	} else {
		scores = e.scoreConcurrently(ctx, decisionID, options)
	}

	// Ties keep fetch order
	sort.SliceStable(scores, func(i, j int) bool {
		failedI, failedJ := scores[i].Error != "", scores[j].Error != ""
		if failedI != failedJ {
			return failedJ
		}
		return scores[i].Score > scores[j].Score
	})

	e.logger.Debug("decision evaluated",
		zap.Int64("decision_id", decisionID),
		zap.Int("options", len(options)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.DecisionResult{DecisionID: decisionID, RankedOptions: scores}, nil
}

// optionJob scores one option on the pool
type optionJob struct {
	index      int
	decisionID int64
	option     model.DecisionOption
	evaluator  *Evaluator
}

type optionResult struct {
	index int
	score model.OptionScore
}

func (r *optionResult) GetError() error { return nil }

// Execute executes the option job
func (j *optionJob) Execute(ctx context.Context) worker.Result {
	return &optionResult{index: j.index, score: j.evaluator.scoreOption(ctx, j.decisionID, j.option)}
}

// scoreConcurrently scores options on a pool and restores fetch order
func (e *Evaluator) scoreConcurrently(ctx context.Context, decisionID int64, options []model.DecisionOption) []model.OptionScore {
	pool := worker.NewPool(ctx, e.optionWorkers)
	pool.Start()

	for i, option := range options {
		if !pool.Submit(&optionJob{index: i, decisionID: decisionID, option: option, evaluator: e}) {
			break
		}
	}

	scores := make([]model.OptionScore, len(options))
	done := make([]bool, len(options))
	for _, result := range pool.Wait() {
		r := result.(*optionResult)
		scores[r.index] = r.score
		done[r.index] = true
	}

	for i, option := range options {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("option %d was not scored", option.ID)
			}
			scores[i] = failedScore(option, err)
		}
	}

	return scores
}

// scoreOption computes one option's score and reasons
func (e *Evaluator) scoreOption(ctx context.Context, decisionID int64, option model.DecisionOption) model.OptionScore {
	start := time.Now()

	links, err := e.repo.GetClaimLinksForOption(ctx, option.ID)
	if err != nil {
		return failedScore(option, fmt.Errorf("get claim links: %w", err))
	}

	total, reasons := e.scorer.Score(links, e.maxDepth)

	if e.augmenter != nil {
		texts, err := e.documentTexts(ctx, decisionID, option.ID)
		if err != nil {
			// The score stands; only the live evidence is missing
			e.logger.Warn("document lookup failed",
				zap.Int64("option_id", option.ID),
				zap.Error(err),
			)
			reasons = append(reasons, e.augmenter.Source()+" ERROR: "+err.Error())
		} else if len(texts) > 0 {
			outcomes := e.augmenter.Augment(ctx, texts)
			reasons = append(reasons, e.augmenter.Reasons(outcomes)...)
		}
	}

	e.logger.Debug("option scored",
		zap.Int64("option_id", option.ID),
		zap.Int("links", len(links)),
		zap.Float64("score", total),
		zap.Duration("elapsed", time.Since(start)),
	)

	return model.OptionScore{
		OptionID: option.ID,
		Name:     option.Name,
		Score:    total,
		Reasons:  reasons,
	}
}

// documentTexts returns the option's claim documents followed by the
// decision documents, without duplicates or empty texts
func (e *Evaluator) documentTexts(ctx context.Context, decisionID, optionID int64) ([]string, error) {
	if docs, ok := e.repo.(DocumentRepository); ok {
		return documentTextsByID(ctx, docs, decisionID, optionID)
	}

	// Without document identity the text is the only key
	optionTexts, err := e.repo.GetDocumentTextsForOption(ctx, optionID)
	if err != nil {
		return nil, fmt.Errorf("get option documents: %w", err)
	}
	decisionTexts, err := e.repo.GetDocumentTextsForDecision(ctx, decisionID)
	if err != nil {
		return nil, fmt.Errorf("get decision documents: %w", err)
	}

	seen := make(map[string]bool)
	var texts []string
	for _, group := range [][]string{optionTexts, decisionTexts} {
		for _, text := range group {
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// documentTextsByID keeps distinct documents with identical bodies and
// drops a document reached both through a claim and through the decision
func documentTextsByID(ctx context.Context, repo DocumentRepository, decisionID, optionID int64) ([]string, error) {
	optionDocs, err := repo.GetDocumentsForOption(ctx, optionID)
	if err != nil {
		return nil, fmt.Errorf("get option documents: %w", err)
	}
	decisionDocs, err := repo.GetDocumentsForDecision(ctx, decisionID)
	if err != nil {
		return nil, fmt.Errorf("get decision documents: %w", err)
	}

	seen := make(map[int64]bool)
	var texts []string
	for _, group := range [][]model.Document{optionDocs, decisionDocs} {
		for _, doc := range group {
			if doc.Content == "" || seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			texts = append(texts, doc.Content)
		}
	}
	return texts, nil
}

func failedScore(option model.DecisionOption, err error) model.OptionScore {
	return model.OptionScore{
		OptionID: option.ID,
		Name:     option.Name,
		Score:    0,
		Reasons:  []string{"ERROR: " + err.Error()},
		Error:    err.Error(),
	}
}
