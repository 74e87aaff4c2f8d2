package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrank/internal/cache"
	"github.com/ppiankov/claimrank/internal/engine"
	"github.com/ppiankov/claimrank/internal/extract"
	"github.com/ppiankov/claimrank/internal/logging"
	"github.com/ppiankov/claimrank/internal/model"
	"github.com/ppiankov/claimrank/internal/source"
	"github.com/ppiankov/claimrank/internal/store"
	"github.com/ppiankov/claimrank/internal/worker"
)

// buildLogger creates the process logger; --verbose raises warn to info
func buildLogger(cfg *model.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if verbose && (logCfg.Level == "" || logCfg.Level == "warn") {
		logCfg.Level = "info"
	}
	return logging.New(logCfg)
}

// buildAugmenter wires the extraction provider, optional cache, rate
// limiter and retrying evidence worker into an augmenter
func buildAugmenter(cfg *model.Config, logger *zap.Logger) (*worker.Augmenter, error) {
	extractCfg := extract.ConfigFromModel(cfg.LLM)
	extractCfg.HTTPProxy = cfg.Fetch.HTTPProxy
	extractCfg.HTTPSProxy = cfg.Fetch.HTTPSProxy

	extractor, err := extract.NewExtractor(extractCfg)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	if cfg.Cache.Enabled {
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.DiskDir, cfg.Cache.DiskTTL)
		extractor = extract.NewCachedExtractor(extractor, c, cfg.Cache.DiskTTL)
	}

	w := worker.NewEvidenceWorker(extractor)
	w.MaxRetries = cfg.Augment.MaxRetries
	w.BackoffBase = cfg.Augment.BackoffBase
	w.CallTimeout = cfg.Augment.CallTimeout
	w.Limiter = worker.NewLimiter(cfg.Augment.RequestsPerSecond, cfg.Augment.Burst)
	w.Logger = logger.Named("evidence")

	logger.Info("evidence augmentation enabled",
		zap.String("provider", extractor.Name()),
		zap.Int("workers", cfg.Augment.Workers),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	return worker.NewAugmenter(w, cfg.Augment.Workers, logger.Named("augment")), nil
}

// openStore loads a snapshot and fetches the content of URL-only documents.
// Fetch failures are reported but do not stop the evaluation.
func openStore(ctx context.Context, path string, cfg *model.Config, logger *zap.Logger) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	if cfg.Augment.Enabled {
		opts := source.OptionsFromConfig(cfg.Fetch)
		opts.Logger = logger.Named("fetch")
		if err := st.Hydrate(ctx, source.NewFetcher(opts), logger); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: some documents could not be fetched:\n%v\n", err)
		}
	}

	return st, nil
}

// buildEvaluator wires the evaluator; augmentation follows cfg.Augment.Enabled
func buildEvaluator(repo engine.Repository, cfg *model.Config, logger *zap.Logger) (*engine.Evaluator, error) {
	opts := engine.Options{
		MaxDepth:      cfg.Scoring.MaxDepth,
		OptionWorkers: cfg.Evaluate.OptionWorkers,
		Logger:        logger.Named("engine"),
	}

	if cfg.Augment.Enabled {
		augmenter, err := buildAugmenter(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts.Augmenter = augmenter
	}

	return engine.NewEvaluator(repo, opts), nil
}

// optionLinks collects every option's links for the Markdown diagrams
func optionLinks(ctx context.Context, st *store.Store, result *model.DecisionResult) map[int64][]model.DecisionClaimLink {
	links := make(map[int64][]model.DecisionClaimLink, len(result.RankedOptions))
	for _, o := range result.RankedOptions {
		if l, err := st.GetClaimLinksForOption(ctx, o.OptionID); err == nil {
			links[o.OptionID] = l
		}
	}
	return links
}
