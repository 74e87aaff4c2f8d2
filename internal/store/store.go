package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrank/internal/model"
)

// ErrNotFound is returned for unknown decisions and options
var ErrNotFound = errors.New("not found")

// Store serves a validated snapshot to the evaluator.
// Claims are linked into one in-memory graph when the store is built, so
// links come back with their claims, outgoing relations and relation
// targets resolved to any depth. The graph is never modified afterwards.
type Store struct {
	decisions   []model.Decision
	decisionIdx map[int64]int
	options     map[int64][]model.DecisionOption // by decision
	optionIdx   map[int64]model.DecisionOption
	links       map[int64][]model.DecisionClaimLink // by option
	claims      map[int64]*model.Claim

	mu        sync.RWMutex // guards document content during Hydrate
	documents []model.Document
	docIdx    map[int64]int
}

// New builds a store from a snapshot, validating it first
func New(snap *Snapshot) (*Store, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		decisionIdx: make(map[int64]int),
		options:     make(map[int64][]model.DecisionOption),
		optionIdx:   make(map[int64]model.DecisionOption),
		links:       make(map[int64][]model.DecisionClaimLink),
		claims:      make(map[int64]*model.Claim, len(snap.Claims)),
		docIdx:      make(map[int64]int),
	}

	s.decisions = append(s.decisions, snap.Decisions...)
	for i, d := range s.decisions {
		s.decisionIdx[d.ID] = i
	}

	for _, o := range snap.Options {
		s.options[o.DecisionID] = append(s.options[o.DecisionID], o)
		s.optionIdx[o.ID] = o
	}

	s.documents = append(s.documents, snap.Documents...)
	for i, d := range s.documents {
		s.docIdx[d.ID] = i
	}

	for i := range snap.Claims {
		c := snap.Claims[i]
		c.Outgoing = nil
		s.claims[c.ID] = &c
	}

	// Relations keep snapshot order per source claim
	for _, r := range snap.Relations {
		r.To = s.claims[r.ToID]
		from := s.claims[r.FromID]
		from.Outgoing = append(from.Outgoing, r)
	}

	for _, l := range snap.Links {
		l.Claim = s.claims[l.ClaimID]
		s.links[l.OptionID] = append(s.links[l.OptionID], l)
	}

	return s, nil
}

// Open loads a snapshot file and builds a store from it
func Open(path string) (*Store, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(snap)
}

// Decisions returns every decision in snapshot order
func (s *Store) Decisions() []model.Decision {
	out := make([]model.Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// GetDecision returns one decision
func (s *Store) GetDecision(ctx context.Context, decisionID int64) (model.Decision, error) {
	i, ok := s.decisionIdx[decisionID]
	if !ok {
		return model.Decision{}, fmt.Errorf("decision %d: %w", decisionID, ErrNotFound)
	}
	return s.decisions[i], nil
}

// GetOptions returns a decision's options in snapshot order
func (s *Store) GetOptions(ctx context.Context, decisionID int64) ([]model.DecisionOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.decisionIdx[decisionID]; !ok {
		return nil, fmt.Errorf("decision %d: %w", decisionID, ErrNotFound)
	}
	out := make([]model.DecisionOption, len(s.options[decisionID]))
	copy(out, s.options[decisionID])
	return out, nil
}

// GetClaimLinksForOption returns an option's links with their claim graph
// resolved
func (s *Store) GetClaimLinksForOption(ctx context.Context, optionID int64) ([]model.DecisionClaimLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.optionIdx[optionID]; !ok {
		return nil, fmt.Errorf("option %d: %w", optionID, ErrNotFound)
	}
	out := make([]model.DecisionClaimLink, len(s.links[optionID]))
	copy(out, s.links[optionID])
	return out, nil
}

// GetDocumentsForOption returns the documents owning the option's linked
// claims, in link order and without repeats
func (s *Store) GetDocumentsForOption(ctx context.Context, optionID int64) ([]model.Document, error) {
	if _, ok := s.optionIdx[optionID]; !ok {
		return nil, fmt.Errorf("option %d: %w", optionID, ErrNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var docs []model.Document
	for _, l := range s.links[optionID] {
		docID := l.Claim.DocumentID
		i, ok := s.docIdx[docID]
		if !ok || seen[docID] {
			continue
		}
		seen[docID] = true
		docs = append(docs, s.documents[i])
	}
	return docs, nil
}

// GetDocumentsForDecision returns the documents attached to the decision,
// in snapshot order
func (s *Store) GetDocumentsForDecision(ctx context.Context, decisionID int64) ([]model.Document, error) {
	if _, ok := s.decisionIdx[decisionID]; !ok {
		return nil, fmt.Errorf("decision %d: %w", decisionID, ErrNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []model.Document
	for _, d := range s.documents {
		if d.DecisionID != nil && *d.DecisionID == decisionID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// GetDocumentTextsForOption returns the non-empty contents of
// GetDocumentsForOption
func (s *Store) GetDocumentTextsForOption(ctx context.Context, optionID int64) ([]string, error) {
	docs, err := s.GetDocumentsForOption(ctx, optionID)
	if err != nil {
		return nil, err
	}
	return contents(docs), nil
}

// GetDocumentTextsForDecision returns the non-empty contents of
// GetDocumentsForDecision
func (s *Store) GetDocumentTextsForDecision(ctx context.Context, decisionID int64) ([]string, error) {
	docs, err := s.GetDocumentsForDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	return contents(docs), nil
}

func contents(docs []model.Document) []string {
	var texts []string
	for _, d := range docs {
		if d.Content != "" {
			texts = append(texts, d.Content)
		}
	}
	return texts
}

// TextFetcher resolves a URL to plain text
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// Hydrate fetches the content of every document that has a URL but no
// content. A failed fetch leaves that document empty and is reported in
// the returned error; the remaining documents are still fetched.
func (s *Store) Hydrate(ctx context.Context, fetcher TextFetcher, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	s.mu.RLock()
	var pending []int
	for i, d := range s.documents {
		if d.Content == "" && d.URL != "" {
			pending = append(pending, i)
		}
	}
	s.mu.RUnlock()

	var errs []error
	for _, i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		doc := s.documents[i]
		text, err := fetcher.FetchText(ctx, doc.URL)
		if err != nil {
			logger.Warn("document fetch failed", zap.Int64("document_id", doc.ID), zap.String("url", doc.URL), zap.Error(err))
			errs = append(errs, fmt.Errorf("document %d: %w", doc.ID, err))
			continue
		}

		s.mu.Lock()
		s.documents[i].Content = text
		s.mu.Unlock()

		logger.Debug("document fetched", zap.Int64("document_id", doc.ID), zap.Int("bytes", len(text)))
	}

	return errors.Join(errs...)
}
