package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/claimrank/internal/cache"
)

type countingExtractor struct {
	calls int
	err   error
}

func (c *countingExtractor) Name() string { return "counting" }

func (c *countingExtractor) ExtractClaims(ctx context.Context, text string) ([]ExtractedClaim, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []ExtractedClaim{{Text: text, Confidence: 0.5}}, nil
}

func TestCachedExtractor_Hit(t *testing.T) {
	inner := &countingExtractor{}
	e := NewCachedExtractor(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0)

	for i := 0; i < 3; i++ {
		claims, err := e.ExtractClaims(context.Background(), "same text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(claims) != 1 || claims[0].Text != "same text" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if e.Name() != "counting" {
		t.Errorf("expected wrapped name, got %s", e.Name())
	}
}

func TestCachedExtractor_ErrorsAreNotCached(t *testing.T) {
	inner := &countingExtractor{err: ErrTransient}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := NewCachedExtractor(inner, c, 0)

	for i := 0; i < 2; i++ {
		if _, err := e.ExtractClaims(context.Background(), "text"); !errors.Is(err, ErrTransient) {
			t.Fatalf("expected ErrTransient, got %v", err)
		}
	}

	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls, got %d", inner.calls)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}
