package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/searchforge/rank_aggregator/passage"
)

// ErrRetrieverDown is returned for queries a FakeRetriever marks as failing.
var ErrRetrieverDown = errors.New("retriever down")

// FakeRetriever serves scripted passage lists keyed by query text. Queries
// listed in Failing return ErrRetrieverDown; unknown queries return an empty
// list.
type FakeRetriever struct {
	mu      sync.Mutex
	lists   map[string][]string
	failing map[string]bool
	calls   []string
}

// NewFakeRetriever builds a retriever from query -> passage-text lists.
// Each text is parsed with passage.FromText, so "Title | body" entries carry
// a title.
func NewFakeRetriever(lists map[string][]string) *FakeRetriever {
	return &FakeRetriever{
		lists:   lists,
		failing: make(map[string]bool),
	}
}

// Fail marks a query as failing.
func (f *FakeRetriever) Fail(query string) {
	f.mu.Lock()
	f.failing[query] = true
	f.mu.Unlock()
}

// Retrieve implements retriever.Retriever.
func (f *FakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]passage.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, query)
	failing := f.failing[query]
	texts := f.lists[query]
	f.mu.Unlock()

	if failing {
		return nil, ErrRetrieverDown
	}

	if k > 0 && k < len(texts) {
		texts = texts[:k]
	}
	out := make([]passage.Passage, 0, len(texts))
	for i, text := range texts {
		out = append(out, passage.FromText(text, 0, i))
	}
	return out, nil
}

// Ping implements retriever.Retriever.
func (f *FakeRetriever) Ping(context.Context) error { return nil }

// Calls returns the queries retrieved so far, in call order.
func (f *FakeRetriever) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
