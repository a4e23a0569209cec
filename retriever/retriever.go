// Package retriever defines the retrieval collaborator contract and an HTTP
// passage-search implementation.
package retriever

import (
	"context"

	"github.com/searchforge/rank_aggregator/passage"
)

// Retriever returns a ranked list of passages for a query: at most k, often
// fewer, possibly overlapping with other calls. The candidate pool absorbs
// duplicates downstream.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]passage.Passage, error)
	Ping(ctx context.Context) error
}

// Func adapts a retrieval function to the Retriever interface.
type Func func(ctx context.Context, query string, k int) ([]passage.Passage, error)

// Retrieve implements Retriever.
func (f Func) Retrieve(ctx context.Context, query string, k int) ([]passage.Passage, error) {
	return f(ctx, query, k)
}

// Ping implements Retriever.
func (Func) Ping(context.Context) error { return nil }
