package retriever

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchforge/rank_aggregator/testutil"
)

const searchBody = `{"topk":[
	{"title":"Doc A","text":"Doc A | first body","score":0.9},
	{"title":"Doc B","text":"Doc B | second body","score":0.8},
	{"title":"Doc C","text":"","score":0.7}
]}`

func TestHTTPSourceParsesHits(t *testing.T) {
	fake := testutil.NewFakeSource(testutil.FakeResponse{Status: http.StatusOK, Body: searchBody})
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 0)
	require.NoError(t, err)

	passages, err := src.Retrieve(context.Background(), "claim text", 10)
	require.NoError(t, err)
	require.Len(t, passages, 3)

	assert.Equal(t, "Doc A", passages[0].Title)
	assert.Equal(t, "first body", passages[0].Content)
	assert.Equal(t, 0, passages[0].Rank)
	assert.Equal(t, 1, passages[1].Rank)
	// Empty text falls back to the title.
	assert.Equal(t, "Doc C", passages[2].Title)
	assert.Empty(t, passages[2].Content)
}

func TestHTTPSourceTruncatesToK(t *testing.T) {
	fake := testutil.NewFakeSource(testutil.FakeResponse{Status: http.StatusOK, Body: searchBody})
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 0)
	require.NoError(t, err)

	passages, err := src.Retrieve(context.Background(), "claim text", 2)
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	fake := testutil.NewFakeSource(
		testutil.FakeResponse{Status: http.StatusInternalServerError},
		testutil.FakeResponse{Status: http.StatusOK, Body: searchBody},
	)
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 2)
	require.NoError(t, err)

	passages, err := src.Retrieve(context.Background(), "claim text", 3)
	require.NoError(t, err)
	assert.Len(t, passages, 3)
	assert.Equal(t, 2, fake.Calls())
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	fake := testutil.NewFakeSource(testutil.FakeResponse{Status: http.StatusBadRequest, Body: "bad k"})
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 2)
	require.NoError(t, err)

	_, err = src.Retrieve(context.Background(), "claim text", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 1, fake.Calls())
}

func TestHTTPSourceRespectsContextDuringBackoff(t *testing.T) {
	fake := testutil.NewFakeSource(
		testutil.FakeResponse{Status: http.StatusInternalServerError},
		testutil.FakeResponse{Status: http.StatusInternalServerError},
	)
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = src.Retrieve(ctx, "claim text", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPSourceRejectsInvalidInputs(t *testing.T) {
	_, err := NewHTTPSource("", nil, 0)
	assert.Error(t, err)

	src, err := NewHTTPSource("http://localhost:0", nil, 0)
	require.NoError(t, err)
	_, err = src.Retrieve(context.Background(), "q", 0)
	assert.Error(t, err)
}

func TestHTTPSourcePing(t *testing.T) {
	fake := testutil.NewFakeSource(testutil.FakeResponse{Status: http.StatusOK, Body: `{"topk":[]}`})
	defer fake.Close()

	src, err := NewHTTPSource(fake.URL(), nil, 0)
	require.NoError(t, err)
	assert.NoError(t, src.Ping(context.Background()))
}
