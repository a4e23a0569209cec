package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchforge/rank_aggregator/judge"
)

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.model)

	c, err = New(Config{BaseURL: "http://localhost:8080/v1/", Model: "local-model"})
	require.NoError(t, err)
	assert.Equal(t, "local-model", c.model)
}

func TestSystemPromptPerKind(t *testing.T) {
	numeric := systemPrompt(judge.Prompt{
		Instruction: "Score the document.",
		Want:        judge.KindNumeric,
		Range:       judge.DefaultRange,
	})
	assert.Contains(t, numeric, "Score the document.")
	assert.Contains(t, numeric, "single number between 0 and 10")

	ranked := systemPrompt(judge.Prompt{
		Instruction: "Rank the documents.",
		Want:        judge.KindRankedIndices,
		Candidates:  4,
	})
	assert.Contains(t, ranked, "JSON array")
	assert.Contains(t, ranked, "below 4")

	justified := systemPrompt(judge.Prompt{
		Instruction: "Score and explain.",
		Want:        judge.KindScoredJustification,
		Range:       judge.DefaultRange,
	})
	assert.Contains(t, justified, "explain briefly")
}

func TestRenderFields(t *testing.T) {
	out := renderFields(judge.Prompt{
		Fields: []judge.Field{
			{Name: "claim", Value: "the tower opened in 1889"},
			{Name: "candidate_doc", Value: "Doc A | body"},
		},
	})
	assert.Equal(t, "claim:\nthe tower opened in 1889\n\ncandidate_doc:\nDoc A | body", out)
}
