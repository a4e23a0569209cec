package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/searchforge/rank_aggregator/judge"
)

// ErrJudgeDown is returned once the scripted verdicts run out with Strict
// set, or for calls a FakeJudge marks as failing.
var ErrJudgeDown = errors.New("judge down")

// FakeJudge replays a fixed script of raw judge outputs in call order. Each
// raw string goes through judge.ParseVerdict exactly like a live model
// response would.
type FakeJudge struct {
	mu     sync.Mutex
	script []string
	index  int
	calls  int

	// Strict makes the judge error once the script is exhausted; otherwise
	// the last entry is replayed.
	Strict bool
}

// NewFakeJudge builds a judge replaying the given raw outputs.
func NewFakeJudge(script ...string) *FakeJudge {
	return &FakeJudge{script: script}
}

// Judge implements judge.Judge.
func (f *FakeJudge) Judge(_ context.Context, p judge.Prompt) (judge.Verdict, error) {
	f.mu.Lock()
	f.calls++
	if f.index >= len(f.script) {
		if f.Strict || len(f.script) == 0 {
			f.mu.Unlock()
			return judge.Verdict{}, ErrJudgeDown
		}
		raw := f.script[len(f.script)-1]
		f.mu.Unlock()
		return judge.ParseVerdict(raw, p)
	}
	raw := f.script[f.index]
	f.index++
	f.mu.Unlock()
	return judge.ParseVerdict(raw, p)
}

// Calls returns the number of judge calls handled so far.
func (f *FakeJudge) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
