package policy

import "sync/atomic"

// DefaultMaxOutput is the hard ceiling on documents returned per episode.
const DefaultMaxOutput = 21

// Usage is a point-in-time snapshot of an episode's call accounting.
type Usage struct {
	QueriesIssued     int64 `json:"queries_issued"`
	JudgeCalls        int64 `json:"judge_calls"`
	DocumentsReturned int64 `json:"documents_returned"`
}

// Tracker counts the retrieval and judge calls of one aggregation episode
// and enforces the output-size ceiling. It deliberately does not cap
// queries issued; how many hops a pipeline runs is the pipeline's policy.
// Counters are atomic so concurrent retrieval fan-out can record freely.
type Tracker struct {
	maxOutput int

	queries    atomic.Int64
	judgeCalls atomic.Int64
	returned   atomic.Int64
}

// NewTracker returns a tracker; maxOutput <= 0 selects DefaultMaxOutput.
func NewTracker(maxOutput int) *Tracker {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &Tracker{maxOutput: maxOutput}
}

// MaxOutput returns the output-size ceiling.
func (t *Tracker) MaxOutput() int {
	if t == nil {
		return DefaultMaxOutput
	}
	return t.maxOutput
}

// RecordQuery counts one retrieval call.
func (t *Tracker) RecordQuery() {
	if t != nil {
		t.queries.Add(1)
	}
}

// RecordJudgeCall counts one judge call.
func (t *Tracker) RecordJudgeCall() {
	if t != nil {
		t.judgeCalls.Add(1)
	}
}

// RecordReturned records the size of the final result list.
func (t *Tracker) RecordReturned(n int) {
	if t != nil {
		t.returned.Store(int64(n))
	}
}

// ClampOutput bounds a requested result size by the ceiling. Non-positive
// requests get the full ceiling.
func (t *Tracker) ClampOutput(n int) int {
	max := t.MaxOutput()
	if n <= 0 || n > max {
		return max
	}
	return n
}

// Snapshot returns the current usage counters.
func (t *Tracker) Snapshot() Usage {
	if t == nil {
		return Usage{}
	}
	return Usage{
		QueriesIssued:     t.queries.Load(),
		JudgeCalls:        t.judgeCalls.Load(),
		DocumentsReturned: t.returned.Load(),
	}
}
