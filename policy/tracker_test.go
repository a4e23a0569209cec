package policy

import (
	"sync"
	"testing"
)

func TestTrackerCountsUsage(t *testing.T) {
	tracker := NewTracker(0)

	tracker.RecordQuery()
	tracker.RecordQuery()
	tracker.RecordJudgeCall()
	tracker.RecordReturned(7)

	usage := tracker.Snapshot()
	if usage.QueriesIssued != 2 {
		t.Fatalf("expected 2 queries issued, got %d", usage.QueriesIssued)
	}
	if usage.JudgeCalls != 1 {
		t.Fatalf("expected 1 judge call, got %d", usage.JudgeCalls)
	}
	if usage.DocumentsReturned != 7 {
		t.Fatalf("expected 7 documents returned, got %d", usage.DocumentsReturned)
	}
}

func TestTrackerClampsOutput(t *testing.T) {
	tracker := NewTracker(0)
	if got := tracker.ClampOutput(100); got != DefaultMaxOutput {
		t.Fatalf("expected clamp to %d, got %d", DefaultMaxOutput, got)
	}
	if got := tracker.ClampOutput(3); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	small := NewTracker(5)
	if got := small.ClampOutput(100); got != 5 {
		t.Fatalf("expected clamp to 5, got %d", got)
	}
}

func TestTrackerConcurrentRecording(t *testing.T) {
	tracker := NewTracker(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordQuery()
			tracker.RecordJudgeCall()
		}()
	}
	wg.Wait()

	usage := tracker.Snapshot()
	if usage.QueriesIssued != 50 || usage.JudgeCalls != 50 {
		t.Fatalf("expected 50/50, got %d/%d", usage.QueriesIssued, usage.JudgeCalls)
	}
}

func TestNilTrackerSnapshot(t *testing.T) {
	var tracker *Tracker
	if usage := tracker.Snapshot(); usage != (Usage{}) {
		t.Fatalf("expected zero usage, got %+v", usage)
	}
}
