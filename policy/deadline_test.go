package policy

import (
	"context"
	"testing"
	"time"
)

func TestDeadlineRejectsNegativeBudget(t *testing.T) {
	_, err := NewDeadline(context.Background(), -1, nil)
	if err != ErrInvalidBudget {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
}

func TestDeadlineCancelsWithinBudget(t *testing.T) {
	deadline, err := NewDeadline(context.Background(), 50, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer deadline.Cancel()

	ctx := deadline.Context()
	select {
	case <-ctx.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected context to cancel within budget window")
	}

	if ctx.Err() != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", ctx.Err())
	}

	time.Sleep(10 * time.Millisecond)
	if !deadline.Hit() {
		t.Fatal("expected deadline to record the budget hit")
	}
}

func TestDeadlineZeroBudgetDisablesDeadline(t *testing.T) {
	deadline, err := NewDeadline(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer deadline.Cancel()

	select {
	case <-deadline.Context().Done():
		t.Fatal("expected context to stay alive without a budget")
	case <-time.After(50 * time.Millisecond):
	}
	if deadline.Hit() {
		t.Fatal("expected no budget hit without a deadline")
	}
}
