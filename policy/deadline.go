package policy

import (
	"context"
	"sync/atomic"
	"time"
)

// Deadline derives a deadline-bound context for one episode and records
// whether the time budget was exhausted. The deadline only degrades an
// episode (whatever was gathered so far gets aggregated); it never fails it.
type Deadline struct {
	ctx    context.Context
	cancel context.CancelFunc
	hit    atomic.Bool
}

// NewDeadline binds a time budget in milliseconds to the parent context.
// A negative budget is rejected; zero disables the deadline.
func NewDeadline(parent context.Context, budgetMS int, metrics *Metrics) (*Deadline, error) {
	if budgetMS < 0 {
		return nil, ErrInvalidBudget
	}
	if parent == nil {
		parent = context.Background()
	}

	d := &Deadline{}
	if budgetMS == 0 {
		d.ctx, d.cancel = context.WithCancel(parent)
		return d, nil
	}

	d.ctx, d.cancel = context.WithTimeout(parent, time.Duration(budgetMS)*time.Millisecond)
	go func() {
		<-d.ctx.Done()
		if d.ctx.Err() == context.DeadlineExceeded {
			d.hit.Store(true)
			metrics.IncBudgetHit()
		}
	}()
	return d, nil
}

// Context returns the deadline-bound context.
func (d *Deadline) Context() context.Context {
	return d.ctx
}

// Cancel releases the deadline's resources.
func (d *Deadline) Cancel() {
	d.cancel()
}

// Hit reports whether the time budget was exhausted.
func (d *Deadline) Hit() bool {
	if d == nil {
		return false
	}
	return d.hit.Load()
}
