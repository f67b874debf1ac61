// Package forward delivers stored results to an external system, in the
// order they were recorded, by following the event log.
package forward

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/store"
)

type EventSource interface {
	Since(ctx context.Context, seq int64, limit int) ([]store.Event, error)
	Cursor(ctx context.Context, name string) (int64, error)
	SaveCursor(ctx context.Context, name string, seq int64) error
}

type ResultGetter interface {
	GetResult(ctx context.Context, id string) (quiz.Result, error)
}

// Target receives one result. Deliveries may repeat after a crash, so
// targets should treat the result id as an idempotency key.
type Target interface {
	Deliver(ctx context.Context, r quiz.Result) error
}

type Forwarder struct {
	Name      string // cursor name
	Events    EventSource
	Results   ResultGetter
	Target    Target
	Interval  time.Duration
	BatchSize int
	Logger    *log.Logger
}

func New(name string, events EventSource, results ResultGetter, target Target) *Forwarder {
	return &Forwarder{
		Name:      name,
		Events:    events,
		Results:   results,
		Target:    target,
		Interval:  30 * time.Second,
		BatchSize: 100,
		Logger:    log.Default(),
	}
}

// SyncOnce delivers the next batch of submitted results. It stops at the
// first delivery failure; the cursor only advances past delivered events.
func (f *Forwarder) SyncOnce(ctx context.Context) (int, error) {
	seq, err := f.Events.Cursor(ctx, f.Name)
	if err != nil {
		return 0, errors.Wrap(err, "load cursor")
	}
	events, err := f.Events.Since(ctx, seq, f.BatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "read events")
	}

	sent := 0
	last := seq
	var deliverErr error
	for _, e := range events {
		if e.Type == store.EventResultSubmitted {
			r, err := f.Results.GetResult(ctx, e.Key)
			switch {
			case errors.Is(err, store.ErrResultNotFound):
				f.Logger.Printf("forward %s: result %s gone; skipped", f.Name, e.Key)
			case err != nil:
				deliverErr = errors.Wrapf(err, "load result %s", e.Key)
			default:
				if err := f.Target.Deliver(ctx, r); err != nil {
					deliverErr = errors.Wrapf(err, "deliver result %s", e.Key)
				} else {
					sent++
				}
			}
			if deliverErr != nil {
				break
			}
		}
		last = e.Seq
	}

	if last != seq {
		if err := f.Events.SaveCursor(ctx, f.Name, last); err != nil {
			return sent, errors.Wrap(err, "save cursor")
		}
	}
	return sent, deliverErr
}

// Run syncs every Interval until ctx is done. Failures are logged and retried
// on the next tick.
func (f *Forwarder) Run(ctx context.Context) error {
	every := f.Interval
	if every <= 0 {
		every = 30 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		n, err := f.SyncOnce(ctx)
		if err != nil && ctx.Err() == nil {
			f.Logger.Printf("forward %s: %v", f.Name, err)
		} else if n > 0 {
			f.Logger.Printf("forward %s: delivered %d result(s)", f.Name, n)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
