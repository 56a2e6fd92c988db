package narrative

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

// DefaultDelay is the base pause between narrated entries.
const DefaultDelay = time.Second

// Narrator drains a Channel at a jittered pace to simulate live narration.
type Narrator struct {
	ch     *Channel
	delay  time.Duration
	jitter func() float64 // uniform in [0, 1)
	sleep  func(ctx context.Context, d time.Duration) error
}

// NarratorOption configures a Narrator.
type NarratorOption func(*Narrator)

// WithRand sets the source of the uniform [0, 1) jitter factor.
func WithRand(f func() float64) NarratorOption {
	return func(n *Narrator) { n.jitter = f }
}

// WithSleep replaces the pause implementation.
func WithSleep(f func(ctx context.Context, d time.Duration) error) NarratorOption {
	return func(n *Narrator) { n.sleep = f }
}

// NewNarrator creates a Narrator pulling from ch with the given base delay.
// A non-positive delay selects DefaultDelay.
func NewNarrator(ch *Channel, delay time.Duration, opts ...NarratorOption) *Narrator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	n := &Narrator{
		ch:     ch,
		delay:  delay,
		jitter: rand.Float64,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Pause returns the delay before the next pull: base × U[0.5, 1.5).
func (n *Narrator) Pause() time.Duration {
	return time.Duration(float64(n.delay) * (0.5 + n.jitter()))
}

// Run pulls entries one at a time and hands each to fn, pausing between
// pulls. Blocks until ctx is done and returns ctx.Err().
func (n *Narrator) Run(ctx context.Context, fn func(model.NarrativeEntry)) error {
	for {
		e, err := n.ch.Pop(ctx)
		if err != nil {
			return err
		}
		fn(e)
		if err := n.sleep(ctx, n.Pause()); err != nil {
			return err
		}
	}
}

// Stream runs the narrator in a goroutine and delivers entries on the
// returned channel, which is closed when ctx is done.
func (n *Narrator) Stream(ctx context.Context) <-chan model.NarrativeEntry {
	out := make(chan model.NarrativeEntry)
	go func() {
		defer close(out)
		n.Run(ctx, func(e model.NarrativeEntry) {
			select {
			case out <- e:
			case <-ctx.Done():
			}
		})
	}()
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
