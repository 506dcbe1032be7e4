package stylesheet

import (
	"context"

	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
)

// Ack is the pending acknowledgment of one sent delta.
// Acks of different Apply calls may complete in any order relative to
// later edits of the batch.
type Ack struct {
	Delta models.Delta

	done chan struct{}
	err  error
}

func newAck(delta models.Delta) *Ack {
	return &Ack{Delta: delta, done: make(chan struct{})}
}

func (a *Ack) resolve(err error) {
	a.err = err
	close(a.done)
}

// Done is closed once the channel answered
func (a *Ack) Done() <-chan struct{} {
	return a.done
}

// Err returns the send error. Only meaningful after Done is closed.
func (a *Ack) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Wait blocks until the delta was acknowledged or ctx is done
func (a *Ack) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return a.err
	}
}
