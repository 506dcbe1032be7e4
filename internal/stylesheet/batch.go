// Package stylesheet coalesces user stylesheet edits into single deltas
// sent over the privileged channel.
package stylesheet

import (
	"context"
	"sync"

	"github.com/bnema/ublock-webkit-cosmetics/internal/channel"
	"github.com/bnema/ublock-webkit-cosmetics/internal/mlog"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Batch accumulates rule texts to add and remove from the live stylesheet.
// One Batch is shared by every filterer of the process.
//
// Adding a text drops it from the removed set and removing a text drops it
// from the added set, so the last call for a given text wins.
type Batch struct {
	ctx    context.Context
	ch     channel.Channel
	logger *zap.Logger

	mu      sync.Mutex
	added   textSet
	removed textSet
	last    *Ack // most recent send, used to keep deltas in call order

	wg      conc.WaitGroup
	metrics *metrics
}

// Opt configures a Batch
type Opt struct {
	Logger *zap.Logger
}

// New creates a batch sending to ch. ctx bounds every send.
func New(ctx context.Context, ch channel.Channel, opt Opt) *Batch {
	return &Batch{
		ctx:     ctx,
		ch:      ch,
		logger:  mlog.OrNop(opt.Logger).Named("stylesheet"),
		added:   newTextSet(),
		removed: newTextSet(),
		metrics: newMetrics(),
	}
}

// Add stages cssText for insertion. Empty text is ignored.
// If immediate is set the batch is applied before returning.
func (b *Batch) Add(cssText string, immediate bool) {
	if cssText == "" {
		return
	}
	b.mu.Lock()
	b.removed.delete(cssText)
	b.added.add(cssText)
	b.mu.Unlock()
	if immediate {
		b.Apply(nil)
	}
}

// Remove stages cssText for removal. Empty text is ignored.
// If immediate is set the batch is applied before returning.
func (b *Batch) Remove(cssText string, immediate bool) {
	if cssText == "" {
		return
	}
	b.mu.Lock()
	b.added.delete(cssText)
	b.removed.add(cssText)
	b.mu.Unlock()
	if immediate {
		b.Apply(nil)
	}
}

// Apply sends everything staged so far as one delta and returns its
// acknowledgment. Both sets are cleared before the send completes, so edits
// made while the delta is in flight go to the next batch. When nothing is
// staged Apply returns nil and onComplete is never called.
//
// Deltas reach the channel in Apply call order. onComplete runs after the
// channel acknowledged the delta and is skipped when the send failed.
func (b *Batch) Apply(onComplete func()) *Ack {
	b.mu.Lock()
	delta := models.Delta{
		Add:    b.added.values(),
		Remove: b.removed.values(),
	}
	if delta.IsEmpty() {
		b.mu.Unlock()
		return nil
	}
	b.added.clear()
	b.removed.clear()

	ack := newAck(delta)
	prev := b.last
	b.last = ack
	b.mu.Unlock()

	b.metrics.applies.Inc()
	b.wg.Go(func() {
		if prev != nil {
			<-prev.done
		}
		b.send(ack, onComplete)
	})
	return ack
}

func (b *Batch) send(ack *Ack, onComplete func()) {
	err := b.ch.ApplyDelta(b.ctx, ack.Delta)
	ack.resolve(err)
	if err != nil {
		b.metrics.errors.Inc()
		b.logger.Warn("failed to apply stylesheet delta",
			zap.Int("add", len(ack.Delta.Add)),
			zap.Int("remove", len(ack.Delta.Remove)),
			zap.Error(err))
		return
	}
	b.metrics.added.Add(float64(len(ack.Delta.Add)))
	b.metrics.removed.Add(float64(len(ack.Delta.Remove)))
	b.logger.Debug("stylesheet delta applied",
		zap.Int("add", len(ack.Delta.Add)),
		zap.Int("remove", len(ack.Delta.Remove)))
	if onComplete != nil {
		onComplete()
	}
}

// Pending returns the number of staged additions and removals
func (b *Batch) Pending() (added, removed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.added.len(), b.removed.len()
}

// Wait blocks until every delta sent so far has been acknowledged or failed
func (b *Batch) Wait() {
	b.wg.Wait()
}

// RegisterMetricsTo registers the batch counters to r
func (b *Batch) RegisterMetricsTo(r prometheus.Registerer) error {
	return b.metrics.register(r)
}
