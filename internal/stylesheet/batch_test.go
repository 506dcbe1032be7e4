package stylesheet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/ublock-webkit-cosmetics/internal/channel"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a channel that records deltas and can hold them back
type recorder struct {
	mu     sync.Mutex
	deltas []models.Delta
	gate   chan struct{} // nil means answer immediately
	err    error
}

func (r *recorder) ApplyDelta(ctx context.Context, d models.Delta) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, d)
	return r.err
}

func (r *recorder) sent() []models.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Delta(nil), r.deltas...)
}

func TestBatchApplySendsDistinctTexts(t *testing.T) {
	rec := &recorder{}
	b := New(context.Background(), rec, Opt{})

	b.Add(".a\n{color:red;}", false)
	b.Add(".b\n{color:red;}", false)
	b.Add(".a\n{color:red;}", false)
	b.Remove(".c\n{color:red;}", false)

	ack := b.Apply(nil)
	require.NotNil(t, ack)

	added, removed := b.Pending()
	assert.Zero(t, added)
	assert.Zero(t, removed)

	require.NoError(t, ack.Wait(context.Background()))
	b.Wait()

	sent := rec.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{".a\n{color:red;}", ".b\n{color:red;}"}, sent[0].Add)
	assert.Equal(t, []string{".c\n{color:red;}"}, sent[0].Remove)
}

func TestBatchEmptyTextIgnored(t *testing.T) {
	rec := &recorder{}
	b := New(context.Background(), rec, Opt{})

	b.Add("", true)
	b.Remove("", true)
	b.Wait()

	added, removed := b.Pending()
	assert.Zero(t, added)
	assert.Zero(t, removed)
	assert.Empty(t, rec.sent())
}

func TestBatchApplyEmptyIsNoop(t *testing.T) {
	rec := &recorder{}
	b := New(context.Background(), rec, Opt{})

	called := false
	ack := b.Apply(func() { called = true })
	b.Wait()

	assert.Nil(t, ack)
	assert.False(t, called)
	assert.Empty(t, rec.sent())
}

func TestBatchImmediate(t *testing.T) {
	rec := &recorder{}
	b := New(context.Background(), rec, Opt{})

	b.Add(".a\n{color:red;}", true)
	added, _ := b.Pending()
	assert.Zero(t, added)

	b.Remove(".a\n{color:red;}", true)
	b.Wait()

	sent := rec.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{".a\n{color:red;}"}, sent[0].Add)
	assert.Equal(t, []string{".a\n{color:red;}"}, sent[1].Remove)
}

func TestBatchClearsBeforeAcknowledgment(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	b := New(context.Background(), rec, Opt{})

	var completed atomic.Int32
	b.Add(".first\n{color:red;}", false)
	first := b.Apply(func() { completed.Add(1) })
	require.NotNil(t, first)

	// the first delta is still in flight
	b.Add(".second\n{color:red;}", false)
	added, _ := b.Pending()
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{".first\n{color:red;}"}, first.Delta.Add)
	assert.Zero(t, completed.Load())

	second := b.Apply(nil)
	require.NotNil(t, second)

	close(rec.gate)
	b.Wait()

	assert.Equal(t, int32(1), completed.Load())
	sent := rec.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{".first\n{color:red;}"}, sent[0].Add)
	assert.Equal(t, []string{".second\n{color:red;}"}, sent[1].Add)
}

func TestBatchLastWriteWins(t *testing.T) {
	tests := []struct {
		name       string
		ops        func(b *Batch)
		wantAdd    []string
		wantRemove []string
	}{
		{
			name: "remove then add",
			ops: func(b *Batch) {
				b.Remove(".x\n{a:b;}", false)
				b.Add(".x\n{a:b;}", false)
			},
			wantAdd:    []string{".x\n{a:b;}"},
			wantRemove: []string{},
		},
		{
			name: "add then remove",
			ops: func(b *Batch) {
				b.Add(".x\n{a:b;}", false)
				b.Remove(".x\n{a:b;}", false)
			},
			wantAdd:    []string{},
			wantRemove: []string{".x\n{a:b;}"},
		},
		{
			name: "add remove add",
			ops: func(b *Batch) {
				b.Add(".x\n{a:b;}", false)
				b.Add(".y\n{a:b;}", false)
				b.Remove(".x\n{a:b;}", false)
				b.Add(".x\n{a:b;}", false)
			},
			wantAdd:    []string{".y\n{a:b;}", ".x\n{a:b;}"},
			wantRemove: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			b := New(context.Background(), rec, Opt{})
			tt.ops(b)
			ack := b.Apply(nil)
			require.NotNil(t, ack)
			assert.Equal(t, tt.wantAdd, ack.Delta.Add)
			assert.Equal(t, tt.wantRemove, ack.Delta.Remove)
			b.Wait()
		})
	}
}

func TestBatchSendFailure(t *testing.T) {
	rec := &recorder{err: errors.New("host gone")}
	b := New(context.Background(), rec, Opt{})
	reg := prometheus.NewRegistry()
	require.NoError(t, b.RegisterMetricsTo(reg))

	called := false
	b.Add(".a\n{color:red;}", false)
	ack := b.Apply(func() { called = true })
	require.NotNil(t, ack)

	err := ack.Wait(context.Background())
	assert.EqualError(t, err, "host gone")
	b.Wait()

	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.applies))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.errors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.metrics.added))
}

func TestBatchWithSheet(t *testing.T) {
	sheet := channel.NewSheet(nil)
	b := New(context.Background(), sheet, Opt{})

	b.Add(".a\n{display:none!important;}", false)
	b.Add(".b\n{display:none!important;}", false)
	b.Apply(nil)
	b.Remove(".a\n{display:none!important;}", false)
	b.Apply(nil)
	b.Wait()

	assert.Equal(t, []string{".b\n{display:none!important;}"}, sheet.Rules())
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.removed))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.added))
}

func TestAckWaitContext(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	b := New(context.Background(), rec, Opt{})
	b.Add(".a\n{color:red;}", false)
	ack := b.Apply(nil)
	require.NotNil(t, ack)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ack.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, ack.Err())

	close(rec.gate)
	b.Wait()
	select {
	case <-ack.Done():
	default:
		t.Fatal("ack not done after Wait")
	}
}
