// Package channel defines the privileged channel that applies stylesheet
// deltas to the page, and an in-process host implementation of it.
package channel

import (
	"context"
	"errors"

	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
)

// ErrClosed is returned once the host side of a channel is gone
var ErrClosed = errors.New("channel closed")

// Channel applies a stylesheet delta to the live page stylesheet.
// ApplyDelta returns once the host acknowledged the delta.
type Channel interface {
	ApplyDelta(ctx context.Context, delta models.Delta) error
}
