package runtime

import (
	"context"

	"github.com/schmidtdse/joshsim/internal/josherr"
)

// CancelToken wraps a context.Context so the scheduler can check it at
// each entity boundary per §5: handlers themselves are never
// interrupted mid-execution, only the loop around them.
type CancelToken struct {
	ctx context.Context
}

// NewCancelToken wraps ctx. A nil ctx is treated as context.Background.
func NewCancelToken(ctx context.Context) *CancelToken {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CancelToken{ctx: ctx}
}

// CheckAt reports Cancelled if the token's context has been canceled
// or its deadline exceeded. The passed ctx is accepted for symmetry
// with future per-call contexts but is not currently consulted beyond
// the token's own.
func (c *CancelToken) CheckAt(ctx context.Context) error {
	select {
	case <-c.ctx.Done():
		return josherr.Wrap(josherr.Cancelled, c.ctx.Err(), "cancelled")
	default:
		return nil
	}
}
