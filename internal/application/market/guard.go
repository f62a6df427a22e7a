package market

import (
	"context"
	"sync"
)

type guardKey struct{}

// Guard serializes every mutating marketplace call. Calls from other goroutines wait their turn;
// a call that re-enters the guard from inside a guarded call (its ctx descends from the outer
// call) is rejected with ErrReentrantCall.
type Guard struct {
	mu sync.Mutex
}

func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := ctx.Value(guardKey{}).(*Guard); held == g {
		return ErrReentrantCall
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(context.WithValue(ctx, guardKey{}, g))
}

// Held reports whether ctx is inside a call guarded by g.
func (g *Guard) Held(ctx context.Context) bool {
	held, _ := ctx.Value(guardKey{}).(*Guard)
	return held == g
}
