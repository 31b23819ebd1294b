package client

import (
	"context"
	"sync"
)

// Generation hands out request tokens so that a response belonging to a
// superseded request can be recognised and discarded. Beginning a new
// request cancels the previous one.
type Generation struct {
	mu      sync.Mutex
	current uint64
	cancel  context.CancelFunc
}

// Begin starts a new request derived from parent and returns its context and token.
func (g *Generation) Begin(parent context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	g.current++
	g.cancel = cancel
	return ctx, g.current
}

// Current reports whether token belongs to the latest request.
func (g *Generation) Current(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token != 0 && token == g.current
}

// Done releases the context of token if it is still the latest request.
func (g *Generation) Done(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == g.current && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Cancel aborts the in-flight request and invalidates its token.
func (g *Generation) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.current++
}
