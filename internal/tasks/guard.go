package tasks

import (
	"sync"

	"github.com/desertthunder/moodlist/internal/shared"
)

// Guard allows at most one generation run per session key at a time.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire marks key as running. The returned release func is idempotent.
// Fails with [shared.ErrGenerationInProgress] when a run for key is already active.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[key]; ok {
		return nil, shared.ErrGenerationInProgress
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

// Active reports whether a run for key is in flight.
func (g *Guard) Active(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[key]
	return ok
}
