// Package guard admits at most one generation job per learner at a time.
package guard

import (
	"context"
	"sync"
)

type Guard interface {
	// TryAdmit marks the learner as in flight. It returns false when a job already holds the mark.
	TryAdmit(ctx context.Context, learnerID string) (bool, error)
	// Release clears the mark. It must run on every exit path of an admitted job.
	Release(ctx context.Context, learnerID string) error
}

// MemoryGuard keeps the in-flight set in process memory. A mark left behind by a crash
// disappears with the process.
type MemoryGuard struct {
	inFlight sync.Map
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{}
}

func (g *MemoryGuard) TryAdmit(_ context.Context, learnerID string) (bool, error) {
	_, loaded := g.inFlight.LoadOrStore(learnerID, struct{}{})
	return !loaded, nil
}

func (g *MemoryGuard) Release(_ context.Context, learnerID string) error {
	g.inFlight.Delete(learnerID)
	return nil
}

func (g *MemoryGuard) InFlight(learnerID string) bool {
	_, ok := g.inFlight.Load(learnerID)
	return ok
}
