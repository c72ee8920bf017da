package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/lshigami/pblagro/internal/guard"
	"github.com/rs/zerolog/log"
)

// GenerationNotifier is told when a learner's background generation produced new challenges.
type GenerationNotifier interface {
	ChallengesGenerated(learnerID string, created int)
}

// JobRunner starts at most one background generation per learner. Jobs run on their own
// context, detached from the request that triggered them, and are not cancelled.
type JobRunner struct {
	guard     guard.Guard
	generator GenerationService
	notifier  GenerationNotifier

	wg      sync.WaitGroup
	running sync.Map
	closing atomic.Bool
}

func NewJobRunner(g guard.Guard, generator GenerationService, notifier GenerationNotifier) *JobRunner {
	return &JobRunner{guard: g, generator: generator, notifier: notifier}
}

// Launch admits and starts a job for the learner. It returns false when a job is already running
// and ErrRunnerClosed once shutdown has begun.
func (r *JobRunner) Launch(ctx context.Context, learnerID string) (bool, error) {
	if r.closing.Load() {
		return false, ErrRunnerClosed
	}
	admitted, err := r.guard.TryAdmit(ctx, learnerID)
	if err != nil {
		return false, fmt.Errorf("admit generation for %s: %w", learnerID, err)
	}
	if !admitted {
		log.Debug().Str("nationalID", learnerID).Msg("Generation already in flight")
		return false, nil
	}

	r.wg.Add(1)
	r.running.Store(learnerID, struct{}{})
	go r.run(learnerID)
	log.Info().Str("nationalID", learnerID).Msg("Background challenge generation started")
	return true, nil
}

func (r *JobRunner) run(learnerID string) {
	defer r.wg.Done()
	defer r.running.Delete(learnerID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Str("nationalID", learnerID).Msg("Generation job panicked")
		}
		if err := r.guard.Release(context.Background(), learnerID); err != nil {
			log.Error().Err(err).Str("nationalID", learnerID).Msg("Failed to release generation guard")
		}
	}()

	report, err := r.generator.Generate(context.Background(), learnerID)
	if err != nil {
		log.Error().Err(err).Str("nationalID", learnerID).Msg("Generation job failed")
		return
	}
	if r.notifier != nil && report.Created > 0 {
		r.notifier.ChallengesGenerated(learnerID, report.Created)
	}
}

// InFlight reports whether this process is running a job for the learner.
func (r *JobRunner) InFlight(learnerID string) bool {
	_, ok := r.running.Load(learnerID)
	return ok
}

// Shutdown stops admitting jobs and waits for running ones until ctx expires.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.closing.Store(true)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("generation jobs still running: %w", ctx.Err())
	}
}
