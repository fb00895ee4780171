package runtime

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/obslog"
)

// RunStepConcurrent shards each patch's start, body and end events
// across goroutines: each goroutine owns writes to its own patch's
// entities' current tables, per §4.4.8, and draws from its own RNG
// stream reseeded for (step, patch index). meta.* reads and
// ExternalResource reads stay read-only inside the shards. The
// Simulation root's start/end, remove and promote run single-threaded:
// they touch cross-patch state (removal mutates membership lists).
func (s *Simulation) RunStepConcurrent(ctx context.Context, event string, threads int) error {
	timer := obslog.StartTimer(obslog.CategoryScheduler, "step-concurrent")
	defer timer.Stop()

	order := s.iterationOrder()
	if err := s.dispatchEvent(ctx, []*Entity{s.Root}, "start"); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if threads > 0 {
		g.SetLimit(threads)
	}
	for i, patch := range s.Patches {
		patch := patch
		patchIndex := i
		g.Go(func() error {
			shardSim := s
			if s.RNG != nil {
				local := *s
				local.RNG = NewDeterministicRNG(s.RNG.baseSeed)
				local.RNG.Reseed(s.Step, patchIndex)
				shardSim = &local
			}
			shard := append([]*Entity{patch}, patch.members...)
			if err := shardSim.dispatchEvent(gctx, shard, "start"); err != nil {
				return err
			}
			if err := shardSim.dispatchEvent(gctx, shard, event); err != nil {
				return err
			}
			return shardSim.dispatchEvent(gctx, shard, "end")
		})
	}
	if err := g.Wait(); err != nil {
		return josherr.Wrap(josherr.Cancelled, err, "concurrent step failed")
	}

	if err := s.dispatchEvent(ctx, []*Entity{s.Root}, "end"); err != nil {
		return err
	}

	s.removeFinished(order)
	for _, e := range order {
		e.promote()
	}
	s.Step++
	return nil
}
