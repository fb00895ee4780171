package runtime

import (
	"context"

	"github.com/schmidtdse/joshsim/internal/obslog"
)

// Run drives the scheduler across the closed step range
// [stepsLow, stepsHigh], dispatching "init" in place of "step" for the
// first iteration only (§4.4.2). threads <= 1 runs the single-threaded
// cooperative path; threads > 1 shards by patch.
func (s *Simulation) Run(ctx context.Context, stepsLow, stepsHigh int, threads int, onStep func(step int)) error {
	log := obslog.Get(obslog.CategoryScheduler)
	log.Infow("run starting", "stepsLow", stepsLow, "stepsHigh", stepsHigh, "threads", threads)

	for step := stepsLow; step <= stepsHigh; step++ {
		event := "step"
		if step == stepsLow {
			event = "init"
		}
		var err error
		if threads > 1 {
			err = s.RunStepConcurrent(ctx, event, threads)
		} else {
			err = s.RunStep(ctx, event)
		}
		if err != nil {
			log.Errorw("step failed", "step", step, "error", err)
			return err
		}
		if onStep != nil {
			onStep(step)
		}
	}
	log.Infow("run finished", "finalStep", s.Step)
	return nil
}
