package app

import (
	"errors"
	"time"

	"github.com/diamondbo/rustgine/internal/config"
	"github.com/diamondbo/rustgine/scheduler"
	"github.com/sirupsen/logrus"
)

// Loop runs frames until the shutdown fires, MaxFrames is reached or the
// scheduler faults. It returns the number of frames run.
func Loop(a *App, sys *SchedulerSubsystem) (uint64, error) {
	rx := a.Shutdown.Subscribe()
	defer rx.Close()

	var tick <-chan time.Time
	if rate := a.Config.TickRate; rate > 0 && rate <= config.MaxTickRate {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	var frames uint64
	for {
		if limit := a.Config.MaxFrames; limit > 0 && frames >= limit {
			a.Log.WithField("frames", frames).Info("frame budget reached")
			return frames, nil
		}
		if tick != nil {
			select {
			case <-rx.Done():
				return frames, nil
			case <-tick:
			}
		} else {
			select {
			case <-rx.Done():
				return frames, nil
			default:
			}
		}

		report, err := sys.Scheduler.RunFrame(sys.World, sys.Resources)
		if errors.Is(err, scheduler.ErrShutdown) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames++
		if report.Faulted {
			for _, f := range report.Faults {
				a.Log.WithFields(logrus.Fields{
					"frame":  report.Frame,
					"system": f.System,
					"stage":  f.Stage,
				}).WithError(f).Warn("fault")
			}
		}
	}
}
