package scheduler

import (
	"errors"
	"time"

	"github.com/diamondbo/rustgine"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func (s *Scheduler) execute(plan *Plan, frame uint64, world *rustgine.World, resources *rustgine.Resources) (*FrameReport, error) {
	start := time.Now()
	report := &FrameReport{Frame: frame}
	var fatal error
	for i, stage := range plan.Stages {
		faultsBefore := len(report.Faults)
		if err := s.runStage(stage, frame, world, resources, report); err != nil {
			fatal = err
			s.resetBuffers(plan)
			break
		}
		faulted := len(report.Faults) > faultsBefore
		if faulted && s.opts.FaultPolicy == AbortFrameOnFault && i < len(plan.Stages)-1 {
			report.Aborted = true
			break
		}
	}
	report.Faulted = len(report.Faults) > 0 || fatal != nil
	report.Duration = time.Since(start)

	log := s.log.WithFields(logrus.Fields{
		"frame":    frame,
		"duration": report.Duration,
		"stages":   len(report.Stages),
	})
	switch {
	case fatal != nil:
		log.WithError(fatal).Error("access violation, scheduler faulted")
	case report.Faulted:
		log.WithField("faults", len(report.Faults)).Warn("frame completed with faults")
	default:
		log.Debug("frame completed")
	}
	return report, fatal
}

// runStage dispatches every system of stage onto the worker pool, waits for
// all of them, then drains their command buffers in scheduling order.
func (s *Scheduler) runStage(stage Stage, frame uint64, world *rustgine.World, resources *rustgine.Resources, report *FrameReport) error {
	start := time.Now()
	sr := StageReport{Index: stage.Index, Systems: make([]SystemReport, len(stage.nodes))}
	faults := make([]*Fault, len(stage.nodes))

	if !stage.Exclusive {
		world.Lock()
	}
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, n := range stage.nodes {
		g.Go(func() error {
			sr.Systems[i], faults[i] = s.runSystem(n, stage.Index, frame, world, resources)
			return nil
		})
	}
	_ = g.Wait()
	if !stage.Exclusive {
		world.Unlock()
	}

	for _, f := range faults {
		if f != nil {
			report.Faults = append(report.Faults, *f)
			s.log.WithFields(logrus.Fields{
				"system": f.System,
				"stage":  f.Stage,
				"frame":  frame,
			}).WithError(f).Warn("system fault")
		}
	}

	if violations := world.AccessViolations(); len(violations) > 0 {
		sr.Wall = time.Since(start)
		report.Stages = append(report.Stages, sr)
		return errors.Join(violations...)
	}

	for _, n := range stage.nodes {
		name := n.system.Name()
		created, errs := n.commands.Flush(world)
		for _, e := range created {
			report.Created = append(report.Created, Created{System: name, Stage: stage.Index, Entity: e})
		}
		for _, err := range errs {
			report.Faults = append(report.Faults, Fault{System: name, Stage: stage.Index, Err: err, Command: true})
			s.log.WithFields(logrus.Fields{
				"system": name,
				"stage":  stage.Index,
				"frame":  frame,
			}).WithError(err).Warn("buffered command failed")
		}
	}

	sr.Wall = time.Since(start)
	report.Stages = append(report.Stages, sr)
	return nil
}

func (s *Scheduler) runSystem(n *node, stage int, frame uint64, world *rustgine.World, resources *rustgine.Resources) (rep SystemReport, fault *Fault) {
	name := n.system.Name()
	rep.Name = name
	start := time.Now()

	// Exclusive systems run alone with full access; the guard stays idle.
	if !n.exclusive {
		reads, writes := n.access.readOnly(), n.access.ComponentWrites
		if err := world.BeginAccess(reads, writes); err != nil {
			rep.Duration = time.Since(start)
			return rep, &Fault{System: name, Stage: stage, Err: err}
		}
		defer world.EndAccess(reads, writes)
	}

	defer func() {
		rep.Duration = time.Since(start)
		if r := recover(); r != nil {
			fault = &Fault{System: name, Stage: stage, Panic: r}
		}
	}()

	ctx := &Context{
		World:     world,
		Resources: resources,
		Commands:  n.commands,
		Frame:     frame,
		Stage:     stage,
		Log:       s.log.WithField("system", name),
	}
	if err := n.system.Run(ctx); err != nil {
		fault = &Fault{System: name, Stage: stage, Err: err}
	}
	return rep, fault
}

func (s *Scheduler) resetBuffers(plan *Plan) {
	for _, stage := range plan.Stages {
		for _, n := range stage.nodes {
			n.commands.Reset()
		}
	}
}
