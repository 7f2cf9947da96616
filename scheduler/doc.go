/*
Package scheduler runs systems against a rustgine World in parallel stages.

Each System declares an Access: the component and resource types it reads and
writes, whether it needs the World exclusively, and named systems it must run
before or after. Compile derives a conflict graph from those declarations and
packs the systems greedily, in registration order, into stages whose members
are pairwise conflict-free. A stage's systems run concurrently on a bounded
worker pool; the World is locked against structural changes meanwhile, so
systems queue them on their own Commands buffer. Buffers are applied after
the stage in scheduling order, and the next stage sees the result.

Basic Usage:

	s := scheduler.New(scheduler.Options{Workers: 4})
	s.Register(
		scheduler.NewSystem("gravity", scheduler.Access{}.Writes(velocity), applyGravity),
		scheduler.NewSystem("movement", scheduler.Access{}.Reads(velocity).Writes(position).After("gravity"), move),
	)
	if _, err := s.Compile(); err != nil {
		log.Fatal(err)
	}
	for {
		report, err := s.RunFrame(world, resources)
		...
	}

A system that returns an error or panics becomes a Fault in the FrameReport;
its siblings still finish. With WorldOptions.DebugAccessChecks the World
verifies the declarations at runtime, and a violation faults the scheduler.
*/
package scheduler
