package app

import (
	"fmt"
	"sync"

	"github.com/diamondbo/rustgine"
	"github.com/diamondbo/rustgine/internal/config"
	"github.com/diamondbo/rustgine/scheduler"
	"github.com/sirupsen/logrus"
)

// Subsystem is a part of the engine with an explicit lifecycle.
type Subsystem interface {
	Name() string
	Startup() error
	Shutdown() error
}

// App owns the configuration, the shutdown broadcast and the subsystems.
type App struct {
	Config   config.Config
	Shutdown *Shutdown
	Log      logrus.FieldLogger

	mu         sync.Mutex
	subsystems []Subsystem
	started    int
}

func New(cfg config.Config, log logrus.FieldLogger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &App{
		Config:   cfg,
		Shutdown: NewShutdown(),
		Log:      log,
	}
}

// Register adds subsystems. They start in registration order and stop in
// reverse.
func (a *App) Register(subsystems ...Subsystem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subsystems = append(a.subsystems, subsystems...)
}

// Start runs every Startup in order. On the first failure the subsystems
// already started are shut down in reverse and the error is returned.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.subsystems[a.started:] {
		log := a.Log.WithField("subsystem", s.Name())
		if err := s.Startup(); err != nil {
			log.WithError(err).Error("startup failed")
			a.started += i
			a.stopLocked()
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
		log.Info("started")
	}
	a.started = len(a.subsystems)
	return nil
}

// Stop triggers the shutdown broadcast and shuts started subsystems down in
// reverse order. Errors are logged, not fatal.
func (a *App) Stop() {
	a.Shutdown.Trigger()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *App) stopLocked() {
	for i := a.started - 1; i >= 0; i-- {
		s := a.subsystems[i]
		log := a.Log.WithField("subsystem", s.Name())
		if err := s.Shutdown(); err != nil {
			log.WithError(err).Warn("shutdown failed")
			continue
		}
		log.Info("stopped")
	}
	a.started = 0
}

// SchedulerSubsystem drives a scheduler through the App lifecycle. Startup
// compiles the plan, so an ordering cycle halts startup.
type SchedulerSubsystem struct {
	Scheduler *scheduler.Scheduler
	World     *rustgine.World
	Resources *rustgine.Resources
}

func (s *SchedulerSubsystem) Name() string {
	return "scheduler"
}

func (s *SchedulerSubsystem) Startup() error {
	_, err := s.Scheduler.Compile()
	return err
}

func (s *SchedulerSubsystem) Shutdown() error {
	return s.Scheduler.Teardown()
}
