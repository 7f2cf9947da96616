package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheBitDrifter/table"
	"github.com/diamondbo/rustgine"
	"github.com/diamondbo/rustgine/internal/app"
	"github.com/diamondbo/rustgine/internal/config"
	"github.com/diamondbo/rustgine/internal/sim"
	"github.com/diamondbo/rustgine/pkg/logger"
	"github.com/diamondbo/rustgine/scheduler"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

func init() {
	logger.Init()
}

func main() {
	os.Exit(run())
}

func run() int {
	var configPath, profileMode string
	var bodies int
	flag.StringVar(&configPath, "config", os.Getenv("RUSTGINE_CONFIG"), "Path to a YAML config file")
	flag.StringVar(&profileMode, "profile", "", "Profile the run: cpu or mem")
	flag.IntVar(&bodies, "bodies", sim.DefaultOptions().Bodies, "Initial number of simulated bodies")
	flag.Parse()

	switch profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		logger.Log.Fatalf("unknown profile mode %q", profileMode)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.Log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"workers":     cfg.Workers,
		"tick_rate":   cfg.TickRate,
		"debug":       cfg.DebugAccessChecks,
	}).Info("Starting rustgine...")

	if configPath != "" {
		watcher, err := config.Watch(configPath, func(next config.Config, err error) {
			if err != nil {
				logger.Log.WithError(err).Warn("Config reload failed")
				return
			}
			logger.Configure(next.LogLevel, next.LogFormat)
			logger.Log.WithField("log_level", next.LogLevel).Info("Config reloaded")
		})
		if err != nil {
			logger.Log.WithError(err).Warn("Config watch disabled")
		} else {
			defer watcher.Close()
		}
	}

	policy, _ := scheduler.ParseFaultPolicy(cfg.FaultPolicy)
	a := app.New(cfg, logger.Log)

	world := rustgine.Factory.NewWorld(table.Factory.NewSchema(), rustgine.WorldOptions{
		InitialEntityCapacity: bodies,
		QueryCacheCapacity:    cfg.QueryCacheCapacity,
		DebugAccessChecks:     cfg.DebugAccessChecks,
	})
	resources := rustgine.NewResources()
	opts := sim.DefaultOptions()
	opts.Bodies = bodies
	if err := sim.Populate(world, resources, opts); err != nil {
		logger.Log.WithError(err).Fatal("Failed to populate world")
	}

	s := scheduler.New(scheduler.Options{
		Workers:     cfg.Workers,
		FaultPolicy: policy,
		Shutdown:    a.Shutdown,
		Logger:      logger.Log,
	})
	if err := sim.Register(s); err != nil {
		logger.Log.WithError(err).Fatal("Failed to register systems")
	}
	sys := &app.SchedulerSubsystem{Scheduler: s, World: world, Resources: resources}
	a.Register(sys)
	if err := a.Start(); err != nil {
		logger.Log.WithError(err).Fatal("Startup failed")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Log.Info("Shutting down...")
		a.Shutdown.Trigger()
	}()

	frames, err := app.Loop(a, sys)
	a.Stop()
	stats := rustgine.MustResource[sim.FrameStats](resources)
	log := logger.Log.WithFields(logrus.Fields{
		"frames":     frames,
		"entities":   stats.Entities,
		"archetypes": stats.Archetypes,
	})
	if err != nil {
		log.WithError(err).Error("Loop stopped on fault")
		return 1
	}
	log.Info("Done.")
	return 0
}
