package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/framecore/internal/config"
	"github.com/l1jgo/framecore/internal/core/event"
	"github.com/l1jgo/framecore/internal/core/scene"
	"github.com/l1jgo/framecore/internal/data"
	"github.com/l1jgo/framecore/internal/engine"
	"github.com/l1jgo/framecore/internal/persist"
	"github.com/l1jgo/framecore/internal/scripting"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(runID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             framecore  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       frame-stepped scene runtime         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mrun:\033[0m %s\n\n", runID)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main runtime logic ────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/framecore.toml"
	if p := os.Getenv("FRAMECORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Engine on the headless backend
	eng := engine.New(cfg.Loop, engine.NewHeadless(log), log)
	printBanner(eng.RunID().String())

	// 4. Scripts and scenes
	printSection("content")
	scripts, err := scripting.NewEngine(cfg.Content.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	scripts.SetNavigator(eng)
	printStat("behaviours", len(scripts.Behaviors()))

	manifest, err := data.LoadManifest(cfg.Content.Manifest)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	builder := data.NewBuilder(eng.World(), func(w *scene.World, spec data.ComponentSpec) (scene.Component, error) {
		if !scripts.HasBehavior(spec.Behavior) {
			return nil, fmt.Errorf("unknown behaviour %q", spec.Behavior)
		}
		return scripts.NewComponent(w, spec.Behavior, spec.Order), nil
	})
	scenes, err := builder.Build(manifest)
	if err != nil {
		return fmt.Errorf("build scenes: %w", err)
	}
	for _, s := range scenes {
		eng.Register(s.Name(), s)
	}
	nScenes, nEntities, nComponents := manifest.Counts()
	printStat("scenes", nScenes)
	printStat("entities", nEntities)
	printStat("components", nComponents)

	if cfg.Content.HotReload {
		watcher, err := scripting.NewWatcher(cfg.Content.ScriptsDir)
		if err != nil {
			return fmt.Errorf("watch scripts: %w", err)
		}
		defer watcher.Close()
		eng.AddSystem(scripting.NewReloadSystem(scripts, watcher.Events, watcher.Errors, eng.Bus(), log))
		printOK("script hot reload on")
	}
	event.Subscribe(eng.Bus(), func(ev event.ScriptReloaded) {
		if ev.Err == nil {
			log.Info("script reloaded", zap.String("file", ev.Path))
		}
	})
	fmt.Println()

	// 5. Optional run telemetry
	var runErr error
	if cfg.Database.Enabled {
		printSection("database")
		finish, err := startTelemetry(cfg, eng, manifest.Initial, log)
		if err != nil {
			return err
		}
		defer func() { finish(runErr) }()
		fmt.Println()
	}

	// 6. Run until Exit or a signal
	if err := eng.Start(manifest.Initial); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printReady(fmt.Sprintf("running %q at %.2f steps/s", manifest.Initial, cfg.Loop.TargetRate))
	fmt.Println()

	if runErr = eng.Run(ctx); runErr != nil {
		return fmt.Errorf("engine: %w", runErr)
	}
	return nil
}

// startTelemetry connects to PostgreSQL, records the run and samples every
// step. The returned func flushes, records how the run ended and closes
// everything.
func startTelemetry(cfg *config.Config, eng *engine.Engine, initial string, log *zap.Logger) (func(runErr error), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("schema at version %d", version))

	runs := persist.NewRunRepo(db)
	started := time.Now()
	if err := runs.Begin(ctx, persist.Run{
		ID:            eng.RunID(),
		StartedAt:     started,
		InitialScene:  initial,
		TargetRate:    cfg.Loop.TargetRate,
		FixedTimestep: cfg.Loop.FixedTimestep,
	}); err != nil {
		db.Close()
		return nil, err
	}

	rec := persist.NewRecorder(runs, eng.RunID(), cfg.Database.QueueSize, cfg.Database.FlushEvery, log)
	eng.AddSystem(persist.NewRecordSystem(rec, func() persist.Sample {
		return persist.Sample{
			Step:       eng.Steps(),
			Tick:       eng.Loop().Stats().Ticks,
			Simulated:  eng.Elapsed(),
			Scene:      eng.NameOf(eng.Current()),
			Entities:   eng.World().Entities(),
			RecordedAt: time.Now(),
		}
	}))
	printOK("run telemetry recording")

	return func(runErr error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rec.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("telemetry flush incomplete", zap.Error(err))
		}
		if err := runs.Finish(ctx, eng.RunID(), persist.RunResult{
			FinishedAt: time.Now(),
			Steps:      eng.Steps(),
			Simulated:  eng.Elapsed(),
			Err:        runErr,
		}); err != nil {
			log.Error("finish run", zap.Error(err))
		}
		log.Info("telemetry closed",
			zap.Uint64("written", rec.Written()),
			zap.Uint64("dropped", rec.Dropped()))
		db.Close()
	}, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
