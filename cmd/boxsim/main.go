package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boxworld/engine/internal/config"
	"github.com/boxworld/engine/internal/core/event"
	"github.com/boxworld/engine/internal/data"
	"github.com/boxworld/engine/internal/scene"
	"github.com/boxworld/engine/internal/scripting"
	"github.com/boxworld/engine/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
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

func run() error {
	// 1. Load config
	cfgPath := "config/boxsim.toml"
	if p := os.Getenv("BOXSIM_CONFIG"); p != "" {
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

	if cfg.Profiling.Enabled {
		defer profile.Start(profileMode(cfg.Profiling.Mode), profile.ProfilePath(cfg.Profiling.Path), profile.NoShutdownHook).Stop()
	}

	// 3. Load content
	printSection("Content")
	assets, err := data.LoadAssetTable(cfg.Content.Assets)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	printStat("Spritesheets", assets.Count())

	level, err := data.LoadLevel(cfg.Content.Level)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}
	printStat("Layers", len(level.Layers))
	printStat("Milestones", len(level.Milestones))

	// 4. Build the scene and bind its scripts
	input := &autoRun{}
	collision := system.CollisionConfig{
		BroadPhaseMargin: cfg.Physics.BroadPhaseMargin,
		SensorDistance:   cfg.Physics.SensorDistance,
	}
	sc, err := scene.New(scene.Options{
		Level:     level,
		Assets:    assets,
		Actions:   input,
		Collision: collision,
		Log:       log,
	})
	if err != nil {
		return err
	}
	input.scene = sc

	scripts, err := scripting.NewEngine(cfg.Content.ScriptsDir, sc, log)
	if err != nil {
		return fmt.Errorf("init scripting: %w", err)
	}
	defer scripts.Close()
	printStat("Scripts", scripts.Loaded())

	if err := sc.Load(scripts); err != nil {
		return err
	}
	printStat("Entities", sc.Registry().Issued())

	event.Subscribe(sc.Bus(), func(e event.CoinsChanged) {
		log.Info("coins", zap.Int("total", e.Total))
	})
	event.Subscribe(sc.Bus(), func(e event.Respawned) {
		log.Info("respawned", zap.Stringer("entity", e.Entity), zap.Int("milestone", e.Milestone))
	})

	var reloads <-chan string
	if cfg.Content.HotReload {
		w, err := scripting.NewWatcher(100*time.Millisecond, cfg.Content.ScriptsDir)
		if err != nil {
			return fmt.Errorf("watch scripts: %w", err)
		}
		defer w.Close()
		reloads = w.Events
		go func() {
			for err := range w.Errors {
				log.Warn("script watcher error", zap.Error(err))
			}
		}()
	}

	// 5. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	log.Info("simulation started",
		zap.String("level", level.Name),
		zap.Duration("tick", cfg.Simulation.TickRate),
		zap.Uint64("max_ticks", cfg.Simulation.MaxTicks),
	)

	for {
		select {
		case <-ticker.C:
			sc.Tick(cfg.Simulation.TickRate)
			if cfg.Simulation.MaxTicks > 0 && sc.Ticks() >= cfg.Simulation.MaxTicks {
				log.Info("tick limit reached", zap.Uint64("ticks", sc.Ticks()), zap.Int("coins", sc.Coins()))
				return nil
			}
		case name, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			if err := scripts.Reload(name); err != nil {
				log.Error("script reload failed", zap.String("file", name), zap.Error(err))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			log.Info("simulation stopped", zap.Uint64("ticks", sc.Ticks()), zap.Int("coins", sc.Coins()))
			return nil
		}
	}
}

// autoRun plays headless: it keeps running right and jumps whenever a wall
// blocks the player.
type autoRun struct {
	scene *scene.Scene
}

func (a *autoRun) Held(act system.Action) bool {
	switch act {
	case system.ActionRight:
		return true
	case system.ActionJump:
		if a.scene == nil {
			return false
		}
		s, ok := a.scene.Stores().Sensors.TryGet(a.scene.Player())
		return ok && s.Right
	}
	return false
}

func profileMode(mode string) func(*profile.Profile) {
	switch mode {
	case "mem":
		return profile.MemProfile
	case "allocs":
		return profile.MemProfileAllocs
	case "block":
		return profile.BlockProfile
	case "mutex":
		return profile.MutexProfile
	case "trace":
		return profile.TraceProfile
	default:
		return profile.CPUProfile
	}
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
