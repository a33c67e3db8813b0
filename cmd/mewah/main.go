package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mewah/core/internal/config"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/header"
	"github.com/mewah/core/internal/persist"
	"github.com/mewah/core/internal/scripting"
	"github.com/pkg/profile"
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

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              mewah core  v0.1.0           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mapplication:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len([]rune(title)) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len([]rune(label)) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Boot sequence ─────────────────────────────────────────────────

func run() error {
	start := time.Now()

	// 1. Load config
	cfgPath := "config/mewah.toml"
	if p := os.Getenv("MEWAH_CONFIG"); p != "" {
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

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	printBanner(cfg.Engine.Name)

	// 3. Decode the application header
	printSection("header")
	app, err := loadHeader(cfg.Engine.HeaderPath)
	if err != nil {
		return err
	}
	printOK(fmt.Sprintf("decoded %s", cfg.Engine.HeaderPath))
	printStat("assets", len(app.Assets))
	printStat("components", len(app.Components))
	fmt.Println()

	// 4. Build the component stores
	printSection("components")
	world, err := app.Build(log)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	world.Each(func(_ int, s *ecs.ComponentStore) {
		log.Debug("component store ready",
			zap.String("name", s.Name()),
			zap.Int("stride", s.Stride()),
			zap.Int("fields", len(s.Schema().Fields)),
			zap.String("fingerprint", header.FingerprintHex(s.Schema())),
		)
		printStat(fmt.Sprintf("%s (stride)", s.Name()), s.Stride())
	})
	fmt.Println()

	// 5. Boot script
	if cfg.Engine.ScriptPath != "" {
		printSection("scripts")
		engine := scripting.NewEngine(world, log.Named("lua"))
		err := engine.RunPath(cfg.Engine.ScriptPath)
		engine.Close()
		if err != nil {
			return fmt.Errorf("boot script: %w", err)
		}
		printOK(fmt.Sprintf("ran %s", cfg.Engine.ScriptPath))
		world.Each(func(_ int, s *ecs.ComponentStore) {
			if s.Len() > 0 {
				printStat(s.Name(), s.Len())
			}
		})
		fmt.Println()
	}

	// 6. Snapshot
	if cfg.Database.Enabled {
		printSection("database")
		if err := saveSnapshot(cfg, world, log); err != nil {
			return err
		}
		fmt.Println()
	}

	printSection("ready")
	printReady(readyLine(world.Len(), time.Since(start)))
	fmt.Println()
	return nil
}

func readyLine(stores int, took time.Duration) string {
	return fmt.Sprintf("%d component stores in %s", stores, took.Round(time.Millisecond))
}

func loadHeader(path string) (*header.Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header: %w", err)
	}
	defer f.Close()
	app, err := header.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode header %s: %w", path, err)
	}
	return app, nil
}

func saveSnapshot(cfg *config.Config, world *ecs.World, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Database.ConnectTimeout+30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("migrations at version %d", version))

	repo := persist.NewSnapshotRepo(db, cfg.Engine.Name)
	id, err := repo.Save(ctx, world)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	components, fields, err := repo.Count(ctx, id)
	if err != nil {
		return fmt.Errorf("count snapshot: %w", err)
	}
	printOK(fmt.Sprintf("snapshot %s", id))
	printStat("snapshot components", components)
	printStat("snapshot fields", fields)
	return nil
}

// startProfile starts the profiler selected by cfg and returns its stop
// function, or nil when profiling is off.
func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Dir), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
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
