// Package shopkeepers parses shopkeeper command flags and launches the
// shopkeeper runtime.
package shopkeepers

import (
	"context"
	"flag"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/shopkeepers/internal/platform/cmd"
	shopkeepersapp "github.com/louisbranch/shopkeepers/internal/services/shopkeepers/app"
)

// Config holds shopkeeper command configuration. Env tags are read with the
// SHOPKEEPERS_ prefix.
type Config struct {
	Port                 int           `env:"PORT" envDefault:"8095"`
	DBPath               string        `env:"DB_PATH" envDefault:"data/shopkeepers.db"`
	Worlds               []string      `env:"WORLDS" envDefault:"world" envSeparator:","`
	PulseInterval        time.Duration `env:"PULSE_INTERVAL" envDefault:"250ms"`
	TickingGroups        int           `env:"TICKING_GROUPS" envDefault:"4"`
	SaveDelay            time.Duration `env:"SAVE_DELAY" envDefault:"30s"`
	SnapshotWarningLimit int           `env:"SNAPSHOT_WARNING_LIMIT" envDefault:"10"`
	NamePattern          string        `env:"NAME_PATTERN" envDefault:"^[A-Za-z0-9 &#]{3,32}$"`
	Debug                bool          `env:"DEBUG" envDefault:"false"`
	VisualizeTicks       bool          `env:"DEBUG_VISUALIZE_TICKS" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	worlds := strings.Join(cfg.Worlds, ",")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The shopkeepers health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The shopkeepers SQLite database path")
	fs.StringVar(&worlds, "worlds", worlds, "Comma-separated list of loaded worlds")
	fs.DurationVar(&cfg.PulseInterval, "pulse-interval", cfg.PulseInterval, "Interval between ticking group pulses")
	fs.IntVar(&cfg.TickingGroups, "ticking-groups", cfg.TickingGroups, "Number of ticking groups")
	fs.DurationVar(&cfg.SaveDelay, "save-delay", cfg.SaveDelay, "Delay before a delayed save is flushed")
	fs.IntVar(&cfg.SnapshotWarningLimit, "snapshot-warning-limit", cfg.SnapshotWarningLimit, "Snapshot count above which a warning is logged")
	fs.StringVar(&cfg.NamePattern, "name-pattern", cfg.NamePattern, "Allowed shopkeeper name pattern")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.BoolVar(&cfg.VisualizeTicks, "visualize-ticks", cfg.VisualizeTicks, "Log a colored marker for every tick")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Worlds = splitList(worlds)
	return cfg, nil
}

// Run starts the shopkeeper runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceShopkeepers, func(context.Context) error {
		return shopkeepersapp.Run(ctx, shopkeepersapp.RuntimeConfig{
			Port:                 cfg.Port,
			DBPath:               cfg.DBPath,
			Worlds:               cfg.Worlds,
			PulseInterval:        cfg.PulseInterval,
			TickingGroups:        cfg.TickingGroups,
			SaveDelay:            cfg.SaveDelay,
			SnapshotWarningLimit: cfg.SnapshotWarningLimit,
			NamePattern:          cfg.NamePattern,
			Debug:                cfg.Debug,
			VisualizeTicks:       cfg.VisualizeTicks,
		})
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
