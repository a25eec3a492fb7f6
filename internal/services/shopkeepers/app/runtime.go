package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/shopkeepers/internal/platform/otel"
	"github.com/louisbranch/shopkeepers/internal/platform/timeouts"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/registry"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopkeeper"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ticking"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ui"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/storage"
	shopsqlite "github.com/louisbranch/shopkeepers/internal/services/shopkeepers/storage/sqlite"
)

// RuntimeConfig controls shopkeeper runtime startup and loop behavior.
type RuntimeConfig struct {
	Port                 int
	DBPath               string
	Worlds               []string
	PulseInterval        time.Duration
	TickingGroups        int
	SaveDelay            time.Duration
	SnapshotWarningLimit int
	NamePattern          string
	Debug                bool
	VisualizeTicks       bool

	// Objects overrides the object type registry. Defaults to the built-in
	// object types.
	Objects *shopobject.Registry
	Logf    func(format string, args ...any)
	Now     func() time.Time
}

const (
	defaultPort          = 8095
	defaultDBPath        = "data/shopkeepers.db"
	defaultPulseInterval = 250 * time.Millisecond

	healthService = "shopkeepers.runtime"
)

// Runtime hosts the registered shopkeepers: it loads them from storage,
// pulses their ticking groups and hands dirty state to the storage
// coordinator. Everything except the coordinator writer runs on the
// goroutine that calls Run.
type Runtime struct {
	env         *shopkeeper.Env
	sessions    *ui.Registry
	ticker      *ticking.Ticker
	registry    *registry.Registry
	coordinator *storage.Coordinator
	store       storage.Store

	worlds        []string
	pulseInterval time.Duration
	logf          func(string, ...any)
	tracer        trace.Tracer
}

// NewRuntime wires a runtime over store.
func NewRuntime(store storage.Store, cfg RuntimeConfig) (*Runtime, error) {
	if store == nil {
		return nil, fmt.Errorf("shopkeeper store is required")
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	pulseInterval := cfg.PulseInterval
	if pulseInterval <= 0 {
		pulseInterval = defaultPulseInterval
	}
	groupCount := cfg.TickingGroups
	if groupCount <= 0 {
		groupCount = ticking.DefaultGroups
	}
	saveDelay := cfg.SaveDelay
	if saveDelay <= 0 {
		saveDelay = storage.DefaultSaveDelay
	}

	settings := shopkeeper.DefaultSettings()
	if cfg.SnapshotWarningLimit > 0 {
		settings.SnapshotWarningLimit = cfg.SnapshotWarningLimit
	}
	if pattern := strings.TrimSpace(cfg.NamePattern); pattern != "" {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern: %w", err)
		}
		settings.NamePattern = compiled
	}
	settings.Debug = cfg.Debug
	settings.VisualizeTicks = cfg.VisualizeTicks

	objects := cfg.Objects
	if objects == nil {
		objects = shopobject.DefaultRegistry()
	}

	worlds := make([]string, 0, len(cfg.Worlds))
	for _, world := range cfg.Worlds {
		if world = strings.TrimSpace(world); world != "" {
			worlds = append(worlds, world)
		}
	}

	groups := ticking.NewGroupCounter(groupCount)
	coordinator := storage.NewCoordinator(storage.CoordinatorConfig{
		Store:     store,
		SaveDelay: saveDelay,
		Now:       now,
		Logf:      logf,
	})
	ticker := ticking.New(ticking.Config{
		Groups: groupCount,
		Saver:  coordinator,
		Logf:   logf,
	})
	sessions := ui.NewRegistry(now, logf)
	visualizer := ticking.NewVisualizer(groupCount, func(anchor location.BlockLocation, color string) {
		logf("Tick at %s (%s)", anchor, color)
	})
	env := &shopkeeper.Env{
		Types:      shopkeeper.DefaultTypes(),
		Objects:    objects,
		Groups:     groups,
		Storage:    coordinator,
		UI:         sessions,
		Worlds:     shopkeeper.NewStaticWorlds(worlds...),
		Visualizer: visualizer,
		Settings:   settings,
		Logf:       logf,
		Now:        now,
	}
	reg := registry.New(registry.Config{
		Env:      env,
		Ticker:   ticker,
		Migrator: shopkeeper.NewMigrator(objects, logf),
		Deleted:  coordinator,
		Logf:     logf,
	})

	return &Runtime{
		env:           env,
		sessions:      sessions,
		ticker:        ticker,
		registry:      reg,
		coordinator:   coordinator,
		store:         store,
		worlds:        worlds,
		pulseInterval: pulseInterval,
		logf:          logf,
		tracer:        otel.Tracer("runtime"),
	}, nil
}

// Registry returns the shopkeeper registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Ticker returns the ticking-group scheduler.
func (r *Runtime) Ticker() *ticking.Ticker { return r.ticker }

// Coordinator returns the storage coordinator.
func (r *Runtime) Coordinator() *storage.Coordinator { return r.coordinator }

// Env returns the environment shared by all shopkeepers.
func (r *Runtime) Env() *shopkeeper.Env { return r.env }

// Load registers every stored shopkeeper and activates the configured
// worlds. Records that fail to load are logged and skipped.
func (r *Runtime) Load(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "shopkeepers.load")
	defer span.End()

	listCtx, cancel := context.WithTimeout(ctx, timeouts.StorageLoad)
	defer cancel()
	records, err := r.store.ListShopkeepers(listCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list shopkeepers")
		return 0, fmt.Errorf("list shopkeepers: %w", err)
	}

	loaded := 0
	for _, rec := range records {
		record, err := data.Decode(rec.Data)
		if err != nil {
			r.logf("Shopkeeper %d: Could not decode stored data: %v", rec.ID, err)
			continue
		}
		if _, err := r.registry.Load(record); err != nil {
			r.logf("Shopkeeper %d: Could not load: %v", rec.ID, err)
			continue
		}
		loaded++
	}
	for _, world := range r.worlds {
		r.registry.ActivateWorld(world)
	}
	if r.coordinator.HasPendingWork() {
		r.coordinator.SaveDelayed()
	}

	span.SetAttributes(
		attribute.Int("shopkeepers.loaded", loaded),
		attribute.Int("shopkeepers.failed", len(records)-loaded),
	)
	r.logf("Loaded %d shopkeepers (%d failed).", loaded, len(records)-loaded)
	return loaded, nil
}

// Step runs one pulse: it ticks the current group, then processes delayed UI
// aborts and storage work.
func (r *Runtime) Step() ticking.PulseResult {
	res := r.ticker.Pulse()
	r.sessions.ProcessDelayed()
	r.coordinator.Process()
	return res
}

// Run loads the stored shopkeepers and pulses until ctx is done. The
// coordinator writer must be running. On return every shopkeeper has been
// unloaded and pending state flushed.
func (r *Runtime) Run(ctx context.Context) (err error) {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if shutdownErr := r.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	if _, err := r.Load(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ticker := time.NewTicker(r.pulseInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Step()
		}
	}
}

// Shutdown unloads every shopkeeper, flushes pending state and stops the
// coordinator writer.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.registry.UnloadAll()
	if err := r.coordinator.Close(ctx); err != nil {
		return fmt.Errorf("close storage coordinator: %w", err)
	}
	return nil
}

// Run opens the store, starts the health server and runs the shopkeeper
// runtime until ctx is done.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create shopkeeper storage dir: %w", err)
		}
	}

	store, err := shopsqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open shopkeeper sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close shopkeeper sqlite store: %v", closeErr)
		}
	}()

	rt, err := NewRuntime(store, cfg)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on shopkeepers port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Coordinator().Run(gctx)
	})
	g.Go(func() error {
		return rt.Run(gctx)
	})
	g.Go(func() error {
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve health: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	log.Printf("shopkeepers server listening at %v", listener.Addr())
	return g.Wait()
}
