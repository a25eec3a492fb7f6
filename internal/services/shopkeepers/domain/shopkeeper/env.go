package shopkeeper

import (
	"regexp"
	"time"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ui"
)

// DefaultNamePattern is the default allowed shopkeeper name pattern.
const DefaultNamePattern = `^[A-Za-z0-9 &#]{3,32}$`

// DefaultSnapshotWarningLimit is the default snapshot count above which a
// warning is logged.
const DefaultSnapshotWarningLimit = 10

// Storage receives persistence signals.
type Storage interface {
	// MarkDirty records pending work for sk. Repeated calls coalesce.
	MarkDirty(sk *Shopkeeper)
	// Save requests an immediate flush.
	Save()
	// SaveDelayed requests a flush after the configured delay.
	SaveDelayed()
}

// Registry is the host that owns validity and spatial bucketing.
type Registry interface {
	Moved(sk *Shopkeeper)
	Delete(sk *Shopkeeper)
}

// UIHost tracks interactive sessions.
type UIHost interface {
	Request(uiType ui.Type, owner ui.Owner, player ui.Player) bool
	Sessions(ownerID int) []ui.Session
	AbortSessions(ownerID int) error
	AbortSessionsDelayed(ownerID int)
}

// GroupAssigner hands out ticking groups.
type GroupAssigner interface {
	NextGroup() int
}

// Worlds reports which worlds are loaded.
type Worlds interface {
	IsLoaded(world string) bool
}

// TickVisualizer shows that a shopkeeper of a group just ticked.
type TickVisualizer interface {
	VisualizeTick(anchor location.BlockLocation, group int)
}

// Settings holds the tunables shopkeepers read.
type Settings struct {
	SnapshotWarningLimit int
	NamePattern          *regexp.Regexp
	Debug                bool
	VisualizeTicks       bool
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		SnapshotWarningLimit: DefaultSnapshotWarningLimit,
		NamePattern:          regexp.MustCompile(DefaultNamePattern),
	}
}

// Env is the context shared by all shopkeepers of a host. Nil collaborators
// fall back to no-op implementations.
type Env struct {
	Types      *TypeRegistry
	Objects    *shopobject.Registry
	Groups     GroupAssigner
	Storage    Storage
	Registry   Registry
	UI         UIHost
	Worlds     Worlds
	Visualizer TickVisualizer
	Settings   Settings
	Logf       func(format string, args ...any)
	Now        func() time.Time
}

func (e *Env) storage() Storage {
	if e.Storage == nil {
		return noopStorage{}
	}
	return e.Storage
}

func (e *Env) registry() Registry {
	if e.Registry == nil {
		return noopRegistry{}
	}
	return e.Registry
}

func (e *Env) ui() UIHost {
	if e.UI == nil {
		return noopUI{}
	}
	return e.UI
}

func (e *Env) nextGroup() int {
	if e.Groups == nil {
		return 0
	}
	return e.Groups.NextGroup()
}

func (e *Env) worldLoaded(world string) bool {
	if e.Worlds == nil {
		return true
	}
	return e.Worlds.IsLoaded(world)
}

func (e *Env) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}

func (e *Env) debugf(format string, args ...any) {
	if e.Settings.Debug {
		e.logf(format, args...)
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

type noopStorage struct{}

func (noopStorage) MarkDirty(*Shopkeeper) {}
func (noopStorage) Save()                 {}
func (noopStorage) SaveDelayed()          {}

type noopRegistry struct{}

func (noopRegistry) Moved(*Shopkeeper)  {}
func (noopRegistry) Delete(*Shopkeeper) {}

type noopUI struct{}

func (noopUI) Request(ui.Type, ui.Owner, ui.Player) bool { return false }
func (noopUI) Sessions(int) []ui.Session                 { return nil }
func (noopUI) AbortSessions(int) error                   { return nil }
func (noopUI) AbortSessionsDelayed(int)                  {}

// StaticWorlds is a fixed set of loaded worlds.
type StaticWorlds map[string]bool

// NewStaticWorlds builds a world set from names.
func NewStaticWorlds(names ...string) StaticWorlds {
	worlds := make(StaticWorlds, len(names))
	for _, name := range names {
		if name != "" {
			worlds[name] = true
		}
	}
	return worlds
}

// IsLoaded implements Worlds.
func (w StaticWorlds) IsLoaded(world string) bool {
	return w[world]
}
