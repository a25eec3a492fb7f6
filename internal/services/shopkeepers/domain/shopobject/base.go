package shopobject

import (
	"fmt"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// Base implements the no-op parts of Object. Concrete objects embed it and
// override what they need.
type Base struct {
	typ     *Type
	owner   Owner
	name    string
	spawned bool
	ticking bool
}

// NewBase binds a base to its type and owner.
func NewBase(t *Type, owner Owner) Base {
	return Base{typ: t, owner: owner}
}

func (b *Base) Type() *Type { return b.typ }

func (b *Base) Owner() Owner { return b.owner }

func (b *Base) Name() string { return b.name }

func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Setup() {}

func (b *Base) Load(data.Container) error { return nil }

func (b *Base) Save(data.Container, bool) {}

func (b *Base) OnAdded(lifecycle.AddedCause) {}

func (b *Base) Remove() { b.spawned = false }

func (b *Base) Delete() {}

func (b *Base) IsSpawned() bool { return b.spawned }

func (b *Base) Spawn() bool {
	if _, ok := b.owner.BlockLocation(); !ok {
		return false
	}
	b.spawned = true
	return true
}

func (b *Base) Despawn() { b.spawned = false }

func (b *Base) Move() {}

func (b *Base) SetAttachedFace(face location.Face) error {
	return fmt.Errorf("%s objects cannot be attached to a block face", b.typ.ID())
}

func (b *Base) IsTicking() bool { return b.ticking }

func (b *Base) OnStartTicking() { b.ticking = true }

func (b *Base) OnStopTicking() { b.ticking = false }

func (b *Base) OnTickStart() {}

func (b *Base) OnTick() error { return nil }

func (b *Base) OnTickEnd() {}

// TickVisualizationAnchor defaults to one block above the owner.
func (b *Base) TickVisualizationAnchor() (location.BlockLocation, bool) {
	loc, ok := b.owner.BlockLocation()
	if !ok {
		return location.BlockLocation{}, false
	}
	loc.Y++
	return loc, true
}

func (b *Base) VisualizeLastTick() {}
