// Package shopobject defines the capability objects that give a shopkeeper
// its presence: placed objects living in a world and virtual objects that
// only exist in data.
package shopobject

import (
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// TypeKey is the record key holding the object type id.
const TypeKey = "type"

// Owner is the shopkeeper side of an object.
type Owner interface {
	ID() int
	LogPrefix() string
	BlockLocation() (location.BlockLocation, bool)
	Yaw() float32
	MarkDirty()
}

// CreationParams carries the creation inputs relevant to objects.
type CreationParams struct {
	AttachedFace location.Face
}

// Object is the capability object owned by exactly one shopkeeper.
type Object interface {
	Type() *Type

	// Setup runs once after the owner finished loading or creation.
	Setup()
	// Load applies object state; it must not mutate state.
	Load(state data.Container) error
	// Save writes object state. With saveAll, state normally kept outside
	// the record is included too.
	Save(state data.Container, saveAll bool)
	SetName(name string)

	OnAdded(cause lifecycle.AddedCause)
	// Remove detaches the object from the world; it runs on unload and delete.
	Remove()
	// Delete releases object resources after a permanent removal.
	Delete()

	IsSpawned() bool
	Spawn() bool
	Despawn()
	// Move relocates a spawned object to the owner's current location.
	Move()
	SetAttachedFace(face location.Face) error

	OnStartTicking()
	OnStopTicking()
	OnTickStart()
	OnTick() error
	OnTickEnd()

	// TickVisualizationAnchor returns where tick activity is shown.
	TickVisualizationAnchor() (location.BlockLocation, bool)
	VisualizeLastTick()
}
