package shopkeeper

import (
	"fmt"

	"github.com/louisbranch/shopkeepers/internal/platform/text"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
)

// Record keys.
const (
	KeyID        = "id"
	KeyUniqueID  = "uniqueId"
	KeyWorld     = "world"
	KeyX         = "x"
	KeyY         = "y"
	KeyZ         = "z"
	KeyYaw       = "yaw"
	KeyType      = "type"
	KeyName      = "name"
	KeyOwner     = "owner"
	KeyObject    = "object"
	KeySnapshots = "snapshots"
)

// IsDirty reports whether s has changes storage has not captured yet.
func (s *Shopkeeper) IsDirty() bool { return s.dirty }

// MarkDirty flags s for saving. Calls coalesce until storage captures s.
func (s *Shopkeeper) MarkDirty() {
	s.dirty = true
	s.dirtyGen++
	if s.valid {
		s.env.storage().MarkDirty(s)
	}
}

// PersistState captures the record storage writes for s. The returned token
// must be handed back to OnPersisted.
func (s *Shopkeeper) PersistState() (data.Container, uint64) {
	record := data.New()
	s.SaveTo(record, false)
	return record, s.dirtyGen
}

// OnPersisted is called by storage after capturing the state identified by
// token. s stays dirty when it changed after the capture.
func (s *Shopkeeper) OnPersisted(token uint64) {
	if token == s.dirtyGen {
		s.dirty = false
	}
}

// Save marks s dirty and requests an immediate flush.
func (s *Shopkeeper) Save() {
	s.MarkDirty()
	s.env.storage().Save()
}

// SaveDelayed marks s dirty and requests a delayed flush.
func (s *Shopkeeper) SaveDelayed() {
	s.MarkDirty()
	s.env.storage().SaveDelayed()
}

// SaveTo writes the full record of s. With saveAll, object state normally
// kept outside the record is included.
func (s *Shopkeeper) SaveTo(record data.Container, saveAll bool) {
	record.Set(KeyID, s.id)
	record.Set(KeyUniqueID, s.uniqueID.String())
	if s.location != nil {
		record.Set(KeyWorld, s.location.World)
		record.Set(KeyX, s.location.X)
		record.Set(KeyY, s.location.Y)
		record.Set(KeyZ, s.location.Z)
		record.Set(KeyYaw, float64(s.yaw))
	}
	s.saveDynamicState(record, saveAll)
	s.saveSnapshots(record)
}

func (s *Shopkeeper) saveDynamicState(state data.Container, saveAll bool) {
	state.Set(KeyType, s.typ.id)
	state.Set(KeyName, s.name)
	if s.owner != "" {
		state.Set(KeyOwner, s.owner)
	}
	objData := data.New()
	s.object.Save(objData, saveAll)
	objData.Set(shopobject.TypeKey, s.object.Type().ID())
	state.Set(KeyObject, objData)
}

func (s *Shopkeeper) checkShopType(state data.Container) error {
	typeID, err := state.String(KeyType)
	if err != nil {
		return err
	}
	if typeID != s.typ.id {
		return fmt.Errorf("shop type %s does not match %s", typeID, s.typ.id)
	}
	return nil
}

// loadDynamicState applies type, name, owner and object data. It never
// mutates state.
func (s *Shopkeeper) loadDynamicState(state data.Container) error {
	if err := s.checkShopType(state); err != nil {
		return LoadError(s.LogPrefix()+"invalid shop type", err)
	}
	name, err := state.StringOr(KeyName, "")
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid name", err)
	}
	owner, err := state.StringOr(KeyOwner, "")
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid owner", err)
	}
	objData, ok, err := state.OptionalContainer(KeyObject)
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid object data", err)
	}
	if ok {
		if err := s.loadObjectState(objData); err != nil {
			return err
		}
	}
	s.owner = owner
	s.setName(name)
	return nil
}

func (s *Shopkeeper) loadObjectState(objData data.Container) error {
	current := s.object.Type()
	objTypeID, err := objData.StringOr(shopobject.TypeKey, "")
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid object type", err)
	}
	stored, ok := s.objectType(objTypeID)
	if !ok || stored != current {
		s.env.debugf("%sIgnoring object data of different type (expected: %s, got: %s)",
			s.LogPrefix(), current.ID(), objTypeID)
		return nil
	}
	if err := s.object.Load(objData.Clone()); err != nil {
		return LoadError(s.LogPrefix()+"invalid object data", err)
	}
	return nil
}

func loadPlacement(record data.Container) (location.BlockLocation, float32, error) {
	var placement location.BlockLocation
	world, err := record.StringOr(KeyWorld, "")
	if err != nil {
		return placement, 0, err
	}
	placement.World = world
	if placement.X, err = record.IntOr(KeyX, 0); err != nil {
		return placement, 0, err
	}
	if placement.Y, err = record.IntOr(KeyY, 0); err != nil {
		return placement, 0, err
	}
	if placement.Z, err = record.IntOr(KeyZ, 0); err != nil {
		return placement, 0, err
	}
	yaw, err := record.FloatOr(KeyYaw, 0)
	if err != nil {
		return placement, 0, err
	}
	return placement, float32(yaw), nil
}

func prepareName(name string) string {
	return text.Colorize(name)
}
