// Package shopkeeper implements the shopkeeper entity: its lifecycle, dirty
// tracking towards storage, snapshots of its dynamic state, and the tick
// protocol driven by the ticking scheduler.
//
// Shopkeepers are confined to the tick goroutine. Only the immutable records
// they hand to storage cross goroutines.
package shopkeeper

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/louisbranch/shopkeepers/internal/platform/id"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ui"
)

// Shopkeeper is a persistent shop entity.
type Shopkeeper struct {
	env *Env
	typ *Type

	initialized bool
	id          int
	uniqueID    uuid.UUID
	group       int

	object shopobject.Object

	// nil for virtual shopkeepers.
	location  *location.BlockLocation
	yaw       float32
	chunk     *location.ChunkCoords
	lastChunk *location.ChunkCoords

	name      string
	owner     string
	snapshots []*Snapshot

	dirty    bool
	dirtyGen uint64
	valid    bool
	active   bool
	ticking  bool

	uiHandlers map[ui.Type]ui.Handler
	args       map[string]func() any
}

func newShopkeeper(env *Env, t *Type) *Shopkeeper {
	if env == nil {
		env = &Env{}
	}
	return &Shopkeeper{
		env:        env,
		typ:        t,
		group:      env.nextGroup(),
		uiHandlers: make(map[ui.Type]ui.Handler),
	}
}

// Create builds a new shopkeeper with the given id from creation data.
func Create(env *Env, shopID int, cd CreationData) (*Shopkeeper, error) {
	if cd.Type == nil {
		return nil, CreateError("missing shop type")
	}
	return cd.Type.Create(env, shopID, cd)
}

// Create builds a new shopkeeper of t.
func (t *Type) Create(env *Env, shopID int, cd CreationData) (*Shopkeeper, error) {
	if err := t.validateCreation(cd); err != nil {
		return nil, err
	}
	sk := newShopkeeper(env, t)
	if err := sk.initOnCreation(shopID, cd); err != nil {
		return nil, err
	}
	return sk, nil
}

func (s *Shopkeeper) initOnCreation(shopID int, cd CreationData) error {
	if shopID <= 0 {
		return CreateError("invalid shopkeeper id: %d", shopID)
	}
	s.id = shopID
	s.uniqueID = id.NewUniqueID()

	objType := cd.ObjectType
	if !objType.IsVirtual() {
		spawn := cd.Spawn
		if spawn == nil {
			return CreateError("missing spawn location")
		}
		if spawn.World == "" {
			return CreateError("spawn location has no world")
		}
		if !s.env.worldLoaded(spawn.World) {
			return ValidationError("world %s is not loaded", spawn.World)
		}
		block := spawn.Block()
		s.location = &block
		s.yaw = spawn.Yaw
	}
	if cd.AttachedFace != "" && !cd.AttachedFace.Valid() {
		return CreateError("invalid attached block face: %q", cd.AttachedFace)
	}
	s.updateChunk()

	if s.typ.player {
		s.owner = cd.Creator
	}
	s.object = objType.Create(s, &shopobject.CreationParams{AttachedFace: cd.AttachedFace})
	s.commonSetup()
	s.MarkDirty()
	return nil
}

// Load builds a shopkeeper from a stored record. The record's shop type must
// be registered in env.Types.
func Load(env *Env, record data.Container) (*Shopkeeper, error) {
	if env == nil || env.Types == nil {
		return nil, LoadError("no shop types registered", nil)
	}
	typeID, err := record.String(KeyType)
	if err != nil {
		return nil, LoadError("missing shop type", err)
	}
	t, ok := env.Types.Get(typeID)
	if !ok {
		return nil, LoadError(fmt.Sprintf("unknown shop type: %s", typeID), nil)
	}
	return t.Load(env, record)
}

// Load builds a shopkeeper of t from a stored record.
func (t *Type) Load(env *Env, record data.Container) (*Shopkeeper, error) {
	sk := newShopkeeper(env, t)
	if err := sk.initOnLoad(record); err != nil {
		return nil, err
	}
	return sk, nil
}

func (s *Shopkeeper) initOnLoad(record data.Container) error {
	shopID, err := record.Int(KeyID)
	if err != nil {
		return LoadError("missing id", err)
	}
	if shopID <= 0 {
		return LoadError(fmt.Sprintf("invalid id: %d", shopID), nil)
	}
	s.id = shopID

	rawUniqueID, err := record.String(KeyUniqueID)
	if err != nil {
		return LoadError(s.LogPrefix()+"missing unique id", err)
	}
	uniqueID, err := id.ParseUniqueID(rawUniqueID)
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid unique id", err)
	}
	s.uniqueID = uniqueID

	if err := s.checkShopType(record); err != nil {
		return LoadError(s.LogPrefix()+"invalid shop type", err)
	}

	objData, err := record.Container(KeyObject)
	if err != nil {
		return LoadError(s.LogPrefix()+"missing object data", err)
	}
	objTypeID, err := objData.String(shopobject.TypeKey)
	if err != nil {
		return LoadError(s.LogPrefix()+"missing object type", err)
	}
	objType, ok := s.objectType(objTypeID)
	if !ok {
		return LoadError(fmt.Sprintf("%sunknown object type: %s", s.LogPrefix(), objTypeID), nil)
	}

	placement, yaw, err := loadPlacement(record)
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid location", err)
	}
	if objType.IsVirtual() {
		if !placement.IsEmpty() || yaw != 0 {
			return LoadError(s.LogPrefix()+"virtual shopkeeper has a stored location", nil)
		}
	} else {
		if !placement.HasWorld() {
			return LoadError(s.LogPrefix()+"missing world name", nil)
		}
		s.location = &placement
		s.yaw = yaw
	}
	s.updateChunk()

	s.object = objType.Create(s, nil)
	if err := s.loadSnapshots(record); err != nil {
		return err
	}
	if err := s.loadDynamicState(record); err != nil {
		return err
	}
	s.commonSetup()
	return nil
}

func (s *Shopkeeper) objectType(id string) (*shopobject.Type, bool) {
	if s.env.Objects == nil {
		return nil, false
	}
	return s.env.Objects.Get(id)
}

func (s *Shopkeeper) commonSetup() {
	if s.UIHandler(ui.Trading) == nil {
		s.RegisterUIHandler(ui.TradingHandler{})
	}
	if s.UIHandler(ui.Editor) == nil {
		s.RegisterUIHandler(editorHandler{sk: s})
	}
	s.object.Setup()
	s.initialized = true
}

// ID returns the session-stable id.
func (s *Shopkeeper) ID() int { return s.id }

// UniqueID returns the globally unique id.
func (s *Shopkeeper) UniqueID() uuid.UUID { return s.uniqueID }

// Type returns the shop type.
func (s *Shopkeeper) Type() *Type { return s.typ }

// Object returns the capability object.
func (s *Shopkeeper) Object() shopobject.Object { return s.object }

// TickingGroup returns the group the ticking scheduler runs s in.
func (s *Shopkeeper) TickingGroup() int { return s.group }

// Owner returns the owning player of player shops.
func (s *Shopkeeper) Owner() string { return s.owner }

// IsValid reports whether s is registered.
func (s *Shopkeeper) IsValid() bool { return s.valid }

// IsActive reports whether s is in an active chunk.
func (s *Shopkeeper) IsActive() bool { return s.active }

// SetActive is called by the registry when s's chunk activates or deactivates.
func (s *Shopkeeper) SetActive(active bool) { s.active = active }

// InformAdded is called by the registry once s has been added.
func (s *Shopkeeper) InformAdded(cause lifecycle.AddedCause) error {
	if !s.initialized {
		return fmt.Errorf("%snot initialized", s.LogPrefix())
	}
	if s.valid {
		return fmt.Errorf("%salready added", s.LogPrefix())
	}
	s.valid = true
	// Forward changes made before registration.
	if s.dirty {
		s.env.storage().MarkDirty(s)
	}
	s.object.OnAdded(cause)
	return nil
}

// InformRemoval is called by the registry once s has been removed. Ticking
// has already been stopped and host-spawned objects despawned.
func (s *Shopkeeper) InformRemoval(cause lifecycle.RemovalCause) error {
	if !s.valid {
		return fmt.Errorf("%snot added", s.LogPrefix())
	}
	s.valid = false
	s.active = false
	s.object.Remove()
	if cause == lifecycle.RemovedDelete {
		s.onDeletion()
	}
	return nil
}

func (s *Shopkeeper) onDeletion() {
	s.object.Delete()
}

// Delete removes s permanently through the registry.
func (s *Shopkeeper) Delete() {
	if !s.valid {
		return
	}
	s.env.registry().Delete(s)
}

// Name returns the prepared name.
func (s *Shopkeeper) Name() string { return s.name }

// ValidateName checks a raw name against the configured pattern.
func (s *Shopkeeper) ValidateName(name string) error {
	pattern := s.env.Settings.NamePattern
	if pattern == nil {
		pattern = DefaultSettings().NamePattern
	}
	if !pattern.MatchString(name) {
		return ValidationError("invalid shopkeeper name: %q", name)
	}
	return nil
}

// SetName prepares and applies a name. An empty name clears it.
func (s *Shopkeeper) SetName(name string) {
	s.setName(name)
	s.MarkDirty()
}

func (s *Shopkeeper) setName(name string) {
	s.name = prepareName(name)
	s.object.SetName(s.name)
}

// IDString returns the id as text.
func (s *Shopkeeper) IDString() string { return fmt.Sprintf("%d", s.id) }

// LogPrefix prefixes log lines about s.
func (s *Shopkeeper) LogPrefix() string {
	return fmt.Sprintf("Shopkeeper %d: ", s.id)
}

// UniqueIDLogPrefix also names the unique id.
func (s *Shopkeeper) UniqueIDLogPrefix() string {
	return fmt.Sprintf("Shopkeeper %d (%s): ", s.id, s.uniqueID)
}

// LocatedLogPrefix also names the location.
func (s *Shopkeeper) LocatedLogPrefix() string {
	if s.IsVirtual() {
		return fmt.Sprintf("Shopkeeper %d [virtual]: ", s.id)
	}
	return fmt.Sprintf("Shopkeeper %d at %s: ", s.id, s.PositionString())
}

func (s *Shopkeeper) String() string {
	return fmt.Sprintf("Shopkeeper %d", s.id)
}
