// Package registry is the host that owns registered shopkeepers: it decides
// validity, buckets shopkeepers by chunk, and activates them with their
// chunks.
package registry

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/louisbranch/shopkeepers/internal/platform/id"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopkeeper"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ticking"
)

// DeletionTracker is told about permanently deleted shopkeepers.
type DeletionTracker interface {
	OnDeleted(sk *shopkeeper.Shopkeeper)
}

// Config wires a Registry.
type Config struct {
	Env      *shopkeeper.Env
	Ticker   *ticking.Ticker
	Migrator *data.Migrator
	Deleted  DeletionTracker
	IDs      *id.Sequence
	Logf     func(format string, args ...any)
}

// Registry holds the registered shopkeepers. It is confined to the tick
// goroutine.
type Registry struct {
	env      *shopkeeper.Env
	ticker   *ticking.Ticker
	migrator *data.Migrator
	deleted  DeletionTracker
	ids      *id.Sequence
	logf     func(string, ...any)

	byID       map[int]*shopkeeper.Shopkeeper
	byUniqueID map[uuid.UUID]*shopkeeper.Shopkeeper
	byChunk    map[location.ChunkCoords]map[int]*shopkeeper.Shopkeeper
	active     map[location.ChunkCoords]bool
}

// New builds a registry and installs it as cfg.Env's registry.
func New(cfg Config) *Registry {
	env := cfg.Env
	if env == nil {
		env = &shopkeeper.Env{}
	}
	ticker := cfg.Ticker
	if ticker == nil {
		ticker = ticking.New(ticking.Config{Logf: cfg.Logf})
	}
	ids := cfg.IDs
	if ids == nil {
		ids = id.NewSequence()
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	r := &Registry{
		env:        env,
		ticker:     ticker,
		migrator:   cfg.Migrator,
		deleted:    cfg.Deleted,
		ids:        ids,
		logf:       logf,
		byID:       make(map[int]*shopkeeper.Shopkeeper),
		byUniqueID: make(map[uuid.UUID]*shopkeeper.Shopkeeper),
		byChunk:    make(map[location.ChunkCoords]map[int]*shopkeeper.Shopkeeper),
		active:     make(map[location.ChunkCoords]bool),
	}
	env.Registry = r
	return r
}

// Create allocates an id and creates and registers a new shopkeeper. The id
// is consumed even when creation fails.
func (r *Registry) Create(cd shopkeeper.CreationData) (*shopkeeper.Shopkeeper, error) {
	shopID := r.ids.Next()
	sk, err := shopkeeper.Create(r.env, shopID, cd)
	if err != nil {
		return nil, err
	}
	if err := r.add(sk, lifecycle.AddedCreated); err != nil {
		return nil, shopkeeper.CreateError("%s%v", sk.LogPrefix(), err)
	}
	return sk, nil
}

// Load migrates a stored record, then loads and registers the shopkeeper.
// Migrated shopkeepers are marked dirty so the upgraded record is written
// back.
func (r *Registry) Load(record data.Container) (*shopkeeper.Shopkeeper, error) {
	recordID, _ := record.IntOr(shopkeeper.KeyID, 0)
	logPrefix := fmt.Sprintf("Shopkeeper %d: ", recordID)
	migrated := false
	if r.migrator != nil {
		var err error
		migrated, err = r.migrator.Migrate(record, logPrefix)
		if err != nil {
			return nil, shopkeeper.LoadError(logPrefix+"data migration failed", err)
		}
	}
	sk, err := shopkeeper.Load(r.env, record)
	if err != nil {
		return nil, err
	}
	if _, ok := r.byID[sk.ID()]; ok {
		return nil, shopkeeper.LoadError(sk.LogPrefix()+"duplicate shopkeeper id", nil)
	}
	if _, ok := r.byUniqueID[sk.UniqueID()]; ok {
		return nil, shopkeeper.LoadError(sk.UniqueIDLogPrefix()+"duplicate unique id", nil)
	}
	r.ids.Observe(sk.ID())
	if migrated {
		sk.MarkDirty()
	}
	if err := r.add(sk, lifecycle.AddedLoaded); err != nil {
		return nil, shopkeeper.LoadError(sk.LogPrefix()+"registration failed", err)
	}
	return sk, nil
}

func (r *Registry) add(sk *shopkeeper.Shopkeeper, cause lifecycle.AddedCause) error {
	if _, ok := r.byID[sk.ID()]; ok {
		return fmt.Errorf("id %d is already registered", sk.ID())
	}
	r.byID[sk.ID()] = sk
	r.byUniqueID[sk.UniqueID()] = sk
	r.bucket(sk)
	if err := sk.InformAdded(cause); err != nil {
		r.unbucket(sk)
		delete(r.byID, sk.ID())
		delete(r.byUniqueID, sk.UniqueID())
		return err
	}
	if chunk, ok := sk.ChunkCoords(); ok && r.active[chunk] {
		r.activate(sk)
	}
	return nil
}

// Unload removes sk from memory, keeping its stored record.
func (r *Registry) Unload(sk *shopkeeper.Shopkeeper) {
	r.Remove(sk, lifecycle.RemovedUnload)
}

// Delete removes sk permanently.
func (r *Registry) Delete(sk *shopkeeper.Shopkeeper) {
	r.Remove(sk, lifecycle.RemovedDelete)
}

// Remove unregisters sk. Ticking is stopped and host-spawned objects are
// despawned before sk is informed.
func (r *Registry) Remove(sk *shopkeeper.Shopkeeper, cause lifecycle.RemovalCause) {
	if r.byID[sk.ID()] != sk {
		return
	}
	r.deactivate(sk)
	r.unbucket(sk)
	delete(r.byID, sk.ID())
	delete(r.byUniqueID, sk.UniqueID())
	if err := sk.InformRemoval(cause); err != nil {
		r.logf("%sRemoval failed: %v", sk.LogPrefix(), err)
	}
	if cause == lifecycle.RemovedDelete && r.deleted != nil {
		r.deleted.OnDeleted(sk)
	}
}

// UnloadAll unloads every shopkeeper.
func (r *Registry) UnloadAll() {
	for _, sk := range r.All() {
		r.Unload(sk)
	}
}

// Moved re-buckets sk after its location changed.
func (r *Registry) Moved(sk *shopkeeper.Shopkeeper) {
	if r.byID[sk.ID()] != sk {
		return
	}
	oldChunk, hadOld := sk.LastChunkCoords()
	newChunk, hasNew := sk.ChunkCoords()
	if hadOld == hasNew && oldChunk == newChunk {
		return
	}
	wasActive := hadOld && r.active[oldChunk]
	r.unbucket(sk)
	r.bucket(sk)
	isActive := hasNew && r.active[newChunk]
	switch {
	case wasActive && !isActive:
		r.deactivate(sk)
	case !wasActive && isActive:
		r.activate(sk)
	}
}

// ActivateChunk marks coords active and activates its shopkeepers.
func (r *Registry) ActivateChunk(coords location.ChunkCoords) {
	if r.active[coords] {
		return
	}
	r.active[coords] = true
	for _, sk := range r.InChunk(coords) {
		r.activate(sk)
	}
}

// DeactivateChunk marks coords inactive and deactivates its shopkeepers.
func (r *Registry) DeactivateChunk(coords location.ChunkCoords) {
	if !r.active[coords] {
		return
	}
	delete(r.active, coords)
	for _, sk := range r.InChunk(coords) {
		r.deactivate(sk)
	}
}

// ActivateWorld activates every chunk of world that holds shopkeepers.
func (r *Registry) ActivateWorld(world string) int {
	n := 0
	for coords := range r.byChunk {
		if coords.World == world && !r.active[coords] {
			r.ActivateChunk(coords)
			n++
		}
	}
	return n
}

// IsChunkActive reports whether coords is active.
func (r *Registry) IsChunkActive(coords location.ChunkCoords) bool {
	return r.active[coords]
}

func (r *Registry) activate(sk *shopkeeper.Shopkeeper) {
	if sk.IsActive() {
		return
	}
	sk.SetActive(true)
	if sk.Object().Type().MustBeSpawned() && !sk.Object().IsSpawned() {
		if !sk.Object().Spawn() {
			r.logf("%sCould not spawn object.", sk.LocatedLogPrefix())
		}
	}
	if !sk.IsVirtual() {
		r.ticker.Start(sk)
	}
}

func (r *Registry) deactivate(sk *shopkeeper.Shopkeeper) {
	r.ticker.Stop(sk)
	if !sk.IsActive() {
		return
	}
	sk.SetActive(false)
	if sk.Object().Type().MustBeSpawned() && sk.Object().IsSpawned() {
		sk.Object().Despawn()
	}
}

func (r *Registry) bucket(sk *shopkeeper.Shopkeeper) {
	coords, ok := sk.ChunkCoords()
	if !ok {
		sk.SetLastChunkCoords(nil)
		return
	}
	bucket := r.byChunk[coords]
	if bucket == nil {
		bucket = make(map[int]*shopkeeper.Shopkeeper)
		r.byChunk[coords] = bucket
	}
	bucket[sk.ID()] = sk
	sk.SetLastChunkCoords(&coords)
}

func (r *Registry) unbucket(sk *shopkeeper.Shopkeeper) {
	coords, ok := sk.LastChunkCoords()
	if !ok {
		return
	}
	if bucket := r.byChunk[coords]; bucket != nil {
		delete(bucket, sk.ID())
		if len(bucket) == 0 {
			delete(r.byChunk, coords)
		}
	}
	sk.SetLastChunkCoords(nil)
}

// Get returns the shopkeeper with id.
func (r *Registry) Get(shopID int) (*shopkeeper.Shopkeeper, bool) {
	sk, ok := r.byID[shopID]
	return sk, ok
}

// GetByUniqueID returns the shopkeeper with the unique id.
func (r *Registry) GetByUniqueID(uniqueID uuid.UUID) (*shopkeeper.Shopkeeper, bool) {
	sk, ok := r.byUniqueID[uniqueID]
	return sk, ok
}

// All returns every shopkeeper ordered by id.
func (r *Registry) All() []*shopkeeper.Shopkeeper {
	return sortedByID(r.byID)
}

// InChunk returns the shopkeepers in coords ordered by id.
func (r *Registry) InChunk(coords location.ChunkCoords) []*shopkeeper.Shopkeeper {
	return sortedByID(r.byChunk[coords])
}

// Virtual returns the virtual shopkeepers ordered by id.
func (r *Registry) Virtual() []*shopkeeper.Shopkeeper {
	var out []*shopkeeper.Shopkeeper
	for _, sk := range r.All() {
		if sk.IsVirtual() {
			out = append(out, sk)
		}
	}
	return out
}

// Len returns the number of shopkeepers.
func (r *Registry) Len() int { return len(r.byID) }

func sortedByID(m map[int]*shopkeeper.Shopkeeper) []*shopkeeper.Shopkeeper {
	out := make([]*shopkeeper.Shopkeeper, 0, len(m))
	for _, sk := range m {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
