package shopkeeper

import (
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// IsVirtual reports whether s has no world location.
func (s *Shopkeeper) IsVirtual() bool { return s.location == nil }

// WorldName returns the world name, or "" for virtual shopkeepers.
func (s *Shopkeeper) WorldName() string {
	if s.location == nil {
		return ""
	}
	return s.location.World
}

// BlockLocation returns the block location of placed shopkeepers.
func (s *Shopkeeper) BlockLocation() (location.BlockLocation, bool) {
	if s.location == nil {
		return location.BlockLocation{}, false
	}
	return *s.location, true
}

// Yaw returns the yaw of placed shopkeepers.
func (s *Shopkeeper) Yaw() float32 { return s.yaw }

// ChunkCoords returns the chunk of placed shopkeepers.
func (s *Shopkeeper) ChunkCoords() (location.ChunkCoords, bool) {
	if s.chunk == nil {
		return location.ChunkCoords{}, false
	}
	return *s.chunk, true
}

// LastChunkCoords returns the chunk the registry currently stores s under.
func (s *Shopkeeper) LastChunkCoords() (location.ChunkCoords, bool) {
	if s.lastChunk == nil {
		return location.ChunkCoords{}, false
	}
	return *s.lastChunk, true
}

// SetLastChunkCoords is called by the registry after bucketing s.
func (s *Shopkeeper) SetLastChunkCoords(coords *location.ChunkCoords) {
	if coords == nil {
		s.lastChunk = nil
		return
	}
	c := *coords
	s.lastChunk = &c
}

// PositionString renders the location, or "[virtual]".
func (s *Shopkeeper) PositionString() string {
	if s.location == nil {
		return "[virtual]"
	}
	return s.location.String()
}

// SetLocation moves s to loc and, when face is set, attaches its object to
// that face. The object itself is not moved; see Teleport.
func (s *Shopkeeper) SetLocation(loc location.Location, face location.Face) error {
	if s.location == nil {
		return ValidationError("%scannot set the location of a virtual shopkeeper", s.LogPrefix())
	}
	if loc.World == "" {
		return ValidationError("%slocation has no world", s.LogPrefix())
	}
	if !s.env.worldLoaded(loc.World) {
		return ValidationError("world %s is not loaded", loc.World)
	}
	if face != "" && !face.Valid() {
		return ValidationError("invalid block face: %q", face)
	}
	s.setBlockLocation(loc.Block())
	s.setYaw(loc.Yaw)
	if face != "" {
		if err := s.object.SetAttachedFace(face); err != nil {
			return ValidationError("%s%v", s.LogPrefix(), err)
		}
	}
	return nil
}

// SetYaw changes the yaw of a placed shopkeeper.
func (s *Shopkeeper) SetYaw(yaw float32) error {
	if s.location == nil {
		return ValidationError("%scannot set the yaw of a virtual shopkeeper", s.LogPrefix())
	}
	s.setYaw(yaw)
	return nil
}

// Teleport sets the location and moves the object when it is spawned or
// manages its own spawning.
func (s *Shopkeeper) Teleport(loc location.Location, face location.Face) error {
	wasSpawned := s.object.IsSpawned()
	if err := s.SetLocation(loc, face); err != nil {
		return err
	}
	if wasSpawned || !s.object.Type().MustBeSpawned() {
		s.object.Move()
	}
	return nil
}

func (s *Shopkeeper) setBlockLocation(block location.BlockLocation) {
	s.location = &block
	s.updateChunk()
	s.MarkDirty()
	if s.valid {
		s.env.registry().Moved(s)
	}
}

func (s *Shopkeeper) setYaw(yaw float32) {
	if s.yaw == yaw {
		return
	}
	s.yaw = yaw
	s.MarkDirty()
}

func (s *Shopkeeper) updateChunk() {
	if s.location == nil {
		s.chunk = nil
		return
	}
	c := s.location.ChunkCoords()
	s.chunk = &c
}
