package shopobject

import (
	"fmt"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// SignTypeID is the id of the built-in sign object type.
const SignTypeID = "sign"

const (
	signFacingKey  = "signFacing"
	signGlowingKey = "glowingText"
	// Ticks between checks that a spawned sign is still in place.
	signCheckPeriod = 20
)

// Sign is a placed sign attached to a block face. It is spawned with its
// chunk and respawned when it goes missing.
type Sign struct {
	Base
	facing   location.Face
	glowing  bool
	ticks    int
	respawns int
}

// NewSignType returns the built-in sign object type.
func NewSignType() *Type {
	t, err := NewType(TypeConfig{
		ID:            SignTypeID,
		Aliases:       []string{"wall_sign", "sign_post"},
		MustBeSpawned: true,
		New: func(t *Type, owner Owner, params *CreationParams) Object {
			s := &Sign{Base: NewBase(t, owner), facing: location.FaceSouth}
			if params != nil && params.AttachedFace != "" {
				s.facing = params.AttachedFace
			}
			return s
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Facing returns the face the sign is attached to.
func (s *Sign) Facing() location.Face { return s.facing }

// Glowing reports whether the sign text glows.
func (s *Sign) Glowing() bool { return s.glowing }

// SetGlowing toggles glowing text.
func (s *Sign) SetGlowing(glowing bool) {
	if s.glowing == glowing {
		return
	}
	s.glowing = glowing
	s.owner.MarkDirty()
}

// Respawns counts how often the sign was restored after going missing.
func (s *Sign) Respawns() int { return s.respawns }

func (s *Sign) Load(state data.Container) error {
	raw, err := state.StringOr(signFacingKey, string(location.FaceSouth))
	if err != nil {
		return err
	}
	facing, err := location.ParseFace(raw)
	if err != nil {
		return err
	}
	if facing == location.FaceDown {
		return fmt.Errorf("invalid sign facing %q", raw)
	}
	glowing, err := state.BoolOr(signGlowingKey, false)
	if err != nil {
		return err
	}
	s.facing = facing
	s.glowing = glowing
	return nil
}

func (s *Sign) Save(state data.Container, _ bool) {
	state.Set(signFacingKey, string(s.facing))
	state.Set(signGlowingKey, s.glowing)
}

func (s *Sign) SetAttachedFace(face location.Face) error {
	if !face.Valid() || face == location.FaceDown {
		return fmt.Errorf("signs cannot be attached to face %q", face)
	}
	if s.facing == face {
		return nil
	}
	s.facing = face
	s.owner.MarkDirty()
	s.respawn()
	return nil
}

func (s *Sign) Move() { s.respawn() }

// Despawn also resets the check schedule.
func (s *Sign) Despawn() {
	s.Base.Despawn()
	s.ticks = 0
}

func (s *Sign) OnTick() error {
	s.ticks++
	if s.ticks < signCheckPeriod {
		return nil
	}
	s.ticks = 0
	if s.IsSpawned() {
		return nil
	}
	if !s.Spawn() {
		return fmt.Errorf("%ssign could not be respawned", s.owner.LogPrefix())
	}
	s.respawns++
	return nil
}

func (s *Sign) respawn() {
	if !s.IsSpawned() {
		return
	}
	s.Despawn()
	s.Spawn()
}
