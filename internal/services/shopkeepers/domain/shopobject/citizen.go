package shopobject

import (
	"github.com/google/uuid"

	"github.com/louisbranch/shopkeepers/internal/platform/id"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
)

// CitizenTypeID is the id of the built-in citizen object type.
const CitizenTypeID = "citizen"

const (
	citizenNPCKey  = "npcId"
	citizenSkinKey = "skin"
)

// Citizen is a placed NPC whose spawning is managed by the NPC host rather
// than by chunk activation. Its skin lives with the NPC host and is only
// part of the record when everything is saved.
type Citizen struct {
	Base
	npcID uuid.UUID
	skin  string
}

// NewCitizenType returns the built-in citizen object type.
func NewCitizenType() *Type {
	t, err := NewType(TypeConfig{
		ID:      CitizenTypeID,
		Aliases: []string{"npc"},
		New: func(t *Type, owner Owner, _ *CreationParams) Object {
			return &Citizen{Base: NewBase(t, owner)}
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// NPCID returns the id of the backing NPC.
func (c *Citizen) NPCID() uuid.UUID { return c.npcID }

// Skin returns the NPC skin.
func (c *Citizen) Skin() string { return c.skin }

// SetSkin changes the NPC skin.
func (c *Citizen) SetSkin(skin string) { c.skin = skin }

func (c *Citizen) Setup() {
	if c.npcID == uuid.Nil {
		c.npcID = id.NewUniqueID()
		c.owner.MarkDirty()
	}
	c.Spawn()
}

func (c *Citizen) Load(state data.Container) error {
	raw, err := state.StringOr(citizenNPCKey, "")
	if err != nil {
		return err
	}
	if raw != "" {
		npcID, err := id.ParseUniqueID(raw)
		if err != nil {
			return err
		}
		c.npcID = npcID
	}
	skin, err := state.StringOr(citizenSkinKey, c.skin)
	if err != nil {
		return err
	}
	c.skin = skin
	return nil
}

func (c *Citizen) Save(state data.Container, saveAll bool) {
	if c.npcID != uuid.Nil {
		state.Set(citizenNPCKey, c.npcID.String())
	}
	if saveAll && c.skin != "" {
		state.Set(citizenSkinKey, c.skin)
	}
}

func (c *Citizen) Move() {
	if c.IsSpawned() {
		c.Despawn()
		c.Spawn()
	}
}

// Delete destroys the backing NPC.
func (c *Citizen) Delete() {
	c.npcID = uuid.Nil
	c.skin = ""
}
