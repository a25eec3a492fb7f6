package shopkeeper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
)

const (
	// AdminTypeID is the built-in shop type run by the server.
	AdminTypeID = "admin"
	// TradeTypeID is the built-in player-owned trading shop type.
	TradeTypeID = "trade"
)

// CreationData holds the inputs of a new shopkeeper.
type CreationData struct {
	Type       *Type
	ObjectType *shopobject.Type
	// Spawn is ignored for virtual object types.
	Spawn        *location.Location
	AttachedFace location.Face
	// Creator names the player creating the shop. Player shop types require it
	// and record it as the owner.
	Creator string
}

// TypeConfig describes a shop type.
type TypeConfig struct {
	ID string
	// Player marks player-owned shop types.
	Player bool
	// Validate runs extra creation checks.
	Validate func(cd CreationData) error
	// OnTickStart and OnTick run type specific work within a tick, before the
	// object's own hooks.
	OnTickStart func(sk *Shopkeeper)
	OnTick      func(sk *Shopkeeper) error
}

// Type is a registered shop type.
type Type struct {
	id          string
	player      bool
	validate    func(cd CreationData) error
	onTickStart func(sk *Shopkeeper)
	onTick      func(sk *Shopkeeper) error
}

// NewType validates cfg and builds a shop type.
func NewType(cfg TypeConfig) (*Type, error) {
	id := strings.ToLower(strings.TrimSpace(cfg.ID))
	if id == "" {
		return nil, fmt.Errorf("shop type id is required")
	}
	return &Type{
		id:          id,
		player:      cfg.Player,
		validate:    cfg.Validate,
		onTickStart: cfg.OnTickStart,
		onTick:      cfg.OnTick,
	}, nil
}

func (t *Type) ID() string { return t.id }

// IsPlayerType reports whether shops of t are owned by a player.
func (t *Type) IsPlayerType() bool { return t.player }

func (t *Type) String() string { return t.id }

func (t *Type) validateCreation(cd CreationData) error {
	if cd.Type == nil {
		return CreateError("missing shop type")
	}
	if cd.ObjectType == nil {
		return CreateError("missing object type")
	}
	if cd.Type != t {
		return CreateError("creation data is for shop type %s, not %s", cd.Type.ID(), t.id)
	}
	if t.player && strings.TrimSpace(cd.Creator) == "" {
		return CreateError("shop type %s requires a creator", t.id)
	}
	if t.validate != nil {
		if err := t.validate(cd); err != nil {
			return CreateError("shop type %s: %v", t.id, err)
		}
	}
	return nil
}

// TypeRegistry resolves shop types by id.
type TypeRegistry struct {
	types map[string]*Type
}

// NewTypeRegistry builds an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*Type)}
}

// DefaultTypes returns a registry with the built-in admin and trade types.
func DefaultTypes() *TypeRegistry {
	r := NewTypeRegistry()
	for _, cfg := range []TypeConfig{{ID: AdminTypeID}, {ID: TradeTypeID, Player: true}} {
		t, err := NewType(cfg)
		if err != nil {
			panic(err)
		}
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds t.
func (r *TypeRegistry) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("shop type is required")
	}
	if _, ok := r.types[t.id]; ok {
		return fmt.Errorf("shop type %s is already registered", t.id)
	}
	r.types[t.id] = t
	return nil
}

// Get returns the type with id.
func (r *TypeRegistry) Get(id string) (*Type, bool) {
	t, ok := r.types[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}

// All returns the types sorted by id.
func (r *TypeRegistry) All() []*Type {
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
