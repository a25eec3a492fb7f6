package shopobject

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds an object of t for owner. params is nil when the owner is
// being loaded rather than created.
type Factory func(t *Type, owner Owner, params *CreationParams) Object

// TypeConfig describes an object type.
type TypeConfig struct {
	ID      string
	Aliases []string
	// Virtual types never have a world location.
	Virtual bool
	// MustBeSpawned types are spawned and despawned by the host with their
	// chunk; other placed types manage spawning themselves.
	MustBeSpawned bool
	New           Factory
}

// Type is a registered object kind.
type Type struct {
	id            string
	aliases       []string
	virtual       bool
	mustBeSpawned bool
	factory       Factory
}

// NewType validates cfg and builds a type.
func NewType(cfg TypeConfig) (*Type, error) {
	id := normalizeID(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("object type id is required")
	}
	if cfg.New == nil {
		return nil, fmt.Errorf("object type %s: factory is required", id)
	}
	if cfg.Virtual && cfg.MustBeSpawned {
		return nil, fmt.Errorf("object type %s: virtual types cannot be spawned", id)
	}
	aliases := make([]string, 0, len(cfg.Aliases))
	for _, alias := range cfg.Aliases {
		if alias = normalizeID(alias); alias != "" && alias != id {
			aliases = append(aliases, alias)
		}
	}
	return &Type{
		id:            id,
		aliases:       aliases,
		virtual:       cfg.Virtual,
		mustBeSpawned: cfg.MustBeSpawned,
		factory:       cfg.New,
	}, nil
}

func (t *Type) ID() string { return t.id }

func (t *Type) Aliases() []string { return append([]string(nil), t.aliases...) }

func (t *Type) IsVirtual() bool { return t.virtual }

func (t *Type) MustBeSpawned() bool { return t.mustBeSpawned }

// Create builds a new object for owner.
func (t *Type) Create(owner Owner, params *CreationParams) Object {
	return t.factory(t, owner, params)
}

func (t *Type) String() string { return t.id }

// Registry resolves object types by id or alias.
type Registry struct {
	types   map[string]*Type
	aliases map[string]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type), aliases: make(map[string]string)}
}

// Register adds t. Ids and aliases must not collide.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("object type is required")
	}
	if r.taken(t.id) {
		return fmt.Errorf("object type %s is already registered", t.id)
	}
	for _, alias := range t.aliases {
		if r.taken(alias) {
			return fmt.Errorf("object type alias %s is already registered", alias)
		}
	}
	r.types[t.id] = t
	for _, alias := range t.aliases {
		r.aliases[alias] = t.id
	}
	return nil
}

func (r *Registry) taken(id string) bool {
	if _, ok := r.types[id]; ok {
		return true
	}
	_, ok := r.aliases[id]
	return ok
}

// Get returns the type with the given id or alias.
func (r *Registry) Get(id string) (*Type, bool) {
	id = normalizeID(id)
	if t, ok := r.types[id]; ok {
		return t, true
	}
	if canonical, ok := r.aliases[id]; ok {
		return r.types[canonical], true
	}
	return nil, false
}

// Canonical maps an alias to its type id. It reports false when id is not an
// alias.
func (r *Registry) Canonical(id string) (string, bool) {
	canonical, ok := r.aliases[normalizeID(id)]
	return canonical, ok
}

// All returns the registered types sorted by id.
func (r *Registry) All() []*Type {
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
