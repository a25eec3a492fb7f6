package shopobject

import "github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"

// VirtualTypeID is the id of the built-in virtual object type.
const VirtualTypeID = "virtual"

// Virtual is an object without any world presence.
type Virtual struct {
	Base
}

// NewVirtualType returns the built-in virtual object type.
func NewVirtualType() *Type {
	t, err := NewType(TypeConfig{
		ID:      VirtualTypeID,
		Virtual: true,
		New: func(t *Type, owner Owner, _ *CreationParams) Object {
			return &Virtual{Base: NewBase(t, owner)}
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

func (v *Virtual) Spawn() bool { return false }

func (v *Virtual) TickVisualizationAnchor() (location.BlockLocation, bool) {
	return location.BlockLocation{}, false
}
