package shopkeeper

import (
	"sort"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// MessageArguments resolves message placeholders for a shopkeeper. Values are
// computed on lookup.
type MessageArguments struct {
	prefix    string
	suppliers map[string]func() any
}

// MessageArguments returns the placeholders of s, each key prefixed with
// prefix.
func (s *Shopkeeper) MessageArguments(prefix string) MessageArguments {
	if s.args == nil {
		s.args = s.messageArgumentSuppliers()
	}
	return MessageArguments{prefix: prefix, suppliers: s.args}
}

func (s *Shopkeeper) messageArgumentSuppliers() map[string]func() any {
	coord := func(get func(location.BlockLocation) int) func() any {
		return func() any {
			if s.location == nil {
				return ""
			}
			return get(*s.location)
		}
	}
	return map[string]func() any{
		"id":    func() any { return s.id },
		"uuid":  func() any { return s.uniqueID.String() },
		"name":  func() any { return s.name },
		"world": func() any { return s.WorldName() },
		"x":     coord(func(l location.BlockLocation) int { return l.X }),
		"y":     coord(func(l location.BlockLocation) int { return l.Y }),
		"z":     coord(func(l location.BlockLocation) int { return l.Z }),
		"yaw": func() any {
			if s.location == nil {
				return ""
			}
			return location.FormatYaw(s.yaw)
		},
		"location":    func() any { return s.PositionString() },
		"type":        func() any { return s.typ.id },
		"object_type": func() any { return s.object.Type().ID() },
	}
}

// Get resolves a prefixed key.
func (a MessageArguments) Get(key string) (any, bool) {
	if len(key) < len(a.prefix) || key[:len(a.prefix)] != a.prefix {
		return nil, false
	}
	supplier, ok := a.suppliers[key[len(a.prefix):]]
	if !ok {
		return nil, false
	}
	return supplier(), true
}

// Keys returns the prefixed keys in sorted order.
func (a MessageArguments) Keys() []string {
	keys := make([]string, 0, len(a.suppliers))
	for key := range a.suppliers {
		keys = append(keys, a.prefix+key)
	}
	sort.Strings(keys)
	return keys
}

// Resolve computes every argument.
func (a MessageArguments) Resolve() map[string]any {
	out := make(map[string]any, len(a.suppliers))
	for key, supplier := range a.suppliers {
		out[a.prefix+key] = supplier()
	}
	return out
}
