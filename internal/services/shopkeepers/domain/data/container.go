// Package data implements the hierarchical key-value record used to persist
// shopkeepers and their snapshots, plus the migration step applied to stored
// records before they are loaded.
package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMissing reports that a required key is absent.
var ErrMissing = errors.New("missing value")

// ErrInvalid reports that a value has the wrong shape.
var ErrInvalid = errors.New("invalid value")

// Container is a hierarchical key-value record. Values are JSON compatible:
// strings, booleans, numbers, lists, and nested containers.
type Container map[string]any

// New returns an empty container.
func New() Container {
	return Container{}
}

// Decode parses a JSON object into a container. Numbers are kept as
// json.Number so integers survive unchanged.
func Decode(raw []byte) (Container, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode record: %w: not an object", ErrInvalid)
	}
	return Container(out), nil
}

// Encode serializes the container as JSON with sorted keys.
func (c Container) Encode() ([]byte, error) {
	raw, err := json.Marshal(map[string]any(c))
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return raw, nil
}

// Has reports whether key is present.
func (c Container) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Set stores value under key. A nil value removes the key.
func (c Container) Set(key string, value any) {
	if value == nil {
		delete(c, key)
		return
	}
	c[key] = value
}

// Remove deletes key.
func (c Container) Remove(key string) {
	delete(c, key)
}

// Keys returns the sorted keys.
func (c Container) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// String returns the string stored under key.
func (c Container) String(key string) (string, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return "", fmt.Errorf("%q: %w", key, ErrMissing)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%q: %w: expected string, got %T", key, ErrInvalid, value)
	}
	return str, nil
}

// StringOr returns the string under key, or def when the key is absent.
func (c Container) StringOr(key, def string) (string, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.String(key)
}

// Int returns the integer stored under key.
func (c Container) Int(key string) (int, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("%q: %w", key, ErrMissing)
	}
	n, err := toInt(value)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", key, err)
	}
	return n, nil
}

// IntOr returns the integer under key, or def when the key is absent.
func (c Container) IntOr(key string, def int) (int, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.Int(key)
}

// Float returns the number stored under key.
func (c Container) Float(key string) (float64, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("%q: %w", key, ErrMissing)
	}
	f, err := toFloat(value)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", key, err)
	}
	return f, nil
}

// FloatOr returns the number under key, or def when the key is absent.
func (c Container) FloatOr(key string, def float64) (float64, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.Float(key)
}

// BoolOr returns the boolean under key, or def when the key is absent.
func (c Container) BoolOr(key string, def bool) (bool, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return def, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%q: %w: expected bool, got %T", key, ErrInvalid, value)
	}
	return b, nil
}

// Container returns the nested container stored under key.
func (c Container) Container(key string) (Container, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return nil, fmt.Errorf("%q: %w", key, ErrMissing)
	}
	nested, ok := asContainer(value)
	if !ok {
		return nil, fmt.Errorf("%q: %w: expected object, got %T", key, ErrInvalid, value)
	}
	return nested, nil
}

// OptionalContainer returns the nested container under key and whether it
// was present.
func (c Container) OptionalContainer(key string) (Container, bool, error) {
	if !c.Has(key) {
		return nil, false, nil
	}
	nested, err := c.Container(key)
	if err != nil {
		return nil, false, err
	}
	return nested, true, nil
}

// List returns the list stored under key; an absent key yields an empty list.
func (c Container) List(key string) ([]any, error) {
	value, ok := c[key]
	if !ok || value == nil {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		if containers, ok := value.([]Container); ok {
			out := make([]any, len(containers))
			for i, item := range containers {
				out[i] = item
			}
			return out, nil
		}
		return nil, fmt.Errorf("%q: %w: expected list, got %T", key, ErrInvalid, value)
	}
	return list, nil
}

// ContainerList returns the list under key with every element as a container.
func (c Container) ContainerList(key string) ([]Container, error) {
	list, err := c.List(key)
	if err != nil {
		return nil, err
	}
	out := make([]Container, 0, len(list))
	for i, item := range list {
		nested, ok := asContainer(item)
		if !ok {
			return nil, fmt.Errorf("%q[%d]: %w: expected object, got %T", key, i, ErrInvalid, item)
		}
		out = append(out, nested)
	}
	return out, nil
}

// Clone returns a deep copy. Mutating the copy never affects c.
func (c Container) Clone() Container {
	if c == nil {
		return nil
	}
	out := make(Container, len(c))
	for key, value := range c {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case Container:
		return typed.Clone()
	case map[string]any:
		return Container(typed).Clone()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []Container:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item.Clone()
		}
		return out
	default:
		return value
	}
}

func asContainer(value any) (Container, bool) {
	switch typed := value.(type) {
	case Container:
		return typed, true
	case map[string]any:
		return Container(typed), true
	default:
		return nil, false
	}
}

func toInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int32:
		return int(typed), nil
	case int64:
		return int(typed), nil
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalid, typed.String())
		}
		return int(n), nil
	case float64:
		if typed != math.Trunc(typed) || math.IsInf(typed, 0) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalid, typed)
		}
		return int(typed), nil
	case float32:
		return toInt(float64(typed))
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalid, value)
	}
}

func toFloat(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalid, typed.String())
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalid, value)
	}
}
