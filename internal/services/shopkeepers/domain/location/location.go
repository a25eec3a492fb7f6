// Package location models block positions, chunk coordinates, and block faces.
package location

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = 16

// BlockLocation is a block position in a named world.
type BlockLocation struct {
	World string
	X     int
	Y     int
	Z     int
}

// HasWorld reports whether a world name is set.
func (l BlockLocation) HasWorld() bool {
	return l.World != ""
}

// IsEmpty reports whether the location carries neither world nor coordinates.
func (l BlockLocation) IsEmpty() bool {
	return l == BlockLocation{}
}

// ChunkCoords returns the chunk containing the block.
func (l BlockLocation) ChunkCoords() ChunkCoords {
	return ChunkCoords{World: l.World, X: FloorDiv(l.X, ChunkSize), Z: FloorDiv(l.Z, ChunkSize)}
}

func (l BlockLocation) String() string {
	return fmt.Sprintf("%s,%d,%d,%d", l.World, l.X, l.Y, l.Z)
}

// ChunkCoords identifies a chunk of a world.
type ChunkCoords struct {
	World string
	X     int
	Z     int
}

func (c ChunkCoords) String() string {
	return fmt.Sprintf("%s,%d,%d", c.World, c.X, c.Z)
}

// Location is a precise spawn position with a yaw.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
	Yaw   float32
}

// Block returns the block containing the location.
func (l Location) Block() BlockLocation {
	return BlockLocation{
		World: l.World,
		X:     int(math.Floor(l.X)),
		Y:     int(math.Floor(l.Y)),
		Z:     int(math.Floor(l.Z)),
	}
}

// FloorDiv divides rounding towards negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FormatYaw renders a yaw with two decimals.
func FormatYaw(yaw float32) string {
	return strconv.FormatFloat(float64(yaw), 'f', 2, 32)
}

// Face is a block face an object can be attached to.
type Face string

const (
	FaceUp    Face = "up"
	FaceDown  Face = "down"
	FaceNorth Face = "north"
	FaceSouth Face = "south"
	FaceEast  Face = "east"
	FaceWest  Face = "west"
)

// ParseFace parses a face name case-insensitively.
func ParseFace(raw string) (Face, error) {
	face := Face(strings.ToLower(strings.TrimSpace(raw)))
	if !face.Valid() {
		return "", fmt.Errorf("unknown block face %q", raw)
	}
	return face, nil
}

// Valid reports whether f names a known face.
func (f Face) Valid() bool {
	switch f {
	case FaceUp, FaceDown, FaceNorth, FaceSouth, FaceEast, FaceWest:
		return true
	default:
		return false
	}
}

// IsHorizontal reports whether f is one of the four wall faces.
func (f Face) IsHorizontal() bool {
	switch f {
	case FaceNorth, FaceSouth, FaceEast, FaceWest:
		return true
	default:
		return false
	}
}

// Yaw returns the yaw of an object facing away from a wall face.
func (f Face) Yaw() float32 {
	switch f {
	case FaceSouth:
		return 0
	case FaceWest:
		return 90
	case FaceNorth:
		return 180
	case FaceEast:
		return -90
	default:
		return 0
	}
}
