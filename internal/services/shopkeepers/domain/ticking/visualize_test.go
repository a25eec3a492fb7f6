package ticking

import (
	"testing"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

func TestPaletteSpacesHues(t *testing.T) {
	palette := NewPalette(4)
	if len(palette) != 4 {
		t.Fatalf("palette size = %d, want 4", len(palette))
	}
	if got := palette.Hex(0); got != "#ff0000" {
		t.Fatalf("group 0 = %s, want #ff0000", got)
	}
	if got := palette.Hex(2); got != "#00ffff" {
		t.Fatalf("group 2 = %s, want #00ffff", got)
	}
	if palette.Hex(5) != palette.Hex(1) || palette.Hex(-1) != palette.Hex(3) {
		t.Fatal("expected groups to wrap around the palette")
	}
}

func TestVisualizerEmitsGroupColor(t *testing.T) {
	var gotAnchor location.BlockLocation
	var gotColor string
	v := NewVisualizer(4, func(anchor location.BlockLocation, color string) {
		gotAnchor = anchor
		gotColor = color
	})
	anchor := location.BlockLocation{World: "w", X: 1, Y: 2, Z: 3}
	v.VisualizeTick(anchor, 0)
	if gotAnchor != anchor || gotColor != "#ff0000" {
		t.Fatalf("emitted %v %s", gotAnchor, gotColor)
	}
}
