package ticking

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

// Palette holds one color per ticking group, with evenly spaced hues.
type Palette []colorful.Color

// NewPalette builds a palette for groups groups.
func NewPalette(groups int) Palette {
	if groups <= 0 {
		groups = DefaultGroups
	}
	palette := make(Palette, groups)
	for i := range palette {
		palette[i] = colorful.Hsv(360*float64(i)/float64(groups), 1, 1)
	}
	return palette
}

// Color returns the color of group.
func (p Palette) Color(group int) colorful.Color {
	group %= len(p)
	if group < 0 {
		group += len(p)
	}
	return p[group]
}

// Hex returns the color of group as #rrggbb.
func (p Palette) Hex(group int) string {
	return p.Color(group).Hex()
}

// Visualizer shows tick activity in the color of the ticking group.
type Visualizer struct {
	palette Palette
	emit    func(anchor location.BlockLocation, color string)
}

// NewVisualizer builds a visualizer that hands every tick to emit.
func NewVisualizer(groups int, emit func(anchor location.BlockLocation, color string)) *Visualizer {
	return &Visualizer{palette: NewPalette(groups), emit: emit}
}

// VisualizeTick implements shopkeeper.TickVisualizer.
func (v *Visualizer) VisualizeTick(anchor location.BlockLocation, group int) {
	if v.emit == nil {
		return
	}
	v.emit(anchor, v.palette.Hex(group))
}
