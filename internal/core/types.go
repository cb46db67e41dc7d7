package core

import "image/color"

// Size describes the dimensions of a simulation viewport.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract a viewer needs from a simulation.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// PaletteProvider is implemented by sims whose cell values index a color table.
type PaletteProvider interface {
	Palette() []color.RGBA
}

// Painter is implemented by sims that accept brush strokes from a viewer.
// Coordinates are viewport cells; value is sim-specific (a material id for sand).
type Painter interface {
	Paint(x, y int, value uint8, radius int)
}

// BrushProvider names the values a Painter accepts; index i names value i.
type BrushProvider interface {
	Brushes() []string
}

// FieldProvider exposes an optional per-cell scalar overlay, normalised to
// [0, 1], such as temperature.
type FieldProvider interface {
	Field(name string) []float32
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}
