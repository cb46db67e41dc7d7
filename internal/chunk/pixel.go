package chunk

import "sandfall/internal/material"

// Flags is the per-pixel flag set.
type Flags uint8

const (
	// Moved marks a pixel that already moved this tick.
	Moved Flags = 1 << iota
	// Reacted marks a pixel that took part in a reaction this tick.
	Reacted
	// Visited marks a pixel whose neighbour pairs were checked this tick.
	Visited
	// Burning persists until the pixel burns out.
	Burning
	// Loose marks a former structural pixel that now falls like powder.
	Loose
)

// TickFlags are cleared on every active chunk at the start of a tick.
const TickFlags = Moved | Reacted | Visited

// PersistentFlags survive ticks and serialization.
const PersistentFlags = Burning | Loose

// Pixel is a material id plus flags. Temperature lives in the coarse grid.
type Pixel struct {
	Mat   material.ID
	Flags Flags
}

// Has reports whether every flag in f is set.
func (p Pixel) Has(f Flags) bool { return p.Flags&f == f }

// Air reports whether the pixel is empty.
func (p Pixel) Air() bool { return p.Mat == material.Air }
