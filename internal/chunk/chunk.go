// Package chunk implements the fixed-size pixel tile that the world is made
// of: a 64x64 pixel array, an 8x8 coarse temperature grid and the dirty
// region used to skip settled areas.
package chunk

import (
	"fmt"

	"sandfall/internal/core"
	"sandfall/internal/material"
)

const (
	// Size is the chunk edge in pixels.
	Size = 64
	// Area is the number of pixels in a chunk.
	Area = Size * Size
	// CoarseSize is the edge of the pixel block covered by one temperature cell.
	CoarseSize = 8
	// Coarse is the number of temperature cells along a chunk edge.
	Coarse = Size / CoarseSize
	// Cells is the number of temperature cells in a chunk.
	Cells = Coarse * Coarse
	// Shift converts between pixel and chunk coordinates: Size == 1<<Shift.
	Shift = 6
	// Mask extracts the in-chunk part of a pixel coordinate.
	Mask = Size - 1

	coarseBits = 3
)

// Bounds is the local pixel rectangle of a chunk.
var Bounds = core.Rect{MaxX: Size, MaxY: Size}

// Key addresses a chunk in chunk coordinates.
type Key struct {
	X, Y int
}

// KeyOf returns the chunk containing world pixel (x, y). Arithmetic shifts
// floor toward negative infinity, so negative coordinates map correctly.
func KeyOf(x, y int) Key { return Key{X: x >> Shift, Y: y >> Shift} }

// Local converts world pixel coordinates to in-chunk coordinates.
func Local(x, y int) (int, int) { return x & Mask, y & Mask }

// Origin returns the world coordinates of the chunk's top-left pixel.
func (k Key) Origin() (int, int) { return k.X << Shift, k.Y << Shift }

// Neighbor returns the key offset by (dx, dy) chunks.
func (k Key) Neighbor(dx, dy int) Key { return Key{X: k.X + dx, Y: k.Y + dy} }

// Less orders keys row-major, top to bottom.
func (k Key) Less(o Key) bool {
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.X < o.X
}

func (k Key) String() string { return fmt.Sprintf("(%d,%d)", k.X, k.Y) }

// Chunk is one tile of the world. It is owned by the world grid and mutated
// only by the goroutine processing its colour class.
type Chunk struct {
	Key Key

	pix  [Area]Pixel
	temp [Cells]float32
	next [Cells]float32

	dirty core.Rect
	prev  core.Rect
	gen   uint32
}

// New returns an all-air chunk at the given ambient temperature, fully dirty.
func New(k Key, ambient float32) *Chunk {
	c := &Chunk{Key: k}
	for i := range c.temp {
		c.temp[i] = ambient
	}
	c.MarkAll()
	return c
}

// Index returns the pixel slice index of local (x, y).
func Index(x, y int) int { return y<<Shift | x }

// CoarseIndex returns the temperature cell index that owns local pixel (x, y).
func CoarseIndex(x, y int) int { return (y>>coarseBits)*Coarse + x>>coarseBits }

// Pixels exposes the pixel array for in-place updates by the engine.
func (c *Chunk) Pixels() []Pixel { return c.pix[:] }

// At returns the pixel at local (x, y).
func (c *Chunk) At(x, y int) Pixel { return c.pix[Index(x, y)] }

// Set stores p at local (x, y) without touching the dirty region.
func (c *Chunk) Set(x, y int, p Pixel) { c.pix[Index(x, y)] = p }

// Temps exposes the current coarse temperatures.
func (c *Chunk) Temps() []float32 { return c.temp[:] }

// NextTemps exposes the diffusion target buffer.
func (c *Chunk) NextTemps() []float32 { return c.next[:] }

// SwapTemps makes the diffusion buffer current.
func (c *Chunk) SwapTemps() { c.temp, c.next = c.next, c.temp }

// Temp returns the temperature of the cell owning local pixel (x, y).
func (c *Chunk) Temp(x, y int) float32 { return c.temp[CoarseIndex(x, y)] }

// SetTemp sets coarse cell (cx, cy).
func (c *Chunk) SetTemp(cx, cy int, t float32) { c.temp[cy*Coarse+cx] = t }

// AddTemp adds delta to the cell owning local pixel (x, y).
func (c *Chunk) AddTemp(x, y int, delta float32) { c.temp[CoarseIndex(x, y)] += delta }

// MarkDirty grows the current dirty region by r, clipped to the chunk.
func (c *Chunk) MarkDirty(r core.Rect) {
	r = r.Clip(Bounds)
	if r.Empty() {
		return
	}
	u := c.dirty.Union(r)
	if u != c.dirty {
		c.dirty = u
		c.gen++
	}
}

// MarkPoint marks a single local pixel dirty.
func (c *Chunk) MarkPoint(x, y int) {
	if c.dirty.Contains(x, y) {
		return
	}
	c.dirty = c.dirty.Add(x, y)
	c.gen++
}

// MarkAll marks the whole chunk dirty.
func (c *Chunk) MarkAll() { c.MarkDirty(Bounds) }

// Dirty returns the region changed so far this tick.
func (c *Chunk) Dirty() core.Rect { return c.dirty }

// Prev returns the region changed during the previous tick.
func (c *Chunk) Prev() core.Rect { return c.prev }

// Gen increases whenever the dirty region grows.
func (c *Chunk) Gen() uint32 { return c.gen }

// Work returns the region that may hold pixels able to act: last tick's and
// this tick's changes, expanded by the interaction reach and clipped.
func (c *Chunk) Work(reachX, reachY int) core.Rect {
	return c.prev.Union(c.dirty).Expand(reachX, reachY).Clip(Bounds)
}

// Idle reports whether nothing changed last tick or so far this tick.
func (c *Chunk) Idle() bool { return c.prev.Empty() && c.dirty.Empty() }

// BeginTick rotates the dirty regions and clears per-tick flags.
func (c *Chunk) BeginTick() {
	c.prev = c.dirty
	c.dirty = core.Rect{}
	c.ClearTickFlags()
}

// ClearTickFlags clears Moved, Reacted and Visited on every pixel.
func (c *Chunk) ClearTickFlags() {
	for i := range c.pix {
		c.pix[i].Flags &^= TickFlags
	}
}

// Fill sets every pixel to id with no flags and marks the chunk dirty.
func (c *Chunk) Fill(id material.ID) {
	for i := range c.pix {
		c.pix[i] = Pixel{Mat: id}
	}
	c.MarkAll()
}

// FillTemp sets every coarse cell to t.
func (c *Chunk) FillTemp(t float32) {
	for i := range c.temp {
		c.temp[i] = t
	}
}

// CountNonAir returns the number of non-air pixels.
func (c *Chunk) CountNonAir() int {
	n := 0
	for i := range c.pix {
		if c.pix[i].Mat != material.Air {
			n++
		}
	}
	return n
}

// Count returns the number of pixels of material id.
func (c *Chunk) Count(id material.ID) int {
	n := 0
	for i := range c.pix {
		if c.pix[i].Mat == id {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	return &cp
}
