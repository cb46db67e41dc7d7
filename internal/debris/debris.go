// Package debris advances detached pixel groups as translation-only falling
// bodies and writes them back into the world once they come to rest.
package debris

import (
	"math"
	"time"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
)

// World is the part of the world grid the pool needs.
type World interface {
	Pixel(x, y int) (chunk.Pixel, bool)
	Set(x, y int, id material.ID) bool
	IsSolid(x, y int) bool
}

// Config holds the kinematic constants. Units are pixels and seconds; +y is down.
type Config struct {
	Gravity  float64
	Terminal float64
	// SettleEpsilon is the speed below which a body that could not move settles.
	SettleEpsilon float64
}

// DefaultConfig returns the constants used by the engine.
func DefaultConfig() Config {
	return Config{Gravity: 240, Terminal: 480, SettleEpsilon: 1}
}

// Cell is one pixel of a falling body, relative to its base position.
type Cell struct {
	DX, DY int
	Mat    material.ID
}

// FallingChunk is a detached group of pixels.
type FallingChunk struct {
	ID uint64
	// X, Y is the integer base position; cells are offsets from it.
	X, Y  int
	VY    float64
	Cells []Cell
	// CX, CY is the centre of mass relative to the base position.
	CX, CY float64
}

// Center returns the centre of mass in world coordinates.
func (f *FallingChunk) Center() (float64, float64) {
	return float64(f.X) + f.CX, float64(f.Y) + f.CY
}

// Bounds returns the world rectangle covered by the body.
func (f *FallingChunk) Bounds() core.Rect {
	var r core.Rect
	for _, c := range f.Cells {
		r = r.Add(f.X+c.DX, f.Y+c.DY)
	}
	return r
}

// WorldCell is a pixel at an absolute position.
type WorldCell struct {
	X, Y int
	Mat  material.ID
}

// StepStats summarises one Step.
type StepStats struct {
	Moved   int
	Settled int
	Dropped int
}

// Pool owns every falling body. It is processed sequentially.
type Pool struct {
	cfg    Config
	items  []*FallingChunk
	nextID uint64
}

// NewPool returns an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.Terminal <= 0 {
		cfg.Terminal = math.Inf(1)
	}
	return &Pool{cfg: cfg, nextID: 1}
}

// Config returns the kinematic constants.
func (p *Pool) Config() Config { return p.cfg }

// SetConfig replaces the kinematic constants.
func (p *Pool) SetConfig(cfg Config) {
	if cfg.Terminal <= 0 {
		cfg.Terminal = math.Inf(1)
	}
	p.cfg = cfg
}

// Create lifts the non-air pixels at positions out of the world into a new
// body. Positions outside active chunks or holding air are ignored; when
// nothing remains, no body is created.
func (p *Pool) Create(w World, positions []core.Point) (uint64, bool) {
	cells := make([]WorldCell, 0, len(positions))
	for _, pt := range positions {
		px, ok := w.Pixel(pt.X, pt.Y)
		if !ok || px.Air() {
			continue
		}
		cells = append(cells, WorldCell{X: pt.X, Y: pt.Y, Mat: px.Mat})
		w.Set(pt.X, pt.Y, material.Air)
	}
	return p.Adopt(cells)
}

// Adopt creates a body from pixels already removed from the world.
func (p *Pool) Adopt(cells []WorldCell) (uint64, bool) {
	if len(cells) == 0 {
		return 0, false
	}
	var sx, sy float64
	for _, c := range cells {
		sx += float64(c.X)
		sy += float64(c.Y)
	}
	mx, my := sx/float64(len(cells)), sy/float64(len(cells))
	bx, by := int(math.Round(mx)), int(math.Round(my))

	f := &FallingChunk{
		ID:    p.nextID,
		X:     bx,
		Y:     by,
		Cells: make([]Cell, len(cells)),
		CX:    mx - float64(bx),
		CY:    my - float64(by),
	}
	for i, c := range cells {
		f.Cells[i] = Cell{DX: c.X - bx, DY: c.Y - by, Mat: c.Mat}
	}
	p.nextID++
	p.items = append(p.items, f)
	return f.ID, true
}

// Step advances every body by dt and settles the ones that came to rest.
// A non-positive dt is a no-op: bodies keep their position and velocity.
func (p *Pool) Step(w World, dt time.Duration) StepStats {
	var st StepStats
	if dt <= 0 {
		return st
	}
	secs := dt.Seconds()
	kept := p.items[:0]
	for _, f := range p.items {
		f.VY += p.cfg.Gravity * secs
		f.VY = math.Max(-p.cfg.Terminal, math.Min(p.cfg.Terminal, f.VY))

		dy := f.VY * secs
		steps := int(math.Ceil(math.Abs(dy)))
		dir := 1
		if dy < 0 {
			dir = -1
		}
		moved := 0
		for ; moved < steps; moved++ {
			if !p.canShift(w, f, dir) {
				f.VY = 0
				break
			}
			f.Y += dir
		}
		st.Moved += moved

		if moved == 0 && math.Abs(f.VY) < p.cfg.SettleEpsilon {
			st.Settled++
			st.Dropped += settle(w, f)
			continue
		}
		kept = append(kept, f)
	}
	for i := len(kept); i < len(p.items); i++ {
		p.items[i] = nil
	}
	p.items = kept
	return st
}

func (p *Pool) canShift(w World, f *FallingChunk, dir int) bool {
	for _, c := range f.Cells {
		if w.IsSolid(f.X+c.DX, f.Y+c.DY+dir) {
			return false
		}
	}
	return true
}

// settle writes the body back into air cells only and returns how many
// pixels had nowhere to go.
func settle(w World, f *FallingChunk) int {
	dropped := 0
	for _, c := range f.Cells {
		x, y := f.X+c.DX, f.Y+c.DY
		px, ok := w.Pixel(x, y)
		if !ok || !px.Air() {
			dropped++
			continue
		}
		w.Set(x, y, c.Mat)
	}
	return dropped
}

// Len returns the number of falling bodies.
func (p *Pool) Len() int { return len(p.items) }

// Each calls fn for every body in creation order. fn must not modify them.
func (p *Pool) Each(fn func(f *FallingChunk)) {
	for _, f := range p.items {
		fn(f)
	}
}

// Get returns a copy of the body with the given id.
func (p *Pool) Get(id uint64) (FallingChunk, bool) {
	for _, f := range p.items {
		if f.ID == id {
			cp := *f
			cp.Cells = append([]Cell(nil), f.Cells...)
			return cp, true
		}
	}
	return FallingChunk{}, false
}
