// Package integrity finds structural pixels that lost their connection to an
// anchor after a removal and detaches them, either as loose particles or as a
// single falling body.
package integrity

import (
	"fmt"
	"math"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/debris"
	"sandfall/internal/material"
)

// State is the analyzer's position in Idle -> FloodFill -> {Stable, Disconnected}.
type State uint8

const (
	Idle State = iota
	FloodFill
	Stable
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FloodFill:
		return "flood-fill"
	case Stable:
		return "stable"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Outcome says what happened to a disconnected region.
type Outcome uint8

const (
	Particles Outcome = iota + 1
	Debris
)

// World is what the analyzer reads and mutates.
type World interface {
	debris.World
	SetFlags(x, y int, f chunk.Flags) bool
}

// DebrisCreator receives regions too large to dissolve.
type DebrisCreator interface {
	Create(w debris.World, positions []core.Point) (uint64, bool)
}

// Config bounds the search.
type Config struct {
	// Radius is the Chebyshev distance from the trigger beyond which a
	// region is assumed to be supported.
	Radius int
	// ParticleThreshold is the region size at and above which a region
	// becomes one falling body instead of loose particles.
	ParticleThreshold int
}

// DefaultConfig returns a 64 px radius and a 50 px particle threshold.
func DefaultConfig() Config {
	return Config{Radius: 64, ParticleThreshold: 50}
}

// Region is one disconnected component found by an analysis.
type Region struct {
	Pixels   []core.Point
	Outcome  Outcome
	DebrisID uint64
}

// Result reports one analysis.
type Result struct {
	State   State
	Regions []Region
	// Visited counts pixels the flood fill touched.
	Visited int
}

// Analyzer runs bounded breadth-first searches. Buffers are reused between
// calls; an Analyzer must not be used concurrently.
type Analyzer struct {
	cat   *material.Catalog
	cfg   Config
	sink  DebrisCreator
	state State

	side  int
	stamp []uint32
	gen   uint32
	queue []core.Point
	comp  []core.Point
}

// New returns an analyzer. Radius and threshold fall back to the defaults
// when not positive.
func New(cat *material.Catalog, cfg Config, sink DebrisCreator) *Analyzer {
	def := DefaultConfig()
	if cfg.Radius <= 0 {
		cfg.Radius = def.Radius
	}
	if cfg.ParticleThreshold <= 0 {
		cfg.ParticleThreshold = def.ParticleThreshold
	}
	side := 2*cfg.Radius + 1
	return &Analyzer{
		cat:   cat,
		cfg:   cfg,
		sink:  sink,
		side:  side,
		stamp: make([]uint32, side*side),
	}
}

// Config returns the analyzer's bounds.
func (a *Analyzer) Config() Config { return a.cfg }

// State returns the state of the most recent analysis.
func (a *Analyzer) State() State { return a.state }

// Triggers reports whether replacing from with to must be analysed.
func (a *Analyzer) Triggers(from, to material.ID) bool {
	return a.cat.Structural(from) && !a.cat.Structural(to)
}

var neighbours = [4]core.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

// Analyze checks every structural component adjacent to (x, y) and detaches
// the ones that cannot reach an anchor within the radius.
func (a *Analyzer) Analyze(w World, x, y int) Result {
	a.state = Idle
	var res Result
	if a.gen > math.MaxUint32-uint32(len(neighbours)) {
		clear(a.stamp)
		a.gen = 0
	}
	first := a.nextGen()
	gen := first
	for _, d := range neighbours {
		sx, sy := x+d.X, y+d.Y
		if !a.structural(w, sx, sy) {
			continue
		}
		if a.stamp[a.slot(x, y, sx, sy)] >= first {
			continue
		}
		if a.state == Idle {
			a.state = FloodFill
		} else {
			gen = a.nextGen()
		}
		stable := a.fill(w, x, y, sx, sy, gen, first)
		res.Visited += len(a.comp)
		if stable {
			continue
		}
		res.Regions = append(res.Regions, a.detach(w))
	}
	switch {
	case len(res.Regions) > 0:
		a.state = Disconnected
	case a.state == FloodFill:
		a.state = Stable
	}
	res.State = a.state
	return res
}

// fill floods the component containing (sx, sy). It reports true as soon as
// the component reaches an anchor, leaves the radius, touches a pixel whose
// chunk is not active or touches a component already found stable during this
// analysis. Unknown pixels are assumed to hold the structure up.
func (a *Analyzer) fill(w World, ox, oy, sx, sy int, gen, first uint32) bool {
	a.queue = append(a.queue[:0], core.Point{X: sx, Y: sy})
	a.comp = a.comp[:0]
	a.stamp[a.slot(ox, oy, sx, sy)] = gen
	r := a.cfg.Radius
	for head := 0; head < len(a.queue); head++ {
		p := a.queue[head]
		a.comp = append(a.comp, p)
		px, _ := w.Pixel(p.X, p.Y)
		if a.cat.Get(px.Mat).Anchor {
			return true
		}
		for _, d := range neighbours {
			nx, ny := p.X+d.X, p.Y+d.Y
			np, ok := w.Pixel(nx, ny)
			if !ok {
				return true
			}
			if !a.holds(np) {
				continue
			}
			if abs(nx-ox) > r || abs(ny-oy) > r {
				return true
			}
			s := a.slot(ox, oy, nx, ny)
			switch {
			case a.stamp[s] == gen:
				continue
			case a.stamp[s] >= first:
				return true
			}
			a.stamp[s] = gen
			a.queue = append(a.queue, core.Point{X: nx, Y: ny})
		}
	}
	return false
}

func (a *Analyzer) detach(w World) Region {
	pixels := append([]core.Point(nil), a.comp...)
	reg := Region{Pixels: pixels}
	if len(pixels) < a.cfg.ParticleThreshold || a.sink == nil {
		for _, p := range pixels {
			w.SetFlags(p.X, p.Y, chunk.Loose)
		}
		reg.Outcome = Particles
		return reg
	}
	id, ok := a.sink.Create(w, pixels)
	if !ok {
		reg.Outcome = Particles
		return reg
	}
	reg.Outcome = Debris
	reg.DebrisID = id
	return reg
}

func (a *Analyzer) structural(w World, x, y int) bool {
	px, ok := w.Pixel(x, y)
	return ok && a.holds(px)
}

func (a *Analyzer) holds(px chunk.Pixel) bool {
	return px.Flags&chunk.Loose == 0 && a.cat.Structural(px.Mat)
}

func (a *Analyzer) slot(ox, oy, x, y int) int {
	r := a.cfg.Radius
	return (y-oy+r)*a.side + (x - ox + r)
}

func (a *Analyzer) nextGen() uint32 {
	a.gen++
	return a.gen
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
