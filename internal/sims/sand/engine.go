// Package sand is the chunked falling-sand engine: movement and reactions on
// a 3x3 chunk colouring, the coarse temperature layer, structural analysis
// and falling debris, plus a viewer adapter.
package sand

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/debris"
	"sandfall/internal/integrity"
	"sandfall/internal/material"
	"sandfall/internal/world"
	rng "sandfall/pkg/core"
)

// Environment supplies optional reaction triggers. Both default to zero.
type Environment interface {
	Pressure(x, y int) float32
	Light(x, y int) float32
}

type phase uint64

const (
	phaseMove phase = iota
	phaseThermal
)

const classes = 9

// Stats counts engine activity.
type Stats struct {
	Ticks           uint64
	ChunksProcessed int
	ChunksSkipped   int
	Moves           int
	Reactions       int
	Burned          int
	Ignitions       int
	StateChanges    int
	ThermalPasses   int
	Triggers        int
	Particles       int
	DebrisCreated   int
	DebrisSettled   int
	DebrisDropped   int
}

func (s *Stats) add(o Stats) {
	s.Ticks += o.Ticks
	s.ChunksProcessed += o.ChunksProcessed
	s.ChunksSkipped += o.ChunksSkipped
	s.Moves += o.Moves
	s.Reactions += o.Reactions
	s.Burned += o.Burned
	s.Ignitions += o.Ignitions
	s.StateChanges += o.StateChanges
	s.ThermalPasses += o.ThermalPasses
	s.Triggers += o.Triggers
	s.Particles += o.Particles
	s.DebrisCreated += o.DebrisCreated
	s.DebrisSettled += o.DebrisSettled
	s.DebrisDropped += o.DebrisDropped
}

// prop is the hot-path view of a material.
type prop struct {
	state        material.State
	density      float32
	visc         int
	dir          int
	fluid        bool
	movable      bool
	structural   bool
	conductivity float32
	specificHeat float32
	emitTemp     float32
	emitRate     float32
}

// Engine advances a world one tick at a time. It is driven by a single
// goroutine; parallelism is internal to Advance.
type Engine struct {
	cfg    Config
	world  *world.Grid
	cat    *material.Catalog
	rt     *material.ReactionTable
	env    Environment
	logger *slog.Logger

	pool     *debris.Pool
	analyzer *integrity.Analyzer

	seed   uint64
	tick   uint64
	props  []prop
	reachX int
	reachY int

	jobs    map[chunk.Key]*job
	ordered []*job
	classes [classes][]*job

	last  Stats
	total Stats
}

// New builds an engine over w. The catalog must be the one w was built with.
func New(cfg Config, w *world.Grid, cat *material.Catalog, rt *material.ReactionTable) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if w == nil || cat == nil || rt == nil {
		return nil, fmt.Errorf("%w: world, catalog and reactions are required", ErrConfig)
	}
	if w.Catalog() != cat {
		return nil, fmt.Errorf("%w: world uses a different material catalog", ErrConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		cfg:    cfg,
		world:  w,
		cat:    cat,
		rt:     rt,
		logger: logger,
		seed:   uint64(cfg.Seed),
		jobs:   make(map[chunk.Key]*job),
	}
	e.reachX, e.reachY = w.Reach()
	e.pool = debris.NewPool(debris.Config{
		Gravity:       cfg.Gravity,
		Terminal:      cfg.TerminalVelocity,
		SettleEpsilon: cfg.SettleEpsilon,
	})
	e.analyzer = integrity.New(cat, integrity.Config{
		Radius:            cfg.IntegrityRadius,
		ParticleThreshold: cfg.ParticleThreshold,
	}, e.pool)
	e.buildProps()
	return e, nil
}

func (e *Engine) buildProps() {
	airDensity := e.cat.Get(material.Air).Density
	e.props = make([]prop, e.cat.Len())
	for i := range e.props {
		m := e.cat.Get(material.ID(i))
		p := prop{
			state:        m.State,
			density:      m.Density,
			visc:         m.Viscosity,
			fluid:        m.State.Fluid(),
			movable:      m.Movable(),
			structural:   m.Structural,
			conductivity: m.Conductivity,
			specificHeat: m.SpecificHeat,
			emitTemp:     m.EmitTemp,
			emitRate:     m.EmitRate,
		}
		switch m.State {
		case material.Powder, material.Liquid:
			p.dir = 1
		case material.Gas:
			switch {
			case m.Density < airDensity:
				p.dir = -1
			case m.Density > airDensity:
				p.dir = 1
			}
		}
		e.props[i] = p
	}
}

func (e *Engine) newStream() rng.Stream {
	if e.cfg.NewStream != nil {
		return e.cfg.NewStream()
	}
	return rng.NewRNG(0)
}

// SetEnvironment installs the pressure/light collaborator. Nil restores zeros.
func (e *Engine) SetEnvironment(env Environment) { e.env = env }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetConfig applies a new configuration between ticks. Seed and Ambient
// only affect ticks and chunks created afterwards.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Logger == nil {
		cfg.Logger = e.cfg.Logger
	} else {
		e.logger = cfg.Logger
	}
	e.cfg = cfg
	e.seed = uint64(cfg.Seed)
	for _, j := range e.jobs {
		j.rng = e.newStream()
	}
	e.pool.SetConfig(debris.Config{
		Gravity:       cfg.Gravity,
		Terminal:      cfg.TerminalVelocity,
		SettleEpsilon: cfg.SettleEpsilon,
	})
	if ic := e.analyzer.Config(); ic.Radius != cfg.IntegrityRadius || ic.ParticleThreshold != cfg.ParticleThreshold {
		e.analyzer = integrity.New(e.cat, integrity.Config{
			Radius:            cfg.IntegrityRadius,
			ParticleThreshold: cfg.ParticleThreshold,
		}, e.pool)
	}
	return nil
}

// World returns the grid the engine advances.
func (e *Engine) World() *world.Grid { return e.world }

// Catalog returns the material catalog.
func (e *Engine) Catalog() *material.Catalog { return e.cat }

// Tick returns the number of completed ticks.
func (e *Engine) Tick() uint64 { return e.tick }

// Stats returns cumulative counters.
func (e *Engine) Stats() Stats { return e.total }

// LastStats returns the counters of the most recent tick.
func (e *Engine) LastStats() Stats { return e.last }

// Advance runs one tick: the movement and reaction pass over every active
// chunk, the temperature layer on its cadence, then the falling debris.
func (e *Engine) Advance(dt time.Duration) Stats {
	var st Stats
	st.Ticks = 1
	e.prepare()

	e.runClasses(phaseMove, &st)

	if n := e.cfg.ThermalInterval; n > 0 && (e.tick+1)%uint64(n) == 0 {
		e.thermal(&st)
	}

	ds := e.pool.Step(e.world, dt)
	st.DebrisSettled += ds.Settled
	st.DebrisDropped += ds.Dropped
	if ds.Settled > 0 {
		e.logger.Debug("debris settled", "tick", e.tick, "count", ds.Settled, "dropped", ds.Dropped)
	}

	e.tick++
	e.last = st
	e.total.add(st)
	if n := e.cfg.ReportEvery; n > 0 && e.tick%uint64(n) == 0 {
		e.report()
	}
	return st
}

func (e *Engine) report() {
	active, loaded := e.world.Counts()
	e.logger.Info("tick report",
		"tick", e.tick,
		"active", active,
		"loaded", loaded,
		"debris", e.pool.Len(),
		"moves", e.total.Moves,
		"reactions", e.total.Reactions,
		"state_changes", e.total.StateChanges,
		"chunks_skipped", e.total.ChunksSkipped,
		"debris_created", e.total.DebrisCreated,
		"debris_dropped", e.total.DebrisDropped,
	)
}

// prepare builds one job per active chunk, links neighbours, assigns colour
// classes and rotates dirty regions.
func (e *Engine) prepare() {
	keys := e.world.ActiveKeys()
	for k, j := range e.jobs {
		if e.world.ActiveChunk(k) == nil {
			delete(e.jobs, j.key)
		}
	}
	e.ordered = e.ordered[:0]
	for i := range e.classes {
		e.classes[i] = e.classes[i][:0]
	}
	for _, k := range keys {
		j, ok := e.jobs[k]
		if !ok {
			j = &job{e: e, key: k, rng: e.newStream()}
			j.ox, j.oy = k.Origin()
			e.jobs[k] = j
		}
		j.c = e.world.ActiveChunk(k)
		j.triggers = j.triggers[:0]
		j.stats = Stats{}
		j.c.BeginTick()
		e.ordered = append(e.ordered, j)
		class := mod3(k.Y)*3 + mod3(k.X)
		e.classes[class] = append(e.classes[class], j)
	}
	for _, j := range e.ordered {
		for gy := 0; gy < 3; gy++ {
			for gx := 0; gx < 3; gx++ {
				n := e.jobs[j.key.Neighbor(gx-1, gy-1)]
				if n != nil && n.c == nil {
					n = nil
				}
				j.nbj[gy][gx] = n
				if n != nil {
					j.nb[gy][gx] = n.c
				} else {
					j.nb[gy][gx] = nil
				}
			}
		}
	}
}

// runClasses processes the colour classes in order. Chunks of one class are
// at least three chunks apart, so their neighbourhoods never overlap; Wait
// is the barrier between classes. Structural triggers queued by a class are
// analysed sequentially before the next class starts.
func (e *Engine) runClasses(ph phase, st *Stats) {
	for class := range e.classes {
		js := e.classes[class]
		if len(js) == 0 {
			continue
		}
		var g errgroup.Group
		g.SetLimit(e.cfg.Workers)
		for _, j := range js {
			g.Go(func() error {
				switch ph {
				case phaseMove:
					j.caPass()
				case phaseThermal:
					j.stateChanges()
				}
				return nil
			})
		}
		_ = g.Wait()
		// Triggers are only resolved here. Until then, the rest of the class
		// treats a structure that lost a pixel this pass as still attached.
		for _, j := range js {
			st.add(j.stats)
			j.stats = Stats{}
			for _, p := range j.triggers {
				e.analyze(p.X, p.Y, st)
			}
			j.triggers = j.triggers[:0]
		}
	}
}

// parallel runs fn over every job with no ordering between chunks. fn must
// only write to its own chunk.
func (e *Engine) parallel(fn func(j *job)) {
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for _, j := range e.ordered {
		g.Go(func() error {
			fn(j)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) analyze(x, y int, st *Stats) {
	st.Triggers++
	res := e.analyzer.Analyze(e.world, x, y)
	for _, r := range res.Regions {
		switch r.Outcome {
		case integrity.Particles:
			st.Particles += len(r.Pixels)
		case integrity.Debris:
			st.DebrisCreated++
			e.logger.Debug("debris created", "tick", e.tick, "id", r.DebrisID, "pixels", len(r.Pixels), "x", x, "y", y)
		}
	}
}

// GetPixel returns the material at a world pixel; ok is false outside
// active chunks.
func (e *Engine) GetPixel(x, y int) (material.ID, bool) { return e.world.Get(x, y) }

// SetPixel writes a material. Replacing a structural pixel with a
// non-structural one runs the structural analysis immediately.
func (e *Engine) SetPixel(x, y int, id material.ID) bool {
	if int(id) >= e.cat.Len() {
		return false
	}
	old, ok := e.world.Get(x, y)
	if !ok || !e.world.Set(x, y, id) {
		return false
	}
	if e.analyzer.Triggers(old, id) {
		var st Stats
		e.analyze(x, y, &st)
		e.total.add(st)
	}
	return true
}

// IsSolid is the collision query; see world.Grid.IsSolid.
func (e *Engine) IsSolid(x, y int) bool { return e.world.IsSolid(x, y) }

// CreateDebris lifts the non-air pixels of region into one falling body. The
// region itself is not analysed, but every structural pixel it removes is a
// trigger for whatever was resting on it.
func (e *Engine) CreateDebris(region []core.Point) (uint64, bool) {
	var lifted []core.Point
	for _, p := range region {
		if id, ok := e.world.Get(p.X, p.Y); ok && e.cat.Structural(id) {
			lifted = append(lifted, p)
		}
	}
	id, ok := e.pool.Create(e.world, region)
	if !ok {
		return 0, false
	}
	e.total.DebrisCreated++
	e.logger.Debug("debris created", "tick", e.tick, "id", id, "pixels", len(region))

	var st Stats
	for _, p := range lifted {
		e.analyze(p.X, p.Y, &st)
	}
	e.total.add(st)
	return id, true
}

// Debris returns a snapshot of the falling bodies. Cells are shared and must
// not be modified.
func (e *Engine) Debris() []debris.FallingChunk {
	out := make([]debris.FallingChunk, 0, e.pool.Len())
	e.pool.Each(func(f *debris.FallingChunk) { out = append(out, *f) })
	return out
}

// SetActiveRadius sets the simulated radius in chunks around each point of
// interest.
func (e *Engine) SetActiveRadius(tiles int) { e.world.SetActiveRadius(tiles) }

// SetPointsOfInterest replaces the positions that keep chunks active.
func (e *Engine) SetPointsOfInterest(pts []core.Point) { e.world.SetPointsOfInterest(pts) }

// UpdateTiers applies the residency policy. Call it between ticks.
func (e *Engine) UpdateTiers() error { return e.world.UpdateTiers() }

// RenderData copies the pixels of r with falling bodies drawn on top.
func (e *Engine) RenderData(r core.Rect) world.RenderView {
	var v world.RenderView
	e.RenderInto(r, &v)
	return v
}

// RenderInto is RenderData reusing v's buffers.
func (e *Engine) RenderInto(r core.Rect, v *world.RenderView) {
	e.world.RenderInto(r, v)
	e.pool.Each(func(f *debris.FallingChunk) {
		for _, c := range f.Cells {
			x, y := f.X+c.DX, f.Y+c.DY
			if !r.Contains(x, y) {
				continue
			}
			i := v.At(x, y)
			v.Mats[i] = c.Mat
			v.Present[i] = true
		}
	})
}

func mod3(v int) int {
	m := v % 3
	if m < 0 {
		m += 3
	}
	return m
}
