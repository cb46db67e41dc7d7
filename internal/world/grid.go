// Package world holds the sparse chunk map, the active/loaded/unloaded tier
// policy driven by points of interest, and the point query API used by the
// engine's collaborators.
package world

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
)

// ErrNotFound is returned by a Store that has no data for a key.
var ErrNotFound = errors.New("world: chunk not found")

// Tier is the residency class of a chunk.
type Tier uint8

const (
	Unloaded Tier = iota
	Loaded
	Active
)

func (t Tier) String() string {
	switch t {
	case Active:
		return "active"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Hooks are called when chunks enter or leave memory.
type Hooks struct {
	OnLoad  func(k chunk.Key, c *chunk.Chunk)
	OnEvict func(k chunk.Key)
}

// Config configures a Grid.
type Config struct {
	Catalog   *material.Catalog
	Store     Store
	Generator Generator
	// Ambient is the starting temperature of generated chunks.
	Ambient float32
	// ActiveRadius is the Chebyshev radius, in chunks, simulated around each
	// point of interest.
	ActiveRadius int
	// LoadMargin extends the radius for chunks kept in memory but not simulated.
	LoadMargin int
	// Bounds limits the world to a chunk-coordinate rectangle. Empty means
	// unbounded.
	Bounds core.Rect
	Hooks  Hooks
	Logger *slog.Logger
}

type entry struct {
	c      *chunk.Chunk
	tier   Tier
	pinned bool
}

// Grid is the world. It is not safe for concurrent use; the engine only
// reads it from worker goroutines while no tier changes are in progress.
type Grid struct {
	cat    *material.Catalog
	store  Store
	gen    Generator
	hooks  Hooks
	logger *slog.Logger

	ambient float32
	radius  int
	margin  int
	bounds  core.Rect

	reachX, reachY int

	chunks map[chunk.Key]*entry
	pois   []core.Point

	active      []chunk.Key
	activeStale bool
}

// New builds an empty grid. A nil store keeps evicted chunks in memory.
func New(cfg Config) *Grid {
	if cfg.Catalog == nil {
		cat, _ := material.Default()
		cfg.Catalog = cat
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Generator == nil {
		cfg.Generator = EmptyGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ActiveRadius < 0 {
		cfg.ActiveRadius = 0
	}
	if cfg.LoadMargin < 0 {
		cfg.LoadMargin = 0
	}
	return &Grid{
		cat:         cfg.Catalog,
		store:       cfg.Store,
		gen:         cfg.Generator,
		hooks:       cfg.Hooks,
		logger:      cfg.Logger,
		ambient:     cfg.Ambient,
		radius:      cfg.ActiveRadius,
		margin:      cfg.LoadMargin,
		bounds:      cfg.Bounds,
		reachX:      cfg.Catalog.MaxViscosity() + 1,
		reachY:      1,
		chunks:      make(map[chunk.Key]*entry),
		activeStale: true,
	}
}

// Catalog returns the material catalog the grid validates against.
func (g *Grid) Catalog() *material.Catalog { return g.cat }

// Ambient returns the temperature of freshly generated chunks.
func (g *Grid) Ambient() float32 { return g.ambient }

// Reach returns the default horizontal and vertical dirty-marking reach.
func (g *Grid) Reach() (int, int) { return g.reachX, g.reachY }

// InBounds reports whether a chunk key lies inside the world bounds.
func (g *Grid) InBounds(k chunk.Key) bool {
	return g.bounds.Empty() || g.bounds.Contains(k.X, k.Y)
}

// SetActiveRadius changes the simulated radius in chunks. It takes effect on
// the next UpdateTiers.
func (g *Grid) SetActiveRadius(tiles int) {
	if tiles < 0 {
		tiles = 0
	}
	g.radius = tiles
}

// ActiveRadius returns the simulated radius in chunks.
func (g *Grid) ActiveRadius() int { return g.radius }

// SetLoadMargin changes how many chunks beyond the active radius stay loaded.
func (g *Grid) SetLoadMargin(n int) {
	if n < 0 {
		n = 0
	}
	g.margin = n
}

// SetPointsOfInterest replaces the pixel positions that drive tiering.
func (g *Grid) SetPointsOfInterest(pts []core.Point) {
	g.pois = append(g.pois[:0], pts...)
}

// PointsOfInterest returns a copy of the current points of interest.
func (g *Grid) PointsOfInterest() []core.Point { return slices.Clone(g.pois) }

// Activate makes a chunk active and pins it so UpdateTiers keeps it active
// regardless of points of interest.
func (g *Grid) Activate(k chunk.Key) (*chunk.Chunk, error) {
	if !g.InBounds(k) {
		return nil, fmt.Errorf("world: chunk %v outside bounds", k)
	}
	e, err := g.ensure(k)
	if err != nil {
		return nil, err
	}
	e.pinned = true
	g.setTier(k, e, Active)
	return e.c, nil
}

// ActivateRect activates every chunk overlapping a pixel rectangle.
func (g *Grid) ActivateRect(r core.Rect) error {
	if r.Empty() {
		return nil
	}
	lo := chunk.KeyOf(r.MinX, r.MinY)
	hi := chunk.KeyOf(r.MaxX-1, r.MaxY-1)
	var errs []error
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			if _, err := g.Activate(chunk.Key{X: cx, Y: cy}); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Deactivate unpins a chunk and demotes it to Loaded.
func (g *Grid) Deactivate(k chunk.Key) {
	e, ok := g.chunks[k]
	if !ok {
		return
	}
	e.pinned = false
	g.setTier(k, e, Loaded)
}

// UpdateTiers recomputes residency from the points of interest: chunks within
// the active radius become Active, chunks within radius+margin stay Loaded and
// everything else is saved and evicted. Store failures are joined into the
// returned error; a chunk that fails to load stays absent and a chunk that
// fails to save stays in memory.
func (g *Grid) UpdateTiers() error {
	want := make(map[chunk.Key]Tier)
	for _, p := range g.pois {
		center := chunk.KeyOf(p.X, p.Y)
		outer := g.radius + g.margin
		for dy := -outer; dy <= outer; dy++ {
			for dx := -outer; dx <= outer; dx++ {
				k := center.Neighbor(dx, dy)
				if !g.InBounds(k) {
					continue
				}
				t := Loaded
				if max(abs(dx), abs(dy)) <= g.radius {
					t = Active
				}
				if t > want[k] {
					want[k] = t
				}
			}
		}
	}
	for k, e := range g.chunks {
		if e.pinned {
			want[k] = Active
		}
	}

	var errs []error
	for _, k := range sortedKeys(want) {
		t := want[k]
		e, ok := g.chunks[k]
		if !ok {
			if t != Active {
				continue
			}
			var err error
			if e, err = g.ensure(k); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		g.setTier(k, e, t)
	}

	var evict []chunk.Key
	for k := range g.chunks {
		if _, ok := want[k]; !ok {
			evict = append(evict, k)
		}
	}
	slices.SortFunc(evict, compareKeys)
	for _, k := range evict {
		if err := g.evict(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush saves every chunk held in memory.
func (g *Grid) Flush() error {
	var errs []error
	for _, k := range sortedKeys(g.chunks) {
		if err := g.store.Save(g.chunks[k].c); err != nil {
			errs = append(errs, fmt.Errorf("world: save %v: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes all chunks and closes the store.
func (g *Grid) Close() error {
	return errors.Join(g.Flush(), g.store.Close())
}

func (g *Grid) ensure(k chunk.Key) (*entry, error) {
	if e, ok := g.chunks[k]; ok {
		return e, nil
	}
	c, err := g.store.Load(k)
	switch {
	case err == nil:
		if verr := c.Validate(g.cat); verr != nil {
			g.logger.Error("discarding chunk with unknown materials", "chunk", k, "err", verr)
			return nil, fmt.Errorf("world: load %v: %w", k, verr)
		}
		c.Key = k
		c.MarkAll()
	case errors.Is(err, ErrNotFound):
		c = chunk.New(k, g.ambient)
		g.gen.Generate(c)
		c.MarkAll()
	default:
		g.logger.Error("chunk load failed", "chunk", k, "err", err)
		return nil, fmt.Errorf("world: load %v: %w", k, err)
	}
	e := &entry{c: c, tier: Loaded}
	g.chunks[k] = e
	g.activeStale = true
	if g.hooks.OnLoad != nil {
		g.hooks.OnLoad(k, c)
	}
	return e, nil
}

func (g *Grid) setTier(k chunk.Key, e *entry, t Tier) {
	if e.tier == t {
		return
	}
	g.logger.Debug("chunk tier", "chunk", k, "from", e.tier, "to", t)
	if t == Active {
		// Neighbours may have changed while the chunk slept.
		e.c.MarkAll()
	}
	was := e.tier
	e.tier = t
	g.activeStale = true
	if was == Active || t == Active {
		// Border pixels of active neighbours gained or lost a solid edge.
		ox, oy := k.Origin()
		g.markRect(core.Rect{
			MinX: ox - g.reachX, MinY: oy - g.reachY,
			MaxX: ox + chunk.Size + g.reachX, MaxY: oy + chunk.Size + g.reachY,
		})
	}
}

func (g *Grid) evict(k chunk.Key) error {
	e := g.chunks[k]
	if err := g.store.Save(e.c); err != nil {
		g.logger.Warn("chunk save failed, keeping it loaded", "chunk", k, "err", err)
		g.setTier(k, e, Loaded)
		return fmt.Errorf("world: save %v: %w", k, err)
	}
	delete(g.chunks, k)
	g.activeStale = true
	g.logger.Debug("chunk evicted", "chunk", k)
	if g.hooks.OnEvict != nil {
		g.hooks.OnEvict(k)
	}
	return nil
}

// ActiveKeys returns the active chunk keys in row-major order. The slice is
// shared and must not be modified.
func (g *Grid) ActiveKeys() []chunk.Key {
	if g.activeStale {
		g.active = g.active[:0]
		for k, e := range g.chunks {
			if e.tier == Active {
				g.active = append(g.active, k)
			}
		}
		slices.SortFunc(g.active, compareKeys)
		g.activeStale = false
	}
	return g.active
}

// Counts returns the number of active and loaded (not active) chunks.
func (g *Grid) Counts() (active, loaded int) {
	for _, e := range g.chunks {
		if e.tier == Active {
			active++
		} else {
			loaded++
		}
	}
	return active, loaded
}

// Tier reports the residency of a chunk.
func (g *Grid) Tier(k chunk.Key) Tier {
	if e, ok := g.chunks[k]; ok {
		return e.tier
	}
	return Unloaded
}

// Chunk returns a chunk held in memory regardless of tier, or nil.
func (g *Grid) Chunk(k chunk.Key) *chunk.Chunk {
	if e, ok := g.chunks[k]; ok {
		return e.c
	}
	return nil
}

// ActiveChunk returns the chunk if it is active, or nil.
func (g *Grid) ActiveChunk(k chunk.Key) *chunk.Chunk {
	if e, ok := g.chunks[k]; ok && e.tier == Active {
		return e.c
	}
	return nil
}

func (g *Grid) locate(x, y int) (*chunk.Chunk, int, int) {
	c := g.ActiveChunk(chunk.KeyOf(x, y))
	if c == nil {
		return nil, 0, 0
	}
	lx, ly := chunk.Local(x, y)
	return c, lx, ly
}

// Get returns the material at a world pixel; ok is false outside active chunks.
func (g *Grid) Get(x, y int) (material.ID, bool) {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return material.Air, false
	}
	return c.At(lx, ly).Mat, true
}

// Pixel returns the full pixel at a world position.
func (g *Grid) Pixel(x, y int) (chunk.Pixel, bool) {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return chunk.Pixel{}, false
	}
	return c.At(lx, ly), true
}

// Set replaces a pixel with a fresh one of material id, clearing its flags.
// It returns false when the chunk is not active.
func (g *Grid) Set(x, y int, id material.ID) bool {
	return g.SetPixel(x, y, chunk.Pixel{Mat: id})
}

// SetPixel stores p at a world position and marks the area dirty.
func (g *Grid) SetPixel(x, y int, p chunk.Pixel) bool {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return false
	}
	c.Set(lx, ly, p)
	g.MarkDirty(x, y, g.reachX, g.reachY)
	return true
}

// SetFlags sets flags on an active pixel.
func (g *Grid) SetFlags(x, y int, f chunk.Flags) bool {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return false
	}
	p := c.At(lx, ly)
	p.Flags |= f
	c.Set(lx, ly, p)
	g.MarkDirty(x, y, g.reachX, g.reachY)
	return true
}

// ClearFlags clears flags on an active pixel.
func (g *Grid) ClearFlags(x, y int, f chunk.Flags) bool {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return false
	}
	p := c.At(lx, ly)
	p.Flags &^= f
	c.Set(lx, ly, p)
	g.MarkDirty(x, y, g.reachX, g.reachY)
	return true
}

// IsSolid is the collision query. Missing, inactive and out-of-bounds cells
// are solid, as are solid, powder and liquid materials and loose pixels.
func (g *Grid) IsSolid(x, y int) bool {
	p, ok := g.Pixel(x, y)
	if !ok {
		return true
	}
	if p.Flags&chunk.Loose != 0 {
		return true
	}
	return g.cat.Get(p.Mat).State != material.Gas
}

// Temp returns the coarse temperature at a world pixel.
func (g *Grid) Temp(x, y int) (float32, bool) {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return 0, false
	}
	return c.Temp(lx, ly), true
}

// AddHeat adds a temperature delta to the coarse cell owning (x, y).
func (g *Grid) AddHeat(x, y int, delta float32) bool {
	c, lx, ly := g.locate(x, y)
	if c == nil {
		return false
	}
	c.AddTemp(lx, ly, delta)
	return true
}

// MarkDirty marks the box of the given reach around (x, y) dirty in every
// active chunk it overlaps.
func (g *Grid) MarkDirty(x, y, reachX, reachY int) {
	g.markRect(core.Rect{MinX: x - reachX, MinY: y - reachY, MaxX: x + reachX + 1, MaxY: y + reachY + 1})
}

func (g *Grid) markRect(box core.Rect) {
	lo := chunk.KeyOf(box.MinX, box.MinY)
	hi := chunk.KeyOf(box.MaxX-1, box.MaxY-1)
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			k := chunk.Key{X: cx, Y: cy}
			c := g.ActiveChunk(k)
			if c == nil {
				continue
			}
			ox, oy := k.Origin()
			c.MarkDirty(core.Rect{MinX: box.MinX - ox, MinY: box.MinY - oy, MaxX: box.MaxX - ox, MaxY: box.MaxY - oy})
		}
	}
}

// CountNonAir counts non-air pixels over all chunks in memory.
func (g *Grid) CountNonAir() int {
	n := 0
	for _, e := range g.chunks {
		n += e.c.CountNonAir()
	}
	return n
}

func compareKeys(a, b chunk.Key) int {
	if a.Less(b) {
		return -1
	}
	if b.Less(a) {
		return 1
	}
	return 0
}

func sortedKeys[V any](m map[chunk.Key]V) []chunk.Key {
	keys := make([]chunk.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
