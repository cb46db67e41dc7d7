package sand

import (
	"image/color"
	"io"
	"log/slog"
	"time"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
	"sandfall/internal/world"
)

const (
	// wallWidth is the bedrock border around the viewer's viewport.
	wallWidth = 2
	// fieldMinTemp and fieldMaxTemp bound the normalised temperature field.
	fieldMinTemp = -50
	fieldMaxTemp = 1500
)

// Sim is a fixed viewport over an engine-owned world, enclosed by bedrock.
type Sim struct {
	cfg  Config
	cat  *material.Catalog
	rt   *material.ReactionTable
	rect core.Rect
	dt   time.Duration

	grid   *world.Grid
	engine *Engine

	view    world.RenderView
	cells   []uint8
	field   []float32
	palette []color.RGBA
}

// NewSim builds the viewer adapter. Tables come from cfg.MaterialsFile when
// set, otherwise the built-in defaults are used.
func NewSim(cfg Config) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cat, rt := material.Default()
	if cfg.MaterialsFile != "" {
		var err error
		if cat, rt, err = material.LoadFile(cfg.MaterialsFile); err != nil {
			return nil, err
		}
	}
	s := &Sim{
		cfg:   cfg,
		cat:   cat,
		rt:    rt,
		rect:  core.RectXYWH(0, 0, cfg.Width, cfg.Height),
		dt:    time.Second / 60,
		cells: make([]uint8, cfg.Width*cfg.Height),
		field: make([]float32, cfg.Width*cfg.Height),
	}
	s.palette = make([]color.RGBA, 256)
	for i := range s.palette {
		s.palette[i] = color.RGBA{R: 255, B: 255, A: 255}
	}
	for i := 0; i < cat.Len(); i++ {
		s.palette[i] = cat.Get(material.ID(i)).Color
	}
	if err := s.build(cfg.Seed); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sim) build(seed int64) error {
	cfg := s.cfg
	cfg.Seed = seed
	w, h := cfg.Width, cfg.Height
	bedrock := s.cat.MustID(material.NameBedrock)
	gen := world.GeneratorFunc(func(c *chunk.Chunk) {
		ox, oy := c.Key.Origin()
		for ly := 0; ly < chunk.Size; ly++ {
			for lx := 0; lx < chunk.Size; lx++ {
				x, y := ox+lx, oy+ly
				if x < wallWidth || x >= w-wallWidth || y >= h-wallWidth {
					c.Set(lx, ly, chunk.Pixel{Mat: bedrock})
				}
			}
		}
	})
	grid := world.New(world.Config{
		Catalog:   s.cat,
		Generator: gen,
		Ambient:   cfg.Ambient,
		Bounds:    core.Rect{MaxX: (w + chunk.Mask) >> chunk.Shift, MaxY: (h + chunk.Mask) >> chunk.Shift},
		Logger:    cfg.Logger,
	})
	if err := grid.ActivateRect(s.rect); err != nil {
		return err
	}
	engine, err := New(cfg, grid, s.cat, s.rt)
	if err != nil {
		return err
	}
	s.cfg, s.grid, s.engine = cfg, grid, engine
	s.refresh()
	return nil
}

// Name returns the simulation identifier.
func (s *Sim) Name() string { return "sand" }

// Size returns the viewport dimensions.
func (s *Sim) Size() core.Size { return core.Size{W: s.cfg.Width, H: s.cfg.Height} }

// Engine exposes the underlying engine.
func (s *Sim) Engine() *Engine { return s.engine }

// Cells returns the material id of every viewport pixel, falling bodies
// included.
func (s *Sim) Cells() []uint8 { return s.cells }

// Palette maps material ids to catalog colours.
func (s *Sim) Palette() []color.RGBA { return s.palette }

// Reset rebuilds the world with a new seed.
func (s *Sim) Reset(seed int64) {
	if err := s.build(seed); err != nil {
		s.cfg.Logger.Error("sand reset failed", "seed", seed, "err", err)
	}
}

// Step advances one tick.
func (s *Sim) Step() {
	s.engine.Advance(s.dt)
	s.refresh()
}

func (s *Sim) refresh() {
	s.engine.RenderInto(s.rect, &s.view)
	for i, id := range s.view.Mats {
		s.cells[i] = uint8(id)
	}
}

// Paint fills a disc of the given material, leaving the bedrock border
// intact.
func (s *Sim) Paint(x, y int, value uint8, radius int) {
	if int(value) >= s.cat.Len() {
		return
	}
	if radius < 0 {
		radius = 0
	}
	inner := core.Rect{MinX: wallWidth, MinY: 0, MaxX: s.cfg.Width - wallWidth, MaxY: s.cfg.Height - wallWidth}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius || !inner.Contains(x+dx, y+dy) {
				continue
			}
			s.engine.SetPixel(x+dx, y+dy, material.ID(value))
		}
	}
	s.refresh()
}

// Brushes lists material names by id.
func (s *Sim) Brushes() []string {
	names := make([]string, s.cat.Len())
	for i := range names {
		names[i] = s.cat.Get(material.ID(i)).Name
	}
	return names
}

// Field returns a per-pixel overlay in [0, 1]: "temperature" or "dirty".
func (s *Sim) Field(name string) []float32 {
	switch name {
	case "temperature":
		for i, t := range s.view.Temps {
			v := (t - fieldMinTemp) / (fieldMaxTemp - fieldMinTemp)
			s.field[i] = max(0, min(1, v))
		}
	case "dirty":
		for y := s.rect.MinY; y < s.rect.MaxY; y++ {
			for x := s.rect.MinX; x < s.rect.MaxX; x++ {
				var v float32
				if c := s.grid.ActiveChunk(chunk.KeyOf(x, y)); c != nil {
					lx, ly := chunk.Local(x, y)
					if c.Dirty().Union(c.Prev()).Contains(lx, ly) {
						v = 1
					}
				}
				s.field[s.view.At(x, y)] = v
			}
		}
	default:
		return nil
	}
	return s.field
}

func init() {
	core.Register("sand", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		s, err := NewSim(c)
		if err != nil {
			slog.Warn("sand: falling back to defaults", "err", err)
			def := DefaultConfig()
			def.Width, def.Height, def.Seed = c.Width, c.Height, c.Seed
			if s, err = NewSim(def); err != nil {
				panic(err)
			}
		}
		return s
	})
}
