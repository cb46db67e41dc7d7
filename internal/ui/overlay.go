//go:build ebiten

package ui

import (
	"image/color"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// fieldLayer is one toggleable scalar overlay pulled from a core.FieldProvider.
type fieldLayer struct {
	name     string
	key      ebiten.Key
	tint     color.RGBA
	maxAlpha uint8
	on       bool
	painter  *render.GridPainter
}

// Overlay draws optional debugging visuals on top of the base simulation.
type Overlay struct {
	sim   core.Sim
	scale int

	layers    []*fieldLayer
	showGrid  bool
	pixel     *ebiten.Image
	gridColor color.RGBA
}

// NewOverlay constructs a new overlay instance. H toggles the heat field,
// D the dirty-region field and G the chunk grid.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{
		sim:       sim,
		scale:     scale,
		gridColor: color.RGBA{R: 90, G: 130, B: 170, A: 90},
	}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	if _, ok := sim.(core.FieldProvider); ok {
		o.layers = []*fieldLayer{
			{name: "temperature", key: ebiten.KeyH, tint: color.RGBA{R: 255, G: 120, B: 40}, maxAlpha: 170},
			{name: "dirty", key: ebiten.KeyD, tint: color.RGBA{R: 80, G: 230, B: 120}, maxAlpha: 90},
		}
	}
	return o
}

// Update allows the overlay to update internal state.
func (o *Overlay) Update() {
	for _, l := range o.layers {
		if inpututil.IsKeyJustPressed(l.key) {
			l.on = !l.on
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		o.showGrid = !o.showGrid
	}
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}
	if provider, ok := o.sim.(core.FieldProvider); ok {
		for _, l := range o.layers {
			if !l.on {
				continue
			}
			field := provider.Field(l.name)
			if field == nil {
				continue
			}
			if l.painter == nil {
				l.painter = render.NewGridPainter(size.W, size.H)
			}
			l.painter.BlitField(screen, field, l.tint, l.maxAlpha, scale)
		}
	}
	if o.showGrid {
		o.drawChunkGrid(screen, size, scale)
	}
}

func (o *Overlay) drawChunkGrid(screen *ebiten.Image, size core.Size, scale int) {
	w := float64(size.W * scale)
	h := float64(size.H * scale)
	for x := chunk.Size; x < size.W; x += chunk.Size {
		o.fillRect(screen, float64(x*scale), 0, 1, h)
	}
	for y := chunk.Size; y < size.H; y += chunk.Size {
		o.fillRect(screen, 0, float64(y*scale), w, 1)
	}
}

func (o *Overlay) fillRect(screen *ebiten.Image, x, y, w, h float64) {
	col := o.gridColor
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorM.Scale(float64(col.R)/255.0, float64(col.G)/255.0, float64(col.B)/255.0, float64(col.A)/255.0)
	screen.DrawImage(o.pixel, op)
}
