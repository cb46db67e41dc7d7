//go:build ebiten

package ui

import (
	"image"
	"image/color"

	"sandfall/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	panelPadding   = 12
	rowHeight      = 32
	readoutHeight  = 16
	buttonSize     = 22
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 21
	rowsTop        = panelPadding + headerBaseline + 12
)

var (
	panelBG      = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	headerFG     = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelFG      = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimFG        = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonBG     = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	buttonFG     = color.RGBA{R: 230, G: 230, B: 240, A: 255}
	buttonOffBG  = color.RGBA{R: 32, G: 34, B: 40, A: 255}
	buttonOffFG  = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	readoutLabel = color.RGBA{R: 150, G: 170, B: 190, A: 255}
)

// row is the on-panel geometry of one knob.
type row struct {
	top         int
	minus, plus image.Rectangle
}

// HUD draws the parameter panel to the right of the simulation view: one
// row per adjustable control with -/+ buttons, then the sim's running stats.
type HUD struct {
	sim    core.Sim
	width  int
	panel  *ebiten.Image
	pixel  *ebiten.Image
	state  *controlPanel
	rows   []row
	offset int
}

// NewHUD builds a HUD of the given panel width. A width of zero disables it.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), state: newControlPanel(sim)}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	h.rows = make([]row, len(h.state.knobs))
	for i := range h.rows {
		top := rowsTop + i*rowHeight
		y := top + (rowHeight-buttonSize)/2
		plus := image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
		minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
		h.rows[i] = row{top: top, minus: minus, plus: plus}
	}
	return h
}

// Update reads the parameter snapshot and applies a click on the panel,
// which starts at screen x panelX.
func (h *HUD) Update(panelX int) {
	if h == nil {
		return
	}
	h.offset = panelX
	provider, ok := h.sim.(interface {
		Parameters() core.ParameterSnapshot
	})
	if !ok {
		h.state.refresh(core.ParameterSnapshot{})
		return
	}
	h.state.refresh(provider.Parameters())
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	at := image.Pt(mx-h.offset, my)
	for i, r := range h.rows {
		switch {
		case at.In(r.minus):
			h.state.press(i, -1)
			return
		case at.In(r.plus):
			h.state.press(i, 1)
			return
		}
	}
}

// Draw paints the panel at x offsetX of screen.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelBG)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.state.title, face, panelPadding, panelPadding+headerBaseline, headerFG)
	if len(h.state.knobs) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, rowsTop+labelBaseline, dimFG)
	}
	for i, r := range h.rows {
		k := &h.state.knobs[i]
		y := r.top + labelBaseline
		text.Draw(h.panel, k.ctrl.Label, face, panelPadding, y, labelFG)
		fg := labelFG
		if !k.known {
			fg = dimFG
		}
		v := k.text()
		text.Draw(h.panel, v, face, r.minus.Min.X-buttonGap-text.BoundString(face, v).Dx(), y, fg)
		h.button(r.minus, "-", h.state.enabled(i, -1))
		h.button(r.plus, "+", h.state.enabled(i, 1))
	}

	y := rowsTop + len(h.rows)*rowHeight + readoutHeight
	for _, ro := range h.state.readouts {
		if y > height-panelPadding {
			break
		}
		text.Draw(h.panel, ro.label, face, panelPadding, y, readoutLabel)
		text.Draw(h.panel, ro.value, face, h.width-panelPadding-text.BoundString(face, ro.value).Dx(), y, labelFG)
		y += readoutHeight
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) button(r image.Rectangle, label string, enabled bool) {
	bg, fg := buttonBG, buttonFG
	if !enabled {
		bg, fg = buttonOffBG, buttonOffFG
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := r.Min.X + (r.Dx()-b.Dx())/2
	y := r.Min.Y + (r.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}
