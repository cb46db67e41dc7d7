//go:build ebiten

package app

import (
	"fmt"
	"image/color"
	"time"

	"sandfall/internal/core"
	"sandfall/internal/render"
	"sandfall/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const maxBrushRadius = 32

var binaryPalette = []color.RGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD

	palette []color.RGBA
	brushes []string
	brush   uint8
	radius  int

	scale    int
	hudWidth int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, cfg *Config) *Game {
	size := sim.Size()
	g := &Game{
		sim:      sim,
		painter:  render.NewGridPainter(size.W, size.H),
		overlay:  ui.NewOverlay(sim, cfg.Scale),
		palette:  binaryPalette,
		radius:   cfg.Brush,
		scale:    cfg.Scale,
		hudWidth: cfg.HUDWidth,
		seed:     cfg.Seed,
	}
	if g.hudWidth > 0 {
		g.hud = ui.NewHUD(sim, g.hudWidth)
	}
	if bp, ok := sim.(core.BrushProvider); ok {
		g.brushes = bp.Brushes()
		if len(g.brushes) > 1 {
			g.brush = 1
		}
	}
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}

	g.updateBrush()
	if g.overlay != nil {
		g.overlay.Update()
	}
	if g.hud != nil {
		g.hud.Update(g.viewWidth())
	}
	g.paint()

	if (!g.paused) || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

func (g *Game) updateBrush() {
	for i, k := range digitKeys {
		if i < len(g.brushes) && inpututil.IsKeyJustPressed(k) {
			g.brush = uint8(i)
		}
	}
	if n := len(g.brushes); n > 0 {
		_, wy := ebiten.Wheel()
		switch {
		case wy > 0:
			g.brush = uint8((int(g.brush) + 1) % n)
		case wy < 0:
			g.brush = uint8((int(g.brush) + n - 1) % n)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) && g.radius > 0 {
		g.radius--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) && g.radius < maxBrushRadius {
		g.radius++
	}
}

// paint applies the brush under the cursor: left button paints the selected
// value, right button erases.
func (g *Game) paint() {
	p, ok := g.sim.(core.Painter)
	if !ok {
		return
	}
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if !left && !right {
		return
	}
	mx, my := ebiten.CursorPosition()
	if mx < 0 || my < 0 || mx >= g.viewWidth() {
		return
	}
	value := g.brush
	if right {
		value = 0
	}
	p.Paint(mx/g.scale, my/g.scale, value, g.radius)
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	palette := g.palette
	if pp, ok := g.sim.(core.PaletteProvider); ok {
		palette = pp.Palette()
	}
	g.painter.BlitPalette(screen, g.sim.Cells(), palette, g.scale)
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
	if g.hud != nil {
		g.hud.Draw(screen, g.viewWidth(), g.scale)
	}
	text.Draw(screen, g.status(), basicfont.Face7x13, 6, 16, color.RGBA{R: 230, G: 230, B: 240, A: 255})
}

func (g *Game) status() string {
	state := "running"
	if g.paused {
		state = "paused"
	}
	brush := "-"
	if int(g.brush) < len(g.brushes) {
		brush = g.brushes[g.brush]
	}
	return fmt.Sprintf("%s  brush %s r=%d  seed %d", state, brush, g.radius, g.seed)
}

func (g *Game) viewWidth() int { return g.sim.Size().W * g.scale }

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}
