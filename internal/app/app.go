//go:build ebiten

package app

import (
	"time"

	"rubble/internal/core"
	"rubble/internal/render"
	"rubble/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// editor is implemented by scenes that accept edits at cross-section cells.
type editor interface {
	Explode(x, y int)
	Pour(x, y int)
	MoveSlice(delta int)
}

// Game adapts a scene to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD
	timer   *core.FixedStep

	scale    int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided scene.
func New(sim core.Sim, cfg *Config) *Game {
	size := sim.Size()
	return &Game{
		sim:     sim,
		painter: render.NewGridPainter(size.W, size.H),
		overlay: ui.NewOverlay(sim, cfg.Scale),
		hud:     ui.NewHUD(sim, cfg.HUDWidth),
		timer:   core.NewFixedStep(cfg.SimTPS),
		scale:   max(cfg.Scale, 1),
		seed:    cfg.Seed,
	}
}

// Reset regenerates the scene with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// cursorCell returns the cross-section cell under the mouse.
func (g *Game) cursorCell() (int, int, bool) {
	mx, my := ebiten.CursorPosition()
	x, y := mx/g.scale, my/g.scale
	size := g.sim.Size()
	return x, y, mx >= 0 && my >= 0 && x < size.W && y < size.H
}

// Update handles input and advances the scene at the fixed sim rate.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
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
	if ed, ok := g.sim.(editor); ok {
		if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
			ed.MoveSlice(1)
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
			ed.MoveSlice(-1)
		}
		if x, y, ok := g.cursorCell(); ok {
			if inpututil.IsKeyJustPressed(ebiten.KeyE) {
				ed.Explode(x, y)
			}
			if ebiten.IsKeyPressed(ebiten.KeyW) {
				ed.Pour(x, y)
			}
		}
	}

	g.overlay.Update()
	g.hud.Update(g.sim.Size().W * g.scale)

	if g.timer.ShouldStep() && (!g.paused || g.tickOnce) {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

// Draw renders the current cross-section.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Fill(g.sim.Cells(), g.sim.Palette())
	g.overlay.Tint(g.painter.Pixels())
	g.painter.Flush(screen, g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hud.Width(), s.H * g.scale
}
