// Package ui hosts the optional interactive ebiten window: the spec's
// present_frame contract (spec.md §6) given a concrete, non-headless
// implementation, plus keyboard-to-joypad mapping.
package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/machine"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const saveStatePath = "slot0.savestate"

// App is the ebiten Game implementation driving a Machine one frame per
// Update call (five while fast-forward is held, none while paused unless
// N single-steps one).
type App struct {
	cfg    Config
	m      *machine.Machine
	tex    *ebiten.Image
	rgba   []byte
	paused bool
	fast   bool
}

func NewApp(cfg Config, m *machine.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m, rgba: make([]byte, 160*144*4)}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	var btn machine.Buttons
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		btn.Right = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		btn.Left = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		btn.Up = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		btn.Down = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		btn.A = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		btn.B = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		btn.Start = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		btn.Select = true
	}
	a.m.SetButtons(btn)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		_ = a.m.SaveStateToFile(saveStatePath)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		_ = a.m.LoadStateFromFile(saveStatePath)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		_ = a.saveScreenshot()
	}

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.m.StepFrame()
		}
		return nil
	}
	n := 1
	if a.fast {
		n = 5
	}
	for i := 0; i < n; i++ {
		a.m.StepFrame()
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	bgraToRGBA(a.m.Framebuffer(), a.rgba)
	a.tex.WritePixels(a.rgba)
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outW, outH int) (int, int) { return 160, 144 }

// bgraToRGBA swizzles the core's BGRA framebuffer (spec.md §6) into the
// RGBA byte order ebiten.Image.WritePixels expects.
func bgraToRGBA(bgra, out []byte) {
	for i := 0; i+3 < len(bgra) && i+3 < len(out); i += 4 {
		out[i+0] = bgra[i+2]
		out[i+1] = bgra[i+1]
		out[i+2] = bgra[i+0]
		out[i+3] = bgra[i+3]
	}
}

func (a *App) saveScreenshot() error {
	bgraToRGBA(a.m.Framebuffer(), a.rgba)
	img := &image.RGBA{
		Pix:    append([]byte(nil), a.rgba...),
		Stride: 4 * 160,
		Rect:   image.Rect(0, 0, 160, 144),
	}
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
