// Command gbemu loads a ROM and either runs it headlessly for a fixed
// number of frames (for scripted/CI use) or opens an interactive ebiten
// window. Battery RAM and the MBC3 RTC are persisted to files next to the
// ROM through host.Callbacks (spec.md §3/§9) -- this binary is the one
// place those callbacks get a concrete, filesystem-backed implementation.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/ui"
)

type cliFlags struct {
	ROMPath string
	Scale   int
	Title   string
	SaveRAM bool

	Headless bool
	Frames   int
	PNGOut   string
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM/.rtc next to the ROM")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

// fileCallbacks builds host.Callbacks that persist battery RAM and the RTC
// record to "<rom-without-ext>.sav"/".rtc". Either path is skipped when
// save is false.
func fileCallbacks(romPath string, save bool) *host.Callbacks {
	if !save || romPath == "" {
		return &host.Callbacks{}
	}
	base := strings.TrimSuffix(romPath, ".gb")
	savPath := base + ".sav"
	rtcPath := base + ".rtc"

	return &host.Callbacks{
		LoadCartRAM: func(out []byte) bool {
			data, err := os.ReadFile(savPath)
			if err != nil || len(data) != len(out) {
				return false
			}
			copy(out, data)
			return true
		},
		SaveCartRAM: func(in []byte) {
			if err := os.WriteFile(savPath, in, 0644); err != nil {
				log.Printf("save RAM: %v", err)
			}
		},
		LoadCartRTC: func(out []byte) bool {
			data, err := os.ReadFile(rtcPath)
			if err != nil || len(data) != len(out) {
				return false
			}
			copy(out, data)
			return true
		},
		SaveCartRTC: func(in []byte) {
			if err := os.WriteFile(rtcPath, in, 0644); err != nil {
				log.Printf("save RTC: %v", err)
			}
		},
	}
}

func runHeadless(m *machine.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		m.StepFrame()
	}
	dur := time.Since(start)

	fb := m.Framebuffer() // BGRA 160x144*4
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// saveFramePNG swizzles the core's BGRA framebuffer into RGBA before
// encoding, same as the ebiten app does for display.
func saveFramePNG(bgra []byte, w, h int, path string) error {
	rgba := make([]byte, len(bgra))
	for i := 0; i+3 < len(bgra); i += 4 {
		rgba[i+0] = bgra[i+2]
		rgba[i+1] = bgra[i+1]
		rgba[i+2] = bgra[i+0]
		rgba[i+3] = bgra[i+3]
	}
	img := &image.RGBA{Pix: rgba, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("missing -rom")
	}
	rom, err := os.ReadFile(f.ROMPath)
	if err != nil {
		log.Fatalf("read %s: %v", f.ROMPath, err)
	}

	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.TypeInfo.Description, h.ROMBanks, h.RAMBytes)
	}

	cb := fileCallbacks(f.ROMPath, f.SaveRAM)
	m := machine.New(machine.Config{Headless: f.Headless}, cb)
	if err := m.LoadCartridge(rom); err != nil {
		log.Fatalf("load cart: %v", err)
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		m.FlushBattery()
		return
	}

	uiCfg := ui.Config{Title: f.Title, Scale: f.Scale}
	app := ui.NewApp(uiCfg, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	m.FlushBattery()
}
