// Package machine coordinates a cartridge, a PPU, and the bus that joins
// them into one addressable system, plus a cpu.Stepper to drive the dot
// clock (spec.md §9). It is the single object a host process talks to: no
// process-wide singletons, matching spec.md §3.
package machine

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/ppu"
)

// Buttons is the eight-button DMG input state. SetButtons pokes it straight
// into the joypad I/O register's lower nibble (active-low, no select-group
// multiplexing) -- real joypad semantics belong to the cycle-accurate CPU
// model spec.md §1 puts out of scope, so this is documented plumbing, not
// an attempt at hardware accuracy.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Machine owns the cartridge, PPU, and bus for one loaded ROM, and drives a
// cpu.Stepper across a frame's worth of dot-clock cycles.
type Machine struct {
	cfg Config
	cb  *host.Callbacks

	cart   cart.Cartridge
	header *cart.Header
	bus    *bus.Bus
	ppu    *ppu.PPU
	cpu    cpu.Stepper

	romPath string
}

// New constructs a Machine with no cartridge loaded; call LoadCartridge
// before StepFrame.
func New(cfg Config, cb *host.Callbacks) *Machine {
	return &Machine{cfg: cfg, cb: cb}
}

// LoadCartridge parses rom's header, constructs the matching MBC, and wires
// a fresh PPU/Bus/CPU stack around it -- spec.md §3's "ROM load -> header
// parse -> cartridge construction -> bus wiring" sequence.
func (m *Machine) LoadCartridge(rom []byte) error {
	c, h, err := cart.NewCartridge(rom, m.cb)
	if err != nil {
		return err
	}

	// The PPU's interrupt requester needs the bus, and the bus needs the
	// PPU; break the cycle with a forwarding closure over a variable that
	// is filled in once the bus exists, before anything ticks.
	var b *bus.Bus
	p := ppu.New(func(bit int) {
		if b != nil {
			b.PPUInterruptRequester(bit)
		}
	})
	b = bus.New(c, p)

	m.cart = c
	m.header = h
	m.ppu = p
	m.bus = b
	m.cpu = cpu.NewFreeRunner()
	return nil
}

// LoadROMFromFile reads a ROM image from disk and loads it.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path LoadROMFromFile last loaded successfully.
func (m *Machine) ROMPath() string { return m.romPath }

// Header returns the parsed cartridge header, or nil if nothing is loaded.
func (m *Machine) Header() *cart.Header { return m.header }

// Framebuffer borrows the PPU's current 160x144x4 BGRA buffer.
func (m *Machine) Framebuffer() []byte {
	if m.ppu == nil {
		return nil
	}
	return m.ppu.Framebuffer()
}

// StepFrame drives the CPU stepper and ticks the PPU that many dots per
// step (spec.md §5's scheduling model), stopping on the dot where a new
// frame becomes ready and presenting it through Callbacks.
func (m *Machine) StepFrame() {
	if m.cpu == nil || m.ppu == nil {
		return
	}
	for {
		cycles, err := m.cpu.Step()
		if err != nil {
			return
		}
		frameReady := false
		for i := 0; i < cycles; i++ {
			if m.ppu.Tick() {
				frameReady = true
			}
		}
		if frameReady {
			if !m.cfg.Headless {
				m.cb.PresentFrameSafe(m.ppu.Framebuffer(), 160*4)
			}
			return
		}
	}
}

// SetButtons records the current input state onto the joypad register.
func (m *Machine) SetButtons(btn Buttons) {
	if m.bus == nil {
		return
	}
	var low byte = 0x0F
	clear := func(pressed bool, bit byte) {
		if pressed {
			low &^= bit
		}
	}
	clear(btn.Right || btn.A, 0x01)
	clear(btn.Left || btn.B, 0x02)
	clear(btn.Up || btn.Select, 0x04)
	clear(btn.Down || btn.Start, 0x08)
	m.bus.Write(0xFF00, (m.bus.Read(0xFF00)&0xF0)|low)
}

// FlushBattery persists external cartridge RAM (and RTC, for MBC3) through
// the host callbacks, mirroring what real shutdown/RAM-disable handling
// does (spec.md §3/§7).
func (m *Machine) FlushBattery() {
	if m.cart != nil {
		m.cart.FlushBattery()
	}
}

type machineState struct {
	Cart []byte
	PPU  []byte
}

// SaveState serializes the cartridge's framed save state (spec.md §4.4) and
// the PPU's own state into one blob.
func (m *Machine) SaveState() []byte {
	if m.cart == nil || m.ppu == nil {
		return nil
	}
	var buf bytes.Buffer
	s := machineState{Cart: cart.SaveState(m.cart), PPU: m.ppu.SaveState()}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a blob produced by SaveState onto the currently loaded
// cartridge; the cartridge's crc32 gate rejects a blob from a different ROM.
func (m *Machine) LoadState(data []byte) error {
	if m.cart == nil || m.ppu == nil {
		return nil
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := cart.LoadState(m.cart, s.Cart); err != nil {
		return err
	}
	return m.ppu.LoadState(s.PPU)
}

func (m *Machine) SaveStateToFile(path string) error {
	data := m.SaveState()
	if len(data) == 0 {
		return nil
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
