// Package ppu implements the picture processing unit: the dot-clock mode
// state machine, scanline rasterisation, and the two interrupts it can
// raise on the CPU (VBLANK, LCDSTAT). The bus is the only intended caller;
// it owns VRAM/OAM addressing and the register block 0xFF40-0xFF4B.
package ppu

import (
	"bytes"
	"encoding/gob"
)

// Mode is one of the four PPU phases within a scanline.
type Mode byte

const (
	ModeHBlank        Mode = 0
	ModeVBlank        Mode = 1
	ModeOAMScan       Mode = 2
	ModePixelTransfer Mode = 3
)

// InterruptRequester delivers an edge-triggered IF bit request to the CPU
// (0: VBlank, 1: LCDSTAT — the bit positions the real hardware IF register
// uses for these two sources).
type InterruptRequester func(bit int)

const (
	vblankBit  = 0
	lcdstatBit = 1
)

// PPU owns VRAM, OAM, the register block, and the framebuffer. It is driven
// one dot at a time by Tick and exposes byte-wide register access to the bus.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat, scy, scx, ly, lyc byte
	bgp, obp0, obp1, wy, wx       byte

	mode              Mode
	modeDotsRemaining int

	vramSnapshot [0x2000]byte
	oamSnapshot  [0xA0]byte
	framebuffer  [160 * 144 * 4]byte

	req InterruptRequester
}

func New(req InterruptRequester) *PPU {
	p := &PPU{req: req}
	p.Reset()
	return p
}

// Reset implements the power-cycle operation spec.md §4.1 describes:
// registers to zero, snapshots and framebuffer to 0xFF, enter OAM_SCAN at
// ly=0 with an 80-dot budget. The underlying VRAM/OAM contents are left
// untouched, same as original_source/src/display.cpp's Reset does not
// clear the memories the bus owns through it.
func (p *PPU) Reset() {
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = 0, 0, 0, 0, 0, 0
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = 0, 0, 0, 0, 0

	for i := range p.vramSnapshot {
		p.vramSnapshot[i] = 0xFF
	}
	for i := range p.oamSnapshot {
		p.oamSnapshot[i] = 0xFF
	}
	for i := range p.framebuffer {
		p.framebuffer[i] = 0xFF
	}

	p.mode = ModeOAMScan
	p.modeDotsRemaining = 80
	p.stat = (p.stat &^ 0x03) | byte(ModeOAMScan)
}

// Framebuffer borrows the current 160x144x4 BGRA buffer.
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

// Tick advances the mode state machine by one dot and, when PIXEL_TRANSFER
// ends, renders the just-finished scanline. It reports true on the exact
// tick where line 143's HBLANK ends and VBLANK begins (spec.md §4.1).
func (p *PPU) Tick() bool {
	p.modeDotsRemaining--
	if p.modeDotsRemaining > 0 {
		return false
	}

	switch p.mode {
	case ModeOAMScan:
		p.oamSnapshot = p.oam
		p.enterMode(ModePixelTransfer, 172)
		return false

	case ModePixelTransfer:
		p.vramSnapshot = p.vram
		p.renderScanline()
		p.enterMode(ModeHBlank, 204)
		return false

	case ModeHBlank:
		p.setLY(p.ly + 1)
		if p.ly == 144 {
			p.enterMode(ModeVBlank, 456)
			return true
		}
		p.enterMode(ModeOAMScan, 80)
		return false

	case ModeVBlank:
		p.setLY(p.ly + 1)
		if p.ly == 154 {
			p.setLY(0)
			p.enterMode(ModeOAMScan, 80)
			return false
		}
		// Per-scanline total in VBLANK stays 456 dots; staying in the same
		// mode raises no mode-entry interrupt.
		p.modeDotsRemaining = 456
		return false
	}
	return false
}

// enterMode performs the mode-entry bookkeeping common to every
// transition: updates STAT's mode bits and raises LCDSTAT/VBLANK per the
// rules in spec.md §4.1.
func (p *PPU) enterMode(mode Mode, dots int) {
	p.mode = mode
	p.modeDotsRemaining = dots
	p.stat = (p.stat &^ 0x03) | byte(mode)

	switch mode {
	case ModeHBlank:
		if p.stat&(1<<3) != 0 {
			p.requestLCDSTAT()
		}
	case ModeVBlank:
		p.requestVBlank()
		if p.stat&(1<<4) != 0 {
			p.requestLCDSTAT()
		}
	case ModeOAMScan:
		if p.stat&(1<<5) != 0 {
			p.requestLCDSTAT()
		}
	}
}

// setLY updates ly/LY together and recomputes the coincidence flag.
func (p *PPU) setLY(ly byte) {
	p.ly = ly
	p.recomputeCoincidence()
}

// recomputeCoincidence implements the corrected LYC==LY rule spec.md §9's
// open question 1 calls for: the source inverts the flag based on STAT
// bit 2's own prior value, which is a bug. The standard definition is used
// instead — flag := LY == LYC, interrupt fires only on the flag's rising
// edge when STAT bit 6 is enabled.
func (p *PPU) recomputeCoincidence() {
	was := p.stat&(1<<2) != 0
	flag := p.ly == p.lyc
	if flag {
		p.stat |= 1 << 2
	} else {
		p.stat &^= 1 << 2
	}
	if flag && !was && p.stat&(1<<6) != 0 {
		p.requestLCDSTAT()
	}
}

func (p *PPU) requestVBlank() {
	if p.req != nil {
		p.req(vblankBit)
	}
}

func (p *PPU) requestLCDSTAT() {
	if p.req != nil {
		p.req(lcdstatBit)
	}
}

// CPURead returns a byte from VRAM, OAM, or the PPU register block.
// Everything else reads as 0xFF.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and the PPU register block.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		p.lcdc = value
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// Writing LY resets the scanline counter on real hardware.
		p.setLY(0)
	case addr == 0xFF45:
		p.lyc = value
		p.recomputeCoincidence()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

type ppuState struct {
	VRAM, VRAMSnapshot           [0x2000]byte
	OAM, OAMSnapshot             [0xA0]byte
	Framebuffer                  [160 * 144 * 4]byte
	LCDC, STAT, SCY, SCX, LY     byte
	LYC, BGP, OBP0, OBP1, WY, WX byte
	Mode                         Mode
	ModeDotsRemaining            int
}

// SaveState serializes the full PPU: memories, registers, and timing
// position, so a resumed frame continues mid-scanline exactly as left.
func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	s := ppuState{
		VRAM: p.vram, VRAMSnapshot: p.vramSnapshot,
		OAM: p.oam, OAMSnapshot: p.oamSnapshot,
		Framebuffer: p.framebuffer,
		LCDC:        p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		Mode: p.mode, ModeDotsRemaining: p.modeDotsRemaining,
	}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (p *PPU) LoadState(data []byte) error {
	var s ppuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	p.vram, p.vramSnapshot = s.VRAM, s.VRAMSnapshot
	p.oam, p.oamSnapshot = s.OAM, s.OAMSnapshot
	p.framebuffer = s.Framebuffer
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.mode, p.modeDotsRemaining = s.Mode, s.ModeDotsRemaining
	return nil
}
