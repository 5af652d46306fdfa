// Package bus decodes the full 16-bit CPU address space (spec.md §6) and
// routes it to the cartridge and the PPU. Everything outside those two
// owners -- WRAM, HRAM, IF/IE, and the timer/joypad/serial/audio I/O window
// -- is ambient plumbing kept here as simple byte stores; this module does
// not implement cycle-accurate timer, joypad, or serial behaviour, since
// those live with the CPU this spec excludes (spec.md §1, SPEC_FULL.md §9).
package bus

import "github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/ppu"

// Interrupt kinds, matching the IF/IE bit positions real hardware uses.
const (
	VBlank = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Cartridge is the subset of cart.Cartridge the bus needs to route ROM and
// external RAM accesses. Declared locally so bus does not import cart only
// to name a type already satisfied structurally.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Bus wires a cartridge and a PPU into one addressable memory map. It is not
// itself a CPU: nothing here advances the dot clock or a cycle count, that
// is Machine's job (spec.md §5).
type Bus struct {
	cart Cartridge
	ppu  *ppu.PPU

	wram [0x2000]byte
	hram [0x7F]byte
	io   [0x80]byte // 0xFF00-0xFF7F catch-all register store

	ifReg byte
	ie    byte
}

func New(cart Cartridge, p *ppu.PPU) *Bus {
	return &Bus{cart: cart, ppu: p}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr <= 0x7FFF:
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0xE000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr >= 0xFF00 && addr <= 0xFF7F:
		return b.io[addr-0xFF00]
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr <= 0x7FFF:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0xE000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unusable range, writes ignored
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFF00 && addr <= 0xFF7F:
		b.io[addr-0xFF00] = value
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	}
}

// RequestInterrupt ORs the given interrupt's bit into IF (spec.md §6). The
// PPU is wired to call this through ppu.InterruptRequester; the other three
// kinds exist so the address space and interrupt model are complete even
// though nothing in this module raises them yet.
func (b *Bus) RequestInterrupt(kind int) {
	b.ifReg |= 1 << uint(kind)
}

// PPUInterruptRequester adapts RequestInterrupt to ppu.InterruptRequester,
// translating the PPU's local VBlank/LCDSTAT bit numbering onto the shared
// IF bit positions above (they happen to coincide, but the translation is
// explicit so a future interrupt source does not have to match the PPU's
// internal numbering by coincidence).
func (b *Bus) PPUInterruptRequester(bit int) {
	switch bit {
	case 0:
		b.RequestInterrupt(VBlank)
	case 1:
		b.RequestInterrupt(LCDStat)
	}
}
