package bus

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/ppu"
)

// fakeCart is a minimal Cartridge for exercising the bus's address decoding
// without pulling in the full internal/cart package.
type fakeCart struct {
	rom [0x8000]byte
	ram [0x2000]byte
}

func (f *fakeCart) Read(addr uint16) byte {
	if addr <= 0x7FFF {
		return f.rom[addr]
	}
	return f.ram[addr-0xA000]
}

func (f *fakeCart) Write(addr uint16, value byte) {
	if addr >= 0xA000 && addr <= 0xBFFF {
		f.ram[addr-0xA000] = value
	}
}

func newTestBus() *Bus {
	return New(&fakeCart{}, ppu.New(nil))
}

func TestBus_ROMAndExternalRAM(t *testing.T) {
	cart := &fakeCart{}
	cart.rom[0x0100] = 0x42
	b := New(cart, ppu.New(nil))

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xA010, 0x99)
	if got := b.Read(0xA010); got != 0x99 {
		t.Fatalf("external RAM read got %02x, want 99", got)
	}
}

func TestBus_WRAMAndEcho(t *testing.T) {
	b := newTestBus()

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("WRAM read got %02x, want 99", got)
	}

	b.Write(0xE000, 0x55)
	if got := b.Read(0xC000); got != 0x55 {
		t.Fatalf("echo write did not mirror to WRAM: got %02x", got)
	}
}

func TestBus_HRAM(t *testing.T) {
	b := newTestBus()
	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}
}

func TestBus_VRAM_OAM_RouteThroughPPU(t *testing.T) {
	b := newTestBus()

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}
}

func TestBus_IFAndIE(t *testing.T) {
	b := newTestBus()

	b.Write(0xFF0F, 0x3F) // top 3 bits are write-ignored, read back as set
	if got := b.Read(0xFF0F); got != 0xFF {
		t.Fatalf("IF read got %02x, want FF", got)
	}

	b.Write(0xFFFF, 0x1B)
	if got := b.Read(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestBus_RequestInterrupt_ORsIntoIF(t *testing.T) {
	b := newTestBus()
	b.Write(0xFF0F, 0x00)

	b.RequestInterrupt(Timer)
	if got := b.Read(0xFF0F) & 0x1F; got != 1<<Timer {
		t.Fatalf("IF got %02x, want bit %d set", got, Timer)
	}

	b.RequestInterrupt(Joypad)
	if got := b.Read(0xFF0F) & 0x1F; got != (1<<Timer)|(1<<Joypad) {
		t.Fatalf("IF got %02x, want Timer and Joypad bits set", got)
	}
}

func TestBus_UnusableRangeReadsFF(t *testing.T) {
	b := newTestBus()
	b.Write(0xFEA0, 0x42) // ignored
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("unusable range read got %02x, want FF", got)
	}
}

func TestBus_GenericIORegistersReadBackLastWrite(t *testing.T) {
	b := newTestBus()
	b.Write(0xFF24, 0x77) // NR50, no timer/joypad/serial model behind it
	if got := b.Read(0xFF24); got != 0x77 {
		t.Fatalf("generic IO register got %02x, want 77", got)
	}
}
