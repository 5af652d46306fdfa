package cart

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

func newTestNone(ramSize int) *none {
	rom := make([][]byte, 2)
	rom[0] = make([]byte, romBankSize)
	rom[1] = make([]byte, romBankSize)
	rom[0][0] = 0xAA
	rom[1][0] = 0xBB
	return newNone(rom, ramSize, 0, &host.Callbacks{})
}

func TestNone_FixedBankMapping(t *testing.T) {
	c := newTestNone(0)
	if got := c.Read(0x0000); got != 0xAA {
		t.Fatalf("bank0 read got %02X want AA", got)
	}
	if got := c.Read(0x4000); got != 0xBB {
		t.Fatalf("bank1 read got %02X want BB", got)
	}
}

func TestNone_ControlWritesAreDropped(t *testing.T) {
	c := newTestNone(0)
	c.Write(0x2000, 0xFF) // no selector to move; must not panic or alter reads
	if got := c.Read(0x0000); got != 0xAA {
		t.Fatalf("bank0 read after control write got %02X want AA", got)
	}
}

func TestNone_RAMAlwaysEnabled(t *testing.T) {
	c := newTestNone(8 * 1024)
	c.Write(0xA000, 0x42)
	if got := c.Read(0xA000); got != 0x42 {
		t.Fatalf("RAM RW got %02X want 42 (no enable latch for MBC_NONE)", got)
	}
}
