package cart

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

func newTestMBC3(banks int, ramSize int, hasTimer bool, now func() uint64) *mbc3 {
	rom := make([][]byte, banks)
	for i := range rom {
		rom[i] = make([]byte, romBankSize)
	}
	m := newMBC3(rom, ramSize, hasTimer, 0, &host.Callbacks{})
	if hasTimer {
		m.clock.now = now
	}
	return m
}

func TestMBC3_RTC_LatchAndRead(t *testing.T) {
	clockNow := uint64(100)
	m := newTestMBC3(4, 0x2000, true, func() uint64 { return clockNow })

	m.Write(0x0000, 0x0A) // enable RAM/RTC access
	m.clock.offsetSeconds = 5
	m.clock.offsetMinutes = 6
	m.clock.offsetHours = 7
	m.clock.offsetDays = 0

	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01) // latch edge

	m.Write(0x4000, 0x08) // select seconds register
	if got := m.Read(0xA000); got != 5 {
		t.Fatalf("latched sec got %d want 5", got)
	}

	// Advancing wall clock must not change the latched snapshot.
	clockNow = 130
	if got := m.Read(0xA000); got != 5 {
		t.Fatalf("latched sec changed unexpectedly: got %d", got)
	}
}

func TestMBC3_RTC_NoDoubleLatchOnRepeatedWrite(t *testing.T) {
	clockNow := uint64(0)
	m := newTestMBC3(4, 0x2000, true, func() uint64 { return clockNow })

	m.Write(0x0000, 0x0A)
	m.Write(0x6000, 0x01)
	clockNow = 61 // elapsed one minute
	m.Write(0x4000, 0x08)
	first := m.Read(0xA000)

	m.Write(0x6000, 0x01) // repeated 0x01 without a 0x00 in between: no new latch
	second := m.Read(0xA000)
	if first != second {
		t.Fatalf("repeated latch write changed latched value: %d -> %d", first, second)
	}
}

func TestMBC3_RTC_HaltFreezesClock(t *testing.T) {
	clockNow := uint64(0)
	m := newTestMBC3(4, 0x2000, true, func() uint64 { return clockNow })

	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x0C)
	m.Write(0xA000, 1<<6) // set halt bit

	clockNow = 1000
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	m.Write(0x4000, 0x08)
	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("halted rtc advanced: sec=%d want 0", got)
	}
}

func TestMBC3_RAMBanking(t *testing.T) {
	m := newTestMBC3(4, 0x8000, false, nil)

	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x02)
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("ram bank2 rw failed: got %02X", got)
	}

	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x42 {
		t.Fatalf("ram bank0 unexpectedly aliased bank2's value")
	}
}
