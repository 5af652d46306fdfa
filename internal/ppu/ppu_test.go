package ppu

import "testing"

func statMode(p *PPU) byte { return p.CPURead(0xFF41) & 0x03 }

func tickN(p *PPU, n int) bool {
	ready := false
	for i := 0; i < n; i++ {
		if p.Tick() {
			ready = true
		}
	}
	return ready
}

func TestModeSequenceOneLine(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80)
	if m := statMode(p); m != 2 {
		t.Fatalf("expected mode 2 after reset, got %d", m)
	}

	tickN(p, 80)
	if m := statMode(p); m != 3 {
		t.Fatalf("expected mode 3 at dot 80, got %d", m)
	}

	tickN(p, 172)
	if m := statMode(p); m != 0 {
		t.Fatalf("expected mode 0 at dot 252, got %d", m)
	}

	tickN(p, 204)
	if ly := p.CPURead(0xFF44); ly != 1 {
		t.Fatalf("expected LY=1, got %d", ly)
	}
	if m := statMode(p); m != 2 {
		t.Fatalf("expected mode 2 at new line, got %d", m)
	}
}

func TestVBlankAndSTATOnVBlank(t *testing.T) {
	var got []int
	p := New(func(bit int) { got = append(got, bit) })
	p.CPUWrite(0xFF41, 1<<4)

	tickN(p, 144*456)

	vb, st := 0, 0
	for _, b := range got {
		if b == 0 {
			vb++
		} else if b == 1 {
			st++
		}
	}
	if vb == 0 {
		t.Fatalf("expected at least one VBlank IRQ at LY=144")
	}
	if st == 0 {
		t.Fatalf("expected STAT IRQ on VBlank when enabled")
	}
}

func TestFrameReadyFiresOnceAtLine143HBlankEnd(t *testing.T) {
	p := New(nil)
	if tickN(p, 144*456-1) {
		t.Fatalf("frame_ready fired too early")
	}
	if !tickN(p, 1) {
		t.Fatalf("expected frame_ready on the tick ending line 143's HBLANK")
	}
	if statMode(p) != 1 {
		t.Fatalf("expected VBLANK mode right after frame_ready")
	}
}

func TestOneFrameIsExactly70224Dots(t *testing.T) {
	p := New(nil)
	tickN(p, 144*456) // land exactly at the frame_ready tick
	count := 0
	for i := 0; i < 70224; i++ {
		if p.Tick() {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one frame_ready per 70224 dots, got %d", count)
	}
	if p.CPURead(0xFF44) != 144 {
		t.Fatalf("expected LY back at the same phase after one frame, got %d", p.CPURead(0xFF44))
	}
}

func TestLine153VBlankEndWrapsLYToZero(t *testing.T) {
	p := New(nil)
	tickN(p, 144*456)      // enter VBlank at LY=144
	tickN(p, 456*9)        // advance through LY 145..153
	if ly := p.CPURead(0xFF44); ly != 153 {
		t.Fatalf("expected LY=153 before the last VBlank line ends, got %d", ly)
	}
	tickN(p, 456)
	if ly := p.CPURead(0xFF44); ly != 0 {
		t.Fatalf("expected LY to wrap to 0, got %d", ly)
	}
	if m := statMode(p); m != 2 {
		t.Fatalf("expected OAM_SCAN after the wrap, got mode %d", m)
	}
}

func TestLYCCoincidenceFiresOnRisingEdgeOnly(t *testing.T) {
	var got []int
	p := New(func(bit int) { got = append(got, bit) })
	p.CPUWrite(0xFF41, 1<<6)
	p.CPUWrite(0xFF45, 2)

	tickN(p, 456*2+1) // cross into LY=2

	count := 0
	for _, b := range got {
		if b == 1 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one LYC STAT IRQ on the rising edge, got %d", count)
	}

	got = got[:0]
	tickN(p, 455) // stay on LY=2 for the rest of the line; no repeat interrupt
	for _, b := range got {
		if b == 1 {
			t.Fatalf("unexpected repeated LYC STAT IRQ while LY stays at LYC")
		}
	}
}

func TestHBlankAndOAMSTATInterrupts(t *testing.T) {
	var got []int
	p := New(func(bit int) { got = append(got, bit) })
	p.CPUWrite(0xFF41, (1<<3)|(1<<5))

	tickN(p, 80+172) // entering HBlank

	hblank := 0
	for _, b := range got {
		if b == 1 {
			hblank++
		}
	}
	if hblank == 0 {
		t.Fatalf("expected STAT IRQ on HBlank when enabled")
	}

	got = got[:0]
	tickN(p, 204) // entering OAM_SCAN for line 1
	oam := 0
	for _, b := range got {
		if b == 1 {
			oam++
		}
	}
	if oam == 0 {
		t.Fatalf("expected STAT IRQ on OAM_SCAN when enabled")
	}
}
