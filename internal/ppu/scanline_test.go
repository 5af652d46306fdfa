package ppu

import "testing"

// pixelAt reads the ARGB-as-BGRA framebuffer pixel back into a uint32
// matching the greyscale table's encoding, for test comparisons.
func pixelAt(p *PPU, x, y int) uint32 {
	off := (y*160 + x) * 4
	b := p.framebuffer[off+0]
	g := p.framebuffer[off+1]
	r := p.framebuffer[off+2]
	a := p.framebuffer[off+3]
	return uint32(b) | uint32(g)<<8 | uint32(r)<<16 | uint32(a)<<24
}

func TestRenderScanline_SCXOffsetTopLeftColourIndex(t *testing.T) {
	p := New(nil)
	p.lcdc = 0x91 // LCD on, BG on, unsigned tileset, map at 0x1800
	p.scx = 7
	p.scy = 0
	p.bgp = 0xE4 // identity mapping: index n -> greyscale[n]
	p.ly = 0

	// Map tile 0 at (0,0) of the 0x1800 map; tile row 0 bytes: lo=0xFF, hi=0x00.
	p.vramSnapshot[0x1800] = 0x00
	p.vramSnapshot[0x0000] = 0xFF
	p.vramSnapshot[0x0001] = 0x00

	p.renderScanline()

	if got := pixelAt(p, 0, 0); got != greyscale[1] {
		t.Fatalf("top-left pixel got %#08x want colour index 1 (%#08x)", got, greyscale[1])
	}
}

func TestRenderScanline_DisabledLCDFillsWhite(t *testing.T) {
	p := New(nil)
	p.lcdc = 0x00
	p.ly = 5
	for i := range p.framebuffer {
		p.framebuffer[i] = 0x00
	}
	p.renderScanline()

	off := 5 * 160 * 4
	for i := off; i < off+160*4; i++ {
		if p.framebuffer[i] != 0xFF {
			t.Fatalf("disabled lcd line byte %d got %#02x want 0xFF", i-off, p.framebuffer[i])
		}
	}
}

func TestRenderScanline_SignedAddressingOffset(t *testing.T) {
	p := New(nil)
	p.lcdc = 0x81 // LCD on, BG on, signed tileset (bit4=0), map at 0x1800
	p.bgp = 0xE4
	p.ly = 0

	p.vramSnapshot[0x1800] = 0x00 // tile id 0
	// Signed addressing places tile id 0 at 0x1000 (0x9000 on the bus).
	p.vramSnapshot[0x1000] = 0xFF
	p.vramSnapshot[0x1001] = 0x00

	p.renderScanline()

	if got := pixelAt(p, 0, 0); got != greyscale[1] {
		t.Fatalf("signed-addressing pixel got %#08x want colour index 1 (%#08x)", got, greyscale[1])
	}
}
