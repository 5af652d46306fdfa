package ppu

import "sort"

// greyscale is the fixed ARGB palette spec.md §4.1 names, stored
// little-endian as BGRA bytes when written into the framebuffer.
var greyscale = [4]uint32{0xFFFFFFFF, 0xFFC0C0C0, 0xFF606060, 0xFF000000}

type spriteEntry struct {
	x, y, tile, attr byte
}

// renderScanline rasterises the line at the current ly into the
// framebuffer, reading from the VRAM/OAM snapshots taken at mode entry.
// Grounded on original_source/src/display.cpp's Display::RenderScanline,
// with the three corrections spec.md §9 calls for: standard sprite
// hflip/vflip formulae, Min(n, 10) sprite cap, and (unlike the source,
// which paints sprite colour-index 0 as opaque grey) index 0 treated as
// transparent.
func (p *PPU) renderScanline() {
	line := p.ly
	rowStart := int(line) * 160 * 4

	if p.lcdc&0x80 == 0 {
		for i := rowStart; i < rowStart+160*4; i++ {
			p.framebuffer[i] = 0xFF
		}
		return
	}

	var lineColor [160]uint32
	var bgColorIndex [160]byte
	for x := range lineColor {
		lineColor[x] = greyscale[0]
	}

	if p.lcdc&0x01 != 0 {
		p.renderBackground(line, &bgColorIndex, &lineColor)
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites(line, &bgColorIndex, &lineColor)
	}

	for x := 0; x < 160; x++ {
		c := lineColor[x]
		off := rowStart + x*4
		p.framebuffer[off+0] = byte(c)
		p.framebuffer[off+1] = byte(c >> 8)
		p.framebuffer[off+2] = byte(c >> 16)
		p.framebuffer[off+3] = byte(c >> 24)
	}
}

func (p *PPU) renderBackground(line byte, bgColorIndex *[160]byte, lineColor *[160]uint32) {
	mapBase := uint16(0x1800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x1C00
	}
	unsignedAddressing := p.lcdc&0x10 != 0

	y := (uint16(line) + uint16(p.scy)) & 0xFF
	tileRow := byte(y & 7)
	rowOffset := (y >> 3) << 5

	colOffset := uint16(p.scx) >> 3
	fineX := int(p.scx & 7)
	tileID := p.vramSnapshot[mapBase+rowOffset+colOffset]

	for x := 0; x < 160; x++ {
		colorIdx := p.tilePixel(tileID, tileRow, byte(fineX), unsignedAddressing)
		bgColorIndex[x] = colorIdx
		lineColor[x] = greyscale[(p.bgp>>(colorIdx*2))&0x03]

		fineX++
		if fineX == 8 {
			fineX = 0
			colOffset = (colOffset + 1) & 31
			tileID = p.vramSnapshot[mapBase+rowOffset+colOffset]
		}
	}
}

// tilePixel decodes one 2-bit pixel from the tile data at row tileRow,
// column withinTileX (0 = leftmost). The low byte of the row holds the
// LSB of each pixel, the high byte the MSB, both MSB-first by column
// (spec.md §4.1 bullet 3). Without unsignedAddressing the tile id is
// signed around VRAM 0x1000: ids 0x00-0x7F sit at 0x1000-0x17F0 and ids
// 0x80-0xFF at 0x0800-0x0FF0.
func (p *PPU) tilePixel(tileID, tileRow, withinTileX byte, unsignedAddressing bool) byte {
	base := uint16(tileID) * 16
	if !unsignedAddressing {
		base = 0x0800 + uint16(tileID^0x80)*16
	}
	lo := p.vramSnapshot[base+uint16(tileRow)*2]
	hi := p.vramSnapshot[base+uint16(tileRow)*2+1]
	bit := 7 - withinTileX
	return ((lo >> bit) & 1) | (((hi >> bit) & 1) << 1)
}

func (p *PPU) renderSprites(line byte, bgColorIndex *[160]byte, lineColor *[160]uint32) {
	height := byte(8)
	if p.lcdc&0x04 != 0 {
		height = 16
	}

	sprites := p.cullSprites(line, height)

	for x := 0; x < 160; x++ {
		for _, s := range sprites {
			spriteLeft := int(s.x) - 8
			if x < spriteLeft || x > spriteLeft+7 {
				continue
			}

			priorityBehindBG := s.attr&0x80 != 0
			if priorityBehindBG && bgColorIndex[x] != 0 {
				break
			}

			tileX := x - spriteLeft
			tileY := int(line) - (int(s.y) - 16)
			if s.attr&0x20 != 0 {
				tileX = 7 - tileX // corrected hflip (source used 15-tx)
			}
			if s.attr&0x40 != 0 {
				tileY = int(height) - 1 - tileY // corrected vflip (source used height-ty)
			}

			tileIndex := s.tile
			if height == 16 {
				if tileY < 8 {
					tileIndex &^= 0x01
				} else {
					tileIndex |= 0x01
					tileY -= 8
				}
			}

			colorIdx := p.tilePixel(tileIndex, byte(tileY), byte(tileX), true)
			if colorIdx == 0 {
				break // transparent: leave the background pixel in place
			}

			palette := p.obp0
			if s.attr&0x10 != 0 {
				palette = p.obp1
			}
			lineColor[x] = greyscale[(palette>>(colorIdx*2))&0x03]
			break
		}
	}
}

// cullSprites keeps the OAM entries intersecting line, sorted by ascending
// x (ties preserve OAM order), capped at 10 — the source's cap used
// Max(n, 10) where Min(n, 10) is required (spec.md §9 open question 3).
func (p *PPU) cullSprites(line byte, height byte) []spriteEntry {
	var kept []spriteEntry
	for i := 0; i < 40; i++ {
		y := p.oamSnapshot[i*4+0]
		x := p.oamSnapshot[i*4+1]
		tile := p.oamSnapshot[i*4+2]
		attr := p.oamSnapshot[i*4+3]

		if x == 0 || x >= 168 || y == 0 || y >= 160 {
			continue
		}
		top := int(y) - 16
		if int(line) < top || int(line) >= top+int(height) {
			continue
		}
		kept = append(kept, spriteEntry{x: x, y: y, tile: tile, attr: attr})
	}

	sort.SliceStable(kept, func(a, b int) bool { return kept[a].x < kept[b].x })

	if len(kept) > 10 {
		kept = kept[:10]
	}
	return kept
}
