package cart

import "github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"

// none is the MBC_NONE controller: bank 0 serves 0x0000–0x3FFF, bank 1
// serves 0x4000–0x7FFF, with an optional directly-mapped RAM window and no
// control-plane writes (spec.md §4.2 "None").
type none struct {
	mbcBase
}

func newNone(banks [][]byte, ramSize int, crc uint32, cb *host.Callbacks) *none {
	n := &none{mbcBase: newMBCBase(banks, ramSize, crc, cb)}
	n.ramEnabled = true // no enable latch for MBC_NONE; RAM (if present) is always mapped
	return n
}

func (c *none) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return c.romBank(0, addr)
	case addr < 0x8000:
		return c.romBank(1, addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return c.ramRead(int(addr - 0xA000))
	default:
		return 0xFF
	}
}

func (c *none) Write(addr uint16, value byte) {
	if addr >= 0xA000 && addr <= 0xBFFF {
		c.ramWrite(int(addr-0xA000), value)
	}
	// All other writes (0x0000–0x7FFF) are control-plane writes with no
	// controller to receive them; silently dropped per spec.md §7.
}

func (c *none) Kind() Kind { return KindNone }

func (c *none) ExternalRAM() []byte             { return c.externalRAM() }
func (c *none) SetExternalRAM(data []byte) error { return c.setExternalRAM(data) }

func (c *none) MBCState() []byte          { return nil }
func (c *none) SetMBCState(data []byte) error {
	if len(data) != 0 {
		return ErrSaveStateMBCBodyError
	}
	return nil
}
