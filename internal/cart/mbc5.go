package cart

import (
	"bytes"
	"encoding/gob"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

// mbc5 implements the MBC5 controller (spec.md §4.2): a 9-bit ROM selector
// split across two write ports with no bank-0 remap, a 4-bit RAM bank, and
// an optional rumble motor bit aliased onto the RAM-bank register's bit 3 on
// cartridge types with has_rumble. The rumble bit is write-only state with
// no host effect beyond spec.md's scope — it is masked out of the RAM bank
// number but otherwise has nothing observable to drive, so it is tracked in
// an unexported field rather than wired to any host callback.
type mbc5 struct {
	mbcBase

	romBankNumber uint16 // 9 bits
	ramBankNumber byte   // 4 bits (3 when rumble steals bit 3)
	rumbleMotor   bool
	hasRumble     bool
}

func newMBC5(banks [][]byte, ramSize int, hasRumble bool, crc uint32, cb *host.Callbacks) *mbc5 {
	return &mbc5{mbcBase: newMBCBase(banks, ramSize, crc, cb), romBankNumber: 1, hasRumble: hasRumble}
}

func (m *mbc5) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romBank(0, addr)
	case addr < 0x8000:
		return m.romBank(int(m.romBankNumber), addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.ramRead(int(m.ramSelect())*8192 + int(addr-0xA000))
	default:
		return 0xFF
	}
}

func (m *mbc5) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.setRAMEnable(value)
	case addr < 0x3000:
		m.romBankNumber = (m.romBankNumber & 0x100) | uint16(value)
	case addr < 0x4000:
		if value&0x01 != 0 {
			m.romBankNumber |= 0x100
		} else {
			m.romBankNumber &^= 0x100
		}
	case addr < 0x6000:
		if m.hasRumble {
			m.rumbleMotor = value&0x08 != 0
		}
		m.ramBankNumber = value & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.ramWrite(int(m.ramSelect())*8192+int(addr-0xA000), value)
	}
}

// ramSelect masks the rumble motor bit out of the RAM bank number when the
// cartridge type carries a rumble motor (spec.md §4.2).
func (m *mbc5) ramSelect() byte {
	if m.hasRumble {
		return m.ramBankNumber & 0x07
	}
	return m.ramBankNumber & 0x0F
}

func (m *mbc5) Kind() Kind { return KindMBC5 }

func (m *mbc5) ExternalRAM() []byte              { return m.externalRAM() }
func (m *mbc5) SetExternalRAM(data []byte) error { return m.setExternalRAM(data) }

type mbc5State struct {
	RAMEnabled    bool
	ROMBankNumber uint16
	RAMBankNumber byte
}

func (m *mbc5) MBCState() []byte {
	var buf bytes.Buffer
	s := mbc5State{m.ramEnabled, m.romBankNumber, m.ramBankNumber}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (m *mbc5) SetMBCState(data []byte) error {
	var s mbc5State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return ErrSaveStateMBCBodyError
	}
	m.ramEnabled, m.romBankNumber, m.ramBankNumber = s.RAMEnabled, s.ROMBankNumber, s.RAMBankNumber
	return nil
}
