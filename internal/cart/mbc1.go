package cart

import (
	"bytes"
	"encoding/gob"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

// mbc1 implements the MBC1 controller (spec.md §4.2): a 5-bit ROM selector,
// a 2-bit secondary register shared between the RAM bank and the ROM
// selector's high bits depending on bank_mode, and the forbidden-bank
// remap (0x00/0x20/0x40/0x60 -> +1).
type mbc1 struct {
	mbcBase

	romBankNumber byte // 5 bits
	ramBankNumber byte // 2 bits
	bankMode      byte // 0: ROM banking, 1: RAM banking

	activeROMBank int
	activeRAMBank int
}

func newMBC1(banks [][]byte, ramSize int, crc uint32, cb *host.Callbacks) *mbc1 {
	m := &mbc1{mbcBase: newMBCBase(banks, ramSize, crc, cb), romBankNumber: 1}
	m.recompute()
	return m
}

func (m *mbc1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.bankMode == 1 {
			// mode 1 applies the high bits to the bank-0 window too.
			bank := int(m.ramBankNumber&0x03) << 5
			return m.romBank(bank, addr)
		}
		return m.romBank(0, addr)
	case addr < 0x8000:
		return m.romBank(m.activeROMBank, addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.ramRead(m.activeRAMBank*8192 + int(addr-0xA000))
	default:
		return 0xFF
	}
}

func (m *mbc1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.setRAMEnable(value)
	case addr < 0x4000:
		m.romBankNumber = value & 0x1F
		m.recompute()
	case addr < 0x6000:
		m.ramBankNumber = value & 0x03
		m.recompute()
	case addr < 0x8000:
		m.bankMode = value & 0x01
		m.recompute()
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.ramWrite(m.activeRAMBank*8192+int(addr-0xA000), value)
	}
}

// recompute applies the update rule from spec.md §4.2: combine the
// low-5/high-2 selector per bank_mode, then remap the forbidden banks
// (0x00, 0x20, 0x40, 0x60) up by one, then clamp to the available count.
func (m *mbc1) recompute() {
	if m.bankMode == 0 {
		m.activeRAMBank = 0
		m.activeROMBank = int(m.ramBankNumber)<<5 | int(m.romBankNumber&0x1F)
	} else {
		m.activeRAMBank = int(m.ramBankNumber & 0x03)
		m.activeROMBank = int(m.romBankNumber & 0x1F)
	}
	switch m.activeROMBank {
	case 0x00, 0x20, 0x40, 0x60:
		m.activeROMBank++
	}
	if n := len(m.rom); n > 0 && m.activeROMBank >= n {
		m.activeROMBank = n - 1
	}
}

func (m *mbc1) Kind() Kind { return KindMBC1 }

func (m *mbc1) ExternalRAM() []byte             { return m.externalRAM() }
func (m *mbc1) SetExternalRAM(data []byte) error { return m.setExternalRAM(data) }

type mbc1State struct {
	RAMEnabled    bool
	ROMBankNumber byte
	RAMBankNumber byte
	BankMode      byte
}

func (m *mbc1) MBCState() []byte {
	var buf bytes.Buffer
	s := mbc1State{m.ramEnabled, m.romBankNumber, m.ramBankNumber, m.bankMode}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (m *mbc1) SetMBCState(data []byte) error {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return ErrSaveStateMBCBodyError
	}
	m.ramEnabled, m.romBankNumber, m.ramBankNumber, m.bankMode = s.RAMEnabled, s.ROMBankNumber, s.RAMBankNumber, s.BankMode
	m.recompute()
	return nil
}
