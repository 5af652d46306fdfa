package cart

import (
	"bytes"
	"encoding/gob"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

// mbc3 implements the MBC3 controller (spec.md §4.2/§4.3): a 7-bit ROM
// selector (0 remapped to 1, no other forbidden banks), a 4-bit secondary
// register that selects either a RAM bank (0x00-0x03) or one of the five RTC
// registers (0x08-0x0C), and the 0x6000-0x7FFF latch-edge trigger. Only
// cartridge types with has_timer (spec.md §4.2's "MBC3+RTC") carry an RTC;
// plain MBC3/MBC3+RAM omit it, matching original_source's MBC_MBC3_* split
// on cartridge_info.has_timer.
type mbc3 struct {
	mbcBase

	ramBankOrRTCSel byte // 0x00-0x03 RAM bank, 0x08-0x0C RTC register select
	romBankNumber   byte // 7 bits, 0 -> 1

	hasTimer bool
	clock    *rtc
}

func newMBC3(banks [][]byte, ramSize int, hasTimer bool, crc uint32, cb *host.Callbacks) *mbc3 {
	m := &mbc3{mbcBase: newMBCBase(banks, ramSize, crc, cb), romBankNumber: 1, hasTimer: hasTimer}
	if hasTimer {
		m.clock = newRTC(nil)
		if cb != nil {
			var buf [rtcRecordSize]byte
			if cb.LoadRTC(buf[:]) {
				_ = m.clock.decode(buf[:])
			}
		}
	}
	return m
}

func (m *mbc3) romBank() int {
	bank := int(m.romBankNumber & 0x7F)
	if bank == 0 {
		bank = 1
	}
	return bank
}

func (m *mbc3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.mbcBase.romBank(0, addr)
	case addr < 0x8000:
		return m.mbcBase.romBank(m.romBank(), addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.hasTimer && m.ramBankOrRTCSel >= 0x08 && m.ramBankOrRTCSel <= 0x0C {
			if !m.ramEnabled {
				return 0x00
			}
			return m.clock.readLatched(m.ramBankOrRTCSel - 0x08)
		}
		return m.ramRead(int(m.ramBankOrRTCSel&0x03)*8192 + int(addr-0xA000))
	default:
		return 0xFF
	}
}

func (m *mbc3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.setRAMEnable(value)
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBankNumber = v
	case addr < 0x6000:
		m.ramBankOrRTCSel = value
	case addr < 0x8000:
		if m.hasTimer {
			m.clock.latchEdge(value)
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.hasTimer && m.ramBankOrRTCSel >= 0x08 && m.ramBankOrRTCSel <= 0x0C {
			if m.ramEnabled {
				m.clock.writeOffset(m.ramBankOrRTCSel, value)
			}
			return
		}
		m.ramWrite(int(m.ramBankOrRTCSel&0x03)*8192+int(addr-0xA000), value)
	}
}

func (m *mbc3) Kind() Kind { return KindMBC3 }

func (m *mbc3) ExternalRAM() []byte              { return m.externalRAM() }
func (m *mbc3) SetExternalRAM(data []byte) error { return m.setExternalRAM(data) }

// FlushBattery also persists the RTC record alongside external RAM, matching
// original_source's paired SaveCartridgeRAM/SaveCartridgeRTC calls on unload.
func (m *mbc3) FlushBattery() {
	m.mbcBase.FlushBattery()
	if m.hasTimer && m.cb != nil {
		m.cb.SaveRTC(m.clock.encode())
	}
}

func (m *mbc3) RTCState() []byte {
	if !m.hasTimer {
		return nil
	}
	return m.clock.encode()
}

func (m *mbc3) SetRTCState(data []byte) error {
	if !m.hasTimer {
		if len(data) != 0 {
			return ErrSaveStateMBCBodyError
		}
		return nil
	}
	return m.clock.decode(data)
}

type mbc3State struct {
	RAMEnabled      bool
	RAMBankOrRTCSel byte
	ROMBankNumber   byte
}

func (m *mbc3) MBCState() []byte {
	var buf bytes.Buffer
	s := mbc3State{m.ramEnabled, m.ramBankOrRTCSel, m.romBankNumber}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (m *mbc3) SetMBCState(data []byte) error {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return ErrSaveStateMBCBodyError
	}
	m.ramEnabled, m.ramBankOrRTCSel, m.romBankNumber = s.RAMEnabled, s.RAMBankOrRTCSel, s.ROMBankNumber
	return nil
}
