// Package cart implements the cartridge memory controller family spec.md
// §4.2 describes: header parsing, ROM/RAM banking for {None, MBC1, MBC3+RTC,
// MBC5}, and framed save states. The Bus is the only intended caller.
package cart

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"
)

// Cartridge is the interface the Bus needs for ROM/RAM banking plus the
// save-state and battery-flush hooks spec.md §3/§4.4 require. One concrete
// type implements it per Kind (None/MBC1/MBC3/MBC5) — a small dispatch on a
// handful of known types, same shape as the tagged-variant design spec.md
// §9 suggests, expressed the idiomatic Go way: a narrow interface over
// concrete receiver types rather than a manual tag switch.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
	Write(addr uint16, value byte)

	Kind() Kind
	// Checksum returns the crc32 of the rom image, used to gate save-state loads.
	Checksum() uint32
	// FlushBattery saves external RAM if it has unsaved writes. Called by
	// the host at shutdown (spec.md §3); the same RAM flush also runs
	// internally on every RAM-enable falling edge.
	FlushBattery()

	// ExternalRAM returns the live external RAM buffer (nil if the
	// cartridge has none). SetExternalRAM overwrites it in place; it fails
	// if the length doesn't match (used by save-state loading).
	ExternalRAM() []byte
	SetExternalRAM(data []byte) error

	// MBCState/SetMBCState (de)serialize the banking control registers
	// only (not ROM, not RAM) for save states.
	MBCState() []byte
	SetMBCState(data []byte) error
}

// RTCCartridge is implemented additionally by MBC3 cartridges with a timer.
type RTCCartridge interface {
	Cartridge
	RTCState() []byte
	SetRTCState(data []byte) error
}

// NewCartridge parses the header, allocates ROM banks, and dispatches to the
// matching MBC implementation. rom is the full, unmodified file image.
func NewCartridge(rom []byte, cb *host.Callbacks) (Cartridge, *Header, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, err
	}

	banks := h.ROMBanks
	banks = RescueBankCount(h.TypeInfo.Kind, banks, len(rom))
	romBanks, err := splitBanks(rom, banks)
	if err != nil {
		return nil, nil, err
	}

	var crc uint32 = crc32.ChecksumIEEE(rom)

	switch h.TypeInfo.Kind {
	case KindNone:
		if len(romBanks) != 2 {
			return nil, nil, fmt.Errorf("cart: rom-only requires exactly 2 banks, got %d", len(romBanks))
		}
		return newNone(romBanks, h.RAMBytes, crc, cb), h, nil
	case KindMBC1:
		return newMBC1(romBanks, h.RAMBytes, crc, cb), h, nil
	case KindMBC3:
		return newMBC3(romBanks, h.RAMBytes, h.TypeInfo.HasTimer, crc, cb), h, nil
	case KindMBC5:
		return newMBC5(romBanks, h.RAMBytes, h.TypeInfo.HasRumble, crc, cb), h, nil
	default:
		return nil, nil, fmt.Errorf("%w: kind %d", ErrUnsupportedMBC, h.TypeInfo.Kind)
	}
}

// ErrUnsupportedMBC surfaces when a header decodes to a Kind this module
// doesn't implement (spec.md §7).
var ErrUnsupportedMBC = errors.New("cart: unsupported mbc kind")

// ErrBankReadShort surfaces when the ROM image is too short to populate
// every declared/rescued bank (spec.md §7).
var ErrBankReadShort = errors.New("cart: rom image shorter than declared bank count")

func splitBanks(rom []byte, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: bank count %d", ErrBankReadShort, count)
	}
	banks := make([][]byte, count)
	for i := 0; i < count; i++ {
		start := i * romBankSize
		end := start + romBankSize
		bank := make([]byte, romBankSize)
		if start < len(rom) {
			copy(bank, rom[start:min(end, len(rom))])
		}
		banks[i] = bank
	}
	return banks, nil
}
