package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ErrHeaderRead, ErrUnknownCartridgeType, ErrUnknownROMSize and
// ErrUnknownRAMSize mirror the HeaderRead/UnknownCartridgeType/
// UnknownRomSize/UnknownRamSize error kinds spec.md §7 calls for: fatal to
// the load, never to the process.
var (
	ErrHeaderRead           = errors.New("cart: rom too small to contain header")
	ErrUnknownCartridgeType = errors.New("cart: unknown cartridge type byte")
	ErrUnknownROMSize       = errors.New("cart: unknown rom size code")
	ErrUnknownRAMSize       = errors.New("cart: unknown ram size code")
)

// Kind identifies the banking family a cartridge type maps to.
type Kind int

const (
	KindNone Kind = iota
	KindMBC1
	KindMBC3
	KindMBC5
)

// TypeInfo is the header-derived descriptor spec.md §3 names:
// {id, mbc kind, has_ram, has_battery, has_timer, has_rumble}.
type TypeInfo struct {
	ID          byte
	Kind        Kind
	HasRAM      bool
	HasBattery  bool
	HasTimer    bool
	HasRumble   bool
	Description string
}

// cartTypeTable maps the 0x0147 header byte to its banking family. Entries
// outside this table fail header parsing (spec.md §4.2, ErrUnknownCartridgeType).
// Grounded on original_source/src/cartridge.cpp's CART_TYPEINFOS table; MBC2
// and MMM01/MBC4 entries are intentionally absent — spec.md §1 scopes the
// supported MBC family down to {none, MBC1, MBC3+RTC, MBC5}.
var cartTypeTable = map[byte]TypeInfo{
	0x00: {0x00, KindNone, false, false, false, false, "ROM ONLY"},
	0x08: {0x08, KindNone, true, false, false, false, "ROM+RAM"},
	0x09: {0x09, KindNone, true, true, false, false, "ROM+RAM+BATTERY"},
	0x01: {0x01, KindMBC1, false, false, false, false, "MBC1"},
	0x02: {0x02, KindMBC1, true, false, false, false, "MBC1+RAM"},
	0x03: {0x03, KindMBC1, true, true, false, false, "MBC1+RAM+BATTERY"},
	0x0F: {0x0F, KindMBC3, false, true, true, false, "MBC3+TIMER+BATTERY"},
	0x10: {0x10, KindMBC3, true, true, true, false, "MBC3+TIMER+RAM+BATTERY"},
	0x11: {0x11, KindMBC3, false, false, false, false, "MBC3"},
	0x12: {0x12, KindMBC3, true, false, false, false, "MBC3+RAM"},
	0x13: {0x13, KindMBC3, true, true, false, false, "MBC3+RAM+BATTERY"},
	0x19: {0x19, KindMBC5, false, false, false, false, "MBC5"},
	0x1A: {0x1A, KindMBC5, true, false, false, false, "MBC5+RAM"},
	0x1B: {0x1B, KindMBC5, true, true, false, false, "MBC5+RAM+BATTERY"},
	0x1C: {0x1C, KindMBC5, false, false, false, true, "MBC5+RUMBLE"},
	0x1D: {0x1D, KindMBC5, true, false, false, true, "MBC5+RUMBLE+RAM"},
	0x1E: {0x1E, KindMBC5, true, true, false, true, "MBC5+RUMBLE+RAM+BATTERY"},
}

// romBankTable maps the 0x0148 header byte to a bank count (spec.md §4.2).
var romBankTable = map[byte]int{
	0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16, 0x04: 32,
	0x05: 64, 0x06: 128, 0x07: 256,
	0x52: 72, 0x53: 80, 0x54: 96,
}

// ramSizeTable maps the 0x0149 header byte to a byte count (spec.md §4.2).
// Note this follows spec.md/original_source's ordering exactly — 0x04/0x05
// are swapped relative to the real hardware's Pan Docs table, but both
// spec.md and original_source/src/cartridge.cpp's CART_EXTERNAL_RAM_SIZES
// agree on {0, 2048, 8192, 32768, 65536, 131072}, so that is what is used.
var ramSizeTable = map[byte]int{
	0x00: 0, 0x01: 2048, 0x02: 8192, 0x03: 32768, 0x04: 65536, 0x05: 131072,
}

// Header is the parsed set of the 80 bytes at ROM offset 0x0100.
type Header struct {
	Title          string
	CGBFlag        byte
	NewLicensee    string
	SGBFlag        byte
	CartType       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Destination    byte
	OldLicensee    byte
	ROMVersion     byte
	HeaderChecksum byte
	GlobalChecksum uint16

	TypeInfo TypeInfo
	ROMBanks int
	RAMBytes int
}

// ParseHeader reads the 80-byte header at 0x0100 and decodes the cartridge
// type/ROM-size/RAM-size fields per spec.md §4.2. Unknown type/rom/ram codes
// are reported as typed errors; the caller decides whether that is fatal.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, ErrHeaderRead
	}

	rawTitle := rom[0x0134:0x0144]
	title := strings.TrimRight(string(rawTitle), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	ti, ok := cartTypeTable[h.CartType]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCartridgeType, h.CartType)
	}
	h.TypeInfo = ti

	banks, ok := romBankTable[h.ROMSizeCode]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownROMSize, h.ROMSizeCode)
	}
	h.ROMBanks = banks

	ramBytes, ok := ramSizeTable[h.RAMSizeCode]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownRAMSize, h.RAMSizeCode)
	}
	if ramBytes > 0 && !ti.HasRAM {
		return nil, fmt.Errorf("%w: ram_size=0x%02X but cart type has no ram", ErrUnknownRAMSize, h.RAMSizeCode)
	}
	h.RAMBytes = ramBytes

	return h, nil
}

// HeaderChecksumOK reports whether the header checksum (0x014D) matches
// bytes 0x0134–0x014C. Kept for host-side diagnostics only; original_source
// never gates loading on it and neither does this module (see SPEC_FULL.md §7).
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

// NintendoLogoOK reports whether the boot logo at 0x0104 matches the
// reference bytes. Informative only; parsing never fails on a mismatch
// (some homebrew/test ROMs omit it).
func NintendoLogoOK(rom []byte) bool {
	if len(rom) < 0x0104+48 {
		return false
	}
	for i := 0; i < 48; i++ {
		if rom[0x0104+i] != nintendoLogo[i] {
			return false
		}
	}
	return true
}

// RescueBankCount recomputes the bank count from the actual file size when
// the file is larger than the header declares (spec.md §4.2: "trust the
// file size" for overdumped images). Only applies to banked MBCs.
func RescueBankCount(kind Kind, declaredBanks int, fileSize int) int {
	if kind == KindNone {
		return declaredBanks
	}
	if fileSize > declaredBanks*16*1024 {
		return fileSize / (16 * 1024)
	}
	return declaredBanks
}
