package cart

import "github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/host"

const romBankSize = 16 * 1024

// mbcBase holds the state and behaviour every banked MBC (MBC1/MBC3/MBC5)
// shares: the ROM bank slices, the external RAM buffer, the RAM-enable
// latch, the dirty flag, and the lazy battery flush on the enable→disable
// edge. Grounded on CPunch-goboy's pkg/cart.BaseMBC, which factors the same
// Rom/Ram/RamEnabled fields out of its MBC1/MBC3/MBC5 types; generalized
// here with the flush-on-disable behaviour spec.md §4.2 requires for every
// MBC ("On transition true→false, flush RAM if external_ram_modified").
type mbcBase struct {
	rom [][]byte // ordered 16 KiB banks (read-only after load)
	ram []byte   // external_ram: contiguous byte buffer, may be nil
	crc uint32   // crc32 of the full rom image, for the save-state crc gate

	cb         *host.Callbacks
	ramEnabled bool
	dirty      bool // external_ram_modified
}

func newMBCBase(banks [][]byte, ramSize int, crc uint32, cb *host.Callbacks) mbcBase {
	b := mbcBase{rom: banks, crc: crc, cb: cb}
	if ramSize > 0 {
		b.ram = make([]byte, ramSize)
		if !cb.LoadRAM(b.ram) {
			for i := range b.ram {
				b.ram[i] = 0
			}
		}
	}
	return b
}

// romBank clamps bank to the valid range and returns its byte at offset
// (0..0x3FFF). Clamping implements spec.md §3's invariant
// "active_rom_bank < rom_banks.count at all times".
func (b *mbcBase) romBank(bank int, offset uint16) byte {
	if len(b.rom) == 0 {
		return 0xFF
	}
	if bank < 0 {
		bank = 0
	}
	if bank >= len(b.rom) {
		bank = len(b.rom) - 1
	}
	data := b.rom[bank]
	if int(offset) >= len(data) {
		return 0xFF
	}
	return data[offset]
}

// setRAMEnable implements the "write 0x0A to low nibble enables" rule common
// to every MBC (spec.md §4.2), flushing the battery on a true→false edge.
func (b *mbcBase) setRAMEnable(value byte) {
	was := b.ramEnabled
	b.ramEnabled = (value & 0x0F) == 0x0A
	if was && !b.ramEnabled {
		b.flushIfDirty()
	}
}

func (b *mbcBase) flushIfDirty() {
	if b.dirty {
		b.cb.SaveRAM(b.ram)
		b.dirty = false
	}
}

// FlushBattery forces a save of external RAM if it has been modified since
// the last flush. Exposed so the host can do one final save at shutdown
// (spec.md §3 lifecycle: "destroyed at shutdown after one final save when dirty").
func (b *mbcBase) FlushBattery() { b.flushIfDirty() }

// ramRead/ramWrite implement "reject when RAM-enable latch is false (reads
// return 0x00, writes ignored)" and silent out-of-range rejection (spec.md §4.2).
func (b *mbcBase) ramRead(offset int) byte {
	if !b.ramEnabled || offset < 0 || offset >= len(b.ram) {
		return 0x00
	}
	return b.ram[offset]
}

func (b *mbcBase) ramWrite(offset int, value byte) {
	if !b.ramEnabled || offset < 0 || offset >= len(b.ram) {
		return
	}
	if b.ram[offset] != value {
		b.dirty = true
	}
	b.ram[offset] = value
}

func (b *mbcBase) externalRAM() []byte { return b.ram }

// Checksum returns the crc32 of the rom image this cartridge was built
// from, used as the save-state compatibility gate (spec.md §4.4).
func (b *mbcBase) Checksum() uint32 { return b.crc }

func (b *mbcBase) setExternalRAM(data []byte) error {
	if len(data) != len(b.ram) {
		return ErrSaveStateRAMSizeMismatch
	}
	copy(b.ram, data)
	return nil
}
