package cart

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// mbcTag identifies the concrete MBC implementation inside a save state,
// independent of Kind so a future controller variant under the same Kind
// doesn't silently load into the wrong one.
type mbcTag byte

const (
	tagNone mbcTag = iota
	tagMBC1
	tagMBC3
	tagMBC5
)

func tagFor(k Kind) mbcTag {
	switch k {
	case KindMBC1:
		return tagMBC1
	case KindMBC3:
		return tagMBC3
	case KindMBC5:
		return tagMBC5
	default:
		return tagNone
	}
}

// Save-state error kinds (spec.md §4.4): "Load fails on any mismatch of
// crc32, eram_size, or mbc_tag."
var (
	ErrSaveStateCRCMismatch      = errors.New("cart: save state crc32 does not match loaded rom")
	ErrSaveStateRAMSizeMismatch  = errors.New("cart: save state external ram size does not match cartridge")
	ErrSaveStateMBCMismatch      = errors.New("cart: save state mbc tag does not match cartridge controller")
	ErrSaveStateMBCBodyError     = errors.New("cart: save state mbc body is malformed")
	ErrSaveStateTrailerMismatch  = errors.New("cart: save state trailing sentinel does not match mbc tag")
	ErrSaveStateTruncated        = errors.New("cart: save state blob is truncated")
)

// SaveState serializes a cartridge into the framed blob spec.md §4.4
// describes: {crc32, eram_size, eram_bytes?, has_timer, rtc_fields?,
// mbc_tag, mbc_fields, ~mbc_tag}. Fields are little-endian fixed-width
// integers; mbc_fields is length-prefixed so the trailing sentinel can
// always be located.
func SaveState(c Cartridge) []byte {
	var buf bytes.Buffer

	var crcField [4]byte
	binary.LittleEndian.PutUint32(crcField[:], c.Checksum())
	buf.Write(crcField[:])

	eram := c.ExternalRAM()
	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], uint32(len(eram)))
	buf.Write(sizeField[:])
	buf.Write(eram)

	var rtcRecord []byte
	if rtcCart, ok := c.(RTCCartridge); ok {
		rtcRecord = rtcCart.RTCState()
	}
	if len(rtcRecord) > 0 {
		buf.WriteByte(1)
		buf.Write(rtcRecord)
	} else {
		buf.WriteByte(0)
	}

	tag := tagFor(c.Kind())
	buf.WriteByte(byte(tag))

	mbcFields := c.MBCState()
	var mbcLenField [4]byte
	binary.LittleEndian.PutUint32(mbcLenField[:], uint32(len(mbcFields)))
	buf.Write(mbcLenField[:])
	buf.Write(mbcFields)

	buf.WriteByte(^byte(tag))

	return buf.Bytes()
}

// LoadState validates and applies a blob produced by SaveState into c,
// rejecting any crc32/eram_size/mbc_tag mismatch per spec.md §4.4.
func LoadState(c Cartridge, data []byte) error {
	r := bytes.NewReader(data)

	var crcField [4]byte
	if _, err := readFull(r, crcField[:]); err != nil {
		return err
	}
	if binary.LittleEndian.Uint32(crcField[:]) != c.Checksum() {
		return ErrSaveStateCRCMismatch
	}

	var sizeField [4]byte
	if _, err := readFull(r, sizeField[:]); err != nil {
		return err
	}
	eramSize := int(binary.LittleEndian.Uint32(sizeField[:]))
	if eramSize != len(c.ExternalRAM()) {
		return ErrSaveStateRAMSizeMismatch
	}
	eram := make([]byte, eramSize)
	if _, err := readFull(r, eram); err != nil {
		return err
	}
	if eramSize > 0 {
		if err := c.SetExternalRAM(eram); err != nil {
			return err
		}
	}

	hasTimerByte, err := r.ReadByte()
	if err != nil {
		return ErrSaveStateTruncated
	}
	rtcCart, wantsTimer := c.(RTCCartridge)
	if hasTimerByte != 0 {
		var rec [rtcRecordSize]byte
		if _, err := readFull(r, rec[:]); err != nil {
			return err
		}
		if wantsTimer {
			if err := rtcCart.SetRTCState(rec[:]); err != nil {
				return err
			}
		}
	}

	tagByte, err := r.ReadByte()
	if err != nil {
		return ErrSaveStateTruncated
	}
	tag := mbcTag(tagByte)
	if tag != tagFor(c.Kind()) {
		return ErrSaveStateMBCMismatch
	}

	var mbcLenField [4]byte
	if _, err := readFull(r, mbcLenField[:]); err != nil {
		return err
	}
	mbcLen := int(binary.LittleEndian.Uint32(mbcLenField[:]))
	mbcFields := make([]byte, mbcLen)
	if _, err := readFull(r, mbcFields); err != nil {
		return err
	}
	if err := c.SetMBCState(mbcFields); err != nil {
		return err
	}

	sentinel, err := r.ReadByte()
	if err != nil {
		return ErrSaveStateTruncated
	}
	if sentinel != ^tagByte {
		return ErrSaveStateTrailerMismatch
	}

	return nil
}

func readFull(r *bytes.Reader, out []byte) (int, error) {
	n, err := r.Read(out)
	if err != nil || n != len(out) {
		return n, ErrSaveStateTruncated
	}
	return n, nil
}
