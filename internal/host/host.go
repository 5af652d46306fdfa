// Package host defines the capability set the core depends on for I/O,
// per spec.md §6/§9: presenting a finished frame and persisting battery RAM
// and the MBC3 real-time clock. The core never talks to a filesystem or
// window directly — only through this small callback table, supplied by
// reference by whatever process is hosting the emulator. The RTC's
// wall-clock read is the one exception: internal/cart reads time.Now itself.
package host

// Callbacks is the capability set spec.md §9 calls "host I/O modelled as a
// small set of required operations". Any field may be left nil; the cart
// and machine packages treat a nil callback as a no-op rather than panicking.
type Callbacks struct {
	// PresentFrame is invoked once per completed frame (on the VBLANK
	// transition) with the 160×144×4 BGRA framebuffer and its stride in
	// bytes (always 160*4 for this core, but passed explicitly per the
	// spec's present_frame(buf, stride_bytes) contract).
	PresentFrame func(buf []byte, strideBytes uint32)

	// LoadCartRAM fills out with the persisted battery RAM image and
	// reports whether a save existed. A false return leaves out untouched;
	// the cartridge initializes RAM to zero in that case (spec.md §7,
	// BatteryLoadFailure is non-fatal).
	LoadCartRAM func(out []byte) bool
	// SaveCartRAM persists the battery RAM image. Called synchronously on
	// the emulation thread (spec.md §5) — may block, but must be bounded
	// by the host.
	SaveCartRAM func(in []byte)

	// LoadCartRTC/SaveCartRTC persist the 16-byte RTC record (spec.md §4.3).
	LoadCartRTC func(out []byte) bool
	SaveCartRTC func(in []byte)
}

// PresentFrameSafe is a nil-safe convenience wrapper so callers don't need to
// nil-check a *Callbacks before every present.
func (c *Callbacks) PresentFrameSafe(buf []byte, strideBytes uint32) {
	if c != nil && c.PresentFrame != nil {
		c.PresentFrame(buf, strideBytes)
	}
}

// LoadRAM is a nil-safe convenience wrapper.
func (c *Callbacks) LoadRAM(out []byte) bool {
	if c != nil && c.LoadCartRAM != nil {
		return c.LoadCartRAM(out)
	}
	return false
}

// SaveRAM is a nil-safe convenience wrapper.
func (c *Callbacks) SaveRAM(in []byte) {
	if c != nil && c.SaveCartRAM != nil {
		c.SaveCartRAM(in)
	}
}

// LoadRTC is a nil-safe convenience wrapper.
func (c *Callbacks) LoadRTC(out []byte) bool {
	if c != nil && c.LoadCartRTC != nil {
		return c.LoadCartRTC(out)
	}
	return false
}

// SaveRTC is a nil-safe convenience wrapper.
func (c *Callbacks) SaveRTC(in []byte) {
	if c != nil && c.SaveCartRTC != nil {
		c.SaveCartRTC(in)
	}
}
