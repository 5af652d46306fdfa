// Package cpu stands in for the SM83 core this module does not implement
// (spec.md §1 scopes CPU decode out). It exists only so Machine.StepFrame
// has something to call in a loop, matching the "CPU advances cycles; the
// PPU's tick runs that many times per CPU step" scheduling model spec.md §5
// describes for the PPU's own operation.
package cpu

// Stepper is the minimal contract Machine needs from a CPU: advance one
// instruction's worth of work and report how many dot-clock cycles that
// took, so the caller knows how many times to tick the PPU.
type Stepper interface {
	Step() (cycles int, err error)
}

// FreeRunner is a Stepper that does no instruction decode at all. It reports
// a fixed cycle count per Step call, enough to drive the PPU's dot clock at
// the correct rate for headless PPU/cartridge exercising without a real CPU.
type FreeRunner struct {
	// CyclesPerStep is the dot count each Step reports. Four matches the
	// shortest real SM83 instruction and keeps StepFrame's cadence close
	// to what a real fetch-execute loop would produce.
	CyclesPerStep int
}

func NewFreeRunner() *FreeRunner {
	return &FreeRunner{CyclesPerStep: 4}
}

func (f *FreeRunner) Step() (int, error) {
	n := f.CyclesPerStep
	if n <= 0 {
		n = 4
	}
	return n, nil
}
