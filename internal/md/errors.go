package md

import "errors"

// Domain errors for force-dispatch setup and execution.
var (
	// ErrMissingCharge indicates the pair style requires a per-atom charge
	// attribute that the atom set does not carry.
	ErrMissingCharge = errors.New("md: pair style requires per-atom charge")

	// ErrNewtonPair indicates an incompatible global force-summation mode:
	// accelerated pair styles assume full neighbor lists and cannot be
	// combined with newton-pair summation across the partition.
	ErrNewtonPair = errors.New("md: cannot use newton pair with accelerated pair style")

	// ErrDeviceInit indicates the compute backend failed one-time setup
	// (insufficient memory or unsupported precision).
	ErrDeviceInit = errors.New("md: accelerator initialization failed")

	// ErrDeviceMemory indicates the backend reported resource exhaustion
	// during a compute call. Not retryable; the run must abort.
	ErrDeviceMemory = errors.New("md: insufficient memory on accelerator")

	// ErrNotSetup indicates a compute call before Setup completed.
	ErrNotSetup = errors.New("md: pair style used before setup")

	// ErrBadTypePair indicates coefficients referenced an atom type
	// outside [1, ntypes].
	ErrBadTypePair = errors.New("md: atom type out of range")
)

// DeviceError wraps a backend failure with call context.
type DeviceError struct {
	Backend string
	Op      string
	Wrapped error
}

func (e *DeviceError) Error() string {
	return e.Backend + " " + e.Op + ": " + e.Wrapped.Error()
}

func (e *DeviceError) Unwrap() error {
	return e.Wrapped
}
