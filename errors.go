package nvd

import (
	"errors"
	"fmt"
)

// Driver status errors. Every entry point returns one of these (possibly
// wrapped with call-site detail) so callers can classify failures with
// errors.Is.
var (
	// ErrInvalidHandle is returned when a handle does not resolve to a live
	// driver object. Distinct from ErrOperationFailed so callers can tell a
	// stale id apart from a hardware failure.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrInvalidParameter is returned for null or malformed arguments.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedProfile is returned when no hardware codec or registered
	// codec descriptor exists for the requested profile.
	ErrUnsupportedProfile = errors.New("unsupported profile")

	// ErrUnsupportedEntrypoint is returned for entrypoints other than VLD.
	ErrUnsupportedEntrypoint = errors.New("unsupported entrypoint")

	// ErrUnsupportedRTFormat is returned by surface creation for a render
	// target format the driver cannot produce.
	ErrUnsupportedRTFormat = errors.New("unsupported render target format")

	// ErrUnsupportedMemoryType is returned by surface export for memory
	// types other than DRM PRIME 2.
	ErrUnsupportedMemoryType = errors.New("unsupported memory type")

	// ErrAllocationFailed indicates host or hardware resource exhaustion.
	ErrAllocationFailed = errors.New("allocation failed")

	// ErrOperationFailed is the generic hardware-call failure.
	ErrOperationFailed = errors.New("operation failed")

	// ErrMaxSurfacesExceeded is returned by BeginPicture when a context's
	// decode-surface pool is exhausted.
	ErrMaxSurfacesExceeded = errors.New("max surfaces exceeded")

	// ErrDecoding is reported when the hardware decoder rejects a submitted
	// picture. It is recorded on the surface rather than terminating the
	// context.
	ErrDecoding = errors.New("decoding error")

	// ErrHardwareBusy is returned by Open once the configured maximum
	// concurrent-instance count is reached.
	ErrHardwareBusy = errors.New("hardware busy")

	// ErrUnimplemented is returned by stub entry points.
	ErrUnimplemented = errors.New("unimplemented")
)

// opFailed wraps a hardware-call error with the operation name while keeping
// ErrOperationFailed matchable through errors.Is.
func opFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrOperationFailed, err)
}
