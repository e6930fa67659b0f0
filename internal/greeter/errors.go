package greeter

import "fmt"

// Error is a recoverable contract failure. Codes are stable and travel over
// the wire.
type Error uint32

const (
	ErrEmptyName          Error = 1
	ErrNameTooLong        Error = 2
	ErrUnauthorized       Error = 3
	ErrNotInitialized     Error = 4
	ErrAlreadyInitialized Error = 5
	ErrCounterOverflow    Error = 6
)

func (e Error) Error() string {
	switch e {
	case ErrEmptyName:
		return "greeter: empty name"
	case ErrNameTooLong:
		return "greeter: name too long"
	case ErrUnauthorized:
		return "greeter: unauthorized"
	case ErrNotInitialized:
		return "greeter: not initialized"
	case ErrAlreadyInitialized:
		return "greeter: already initialized"
	case ErrCounterOverflow:
		return "greeter: counter overflow"
	default:
		return fmt.Sprintf("greeter: error %d", uint32(e))
	}
}

// Code returns the numeric error code.
func (e Error) Code() uint32 { return uint32(e) }

// FromCode maps a code back to its Error. ok is false for unknown codes.
func FromCode(code uint32) (Error, bool) {
	e := Error(code)
	switch e {
	case ErrEmptyName, ErrNameTooLong, ErrUnauthorized, ErrNotInitialized,
		ErrAlreadyInitialized, ErrCounterOverflow:
		return e, true
	}
	return 0, false
}

// PanicAdminUnset is the value Admin panics with on an uninitialized contract.
const PanicAdminUnset = "greeter: admin not initialized"
