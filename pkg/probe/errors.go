package probe

import (
	"errors"
	"fmt"
)

var (
	// ErrNack indicates no peripheral acknowledged the address.
	ErrNack = errors.New("no acknowledge")
	// ErrTimeout indicates the transaction did not complete in time.
	ErrTimeout = errors.New("bus timeout")
	// ErrInvalidAddress indicates the address does not fit in 7 bits.
	ErrInvalidAddress = errors.New("invalid address")
)

// Platform result codes reported by bus controllers which return a byte
// count on success and a negative code on failure.
const (
	CodeGeneric = -1
	CodeTimeout = -2
)

// CodeError wraps a negative result code from a bus controller.
type CodeError struct {
	Code int
}

// Error implements error.
func (e *CodeError) Error() string {
	switch e.Code {
	case CodeGeneric:
		return "bus error: no acknowledge"
	case CodeTimeout:
		return "bus error: timeout"
	}
	return fmt.Sprintf("bus error %d", e.Code)
}

// FromCode converts a platform result code into a byte count and error.
func FromCode(code int) (int, error) {
	if code >= 0 {
		return code, nil
	}
	return 0, &CodeError{Code: code}
}
