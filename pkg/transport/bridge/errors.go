package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates no reply received from the firmware.
	// This happens when a reply is received for a later request, and all
	// earlier requests fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrTimeout indicates the reply didn't arrive in time.
	ErrTimeout = errors.New("reply timeout")
	// ErrClosed indicates the link is closed.
	ErrClosed = errors.New("link closed")
	// ErrFrameTooLarge indicates a frame exceeds MaxDataLen.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrShortReply indicates a reply without the expected data.
	ErrShortReply = errors.New("short reply")
)

// RequestError wraps the error code the firmware replied with.
type RequestError struct {
	Code byte
}

// Error implements error.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request error %d", e.Code)
}
