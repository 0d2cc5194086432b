package probe

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang/glog"
)

// Status classifies the outcome of probing one address.
type Status int

// Probe outcomes.
const (
	StatusAck Status = iota
	StatusNack
	StatusTimeout
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusAck:
		return "ack"
	case StatusNack:
		return "nack"
	case StatusTimeout:
		return "timeout"
	}
	return "error"
}

var probePayload = []byte{0}

// Probe writes a single zero byte to addr and classifies the result.
// Exactly one transaction is attempted. A non-positive timeout means
// DefaultTimeout. The returned error is nil only for StatusAck.
func Probe(t Transport, addr Address, timeout time.Duration) (Status, error) {
	if !addr.IsValid() {
		return StatusError, ErrInvalidAddress
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	n, err := t.WriteTimeout(addr, probePayload, timeout)
	if err == nil && n < 0 {
		_, err = FromCode(n)
	}
	status := classify(err)
	if glog.V(3) {
		glog.Infof("probe %s: %s (%v)", addr, status, err)
	}
	return status, err
}

// IsDevicePresent checks addr using DefaultTimeout.
func IsDevicePresent(t Transport, addr Address) bool {
	return IsDevicePresentTimeout(t, addr, DefaultTimeout)
}

// IsDevicePresentTimeout checks whether a peripheral acknowledges addr.
// Timeouts, missing acknowledges and bus errors all report false.
func IsDevicePresentTimeout(t Transport, addr Address, timeout time.Duration) bool {
	status, _ := Probe(t, addr, timeout)
	return status == StatusAck
}

func classify(err error) Status {
	if err == nil {
		return StatusAck
	}
	var codeErr *CodeError
	switch {
	case errors.Is(err, ErrNack):
		return StatusNack
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return StatusTimeout
	case errors.As(err, &codeErr):
		switch codeErr.Code {
		case CodeGeneric:
			return StatusNack
		case CodeTimeout:
			return StatusTimeout
		}
	}
	return StatusError
}
