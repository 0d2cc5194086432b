package probe

import (
	"fmt"
	"strings"
	"time"
)

// Address is a 7-bit bus address.
type Address uint8

// Address range.
const (
	MinAddress   Address = 0x00
	MaxAddress   Address = 0x7f
	AddressCount         = int(MaxAddress) + 1
)

// Probe timeouts.
const (
	// DefaultTimeout bounds a single-address check (100000us).
	DefaultTimeout = 100 * time.Millisecond
	// SweepTimeout bounds each address during a full bus sweep (10000us).
	SweepTimeout = 10 * time.Millisecond
)

// IsValid indicates the address fits in 7 bits.
func (a Address) IsValid() bool {
	return a <= MaxAddress
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// Transport is the bus controller used to reach peripherals.
type Transport interface {
	// WriteTimeout writes p to the peripheral at addr and blocks until the
	// transaction completes or timeout elapses. It returns the number of
	// bytes written. A negative count with a nil error is treated as a
	// platform result code (see FromCode).
	WriteTimeout(addr Address, p []byte, timeout time.Duration) (int, error)
}

// TransportFunc is the func form of Transport.
type TransportFunc func(addr Address, p []byte, timeout time.Duration) (int, error)

// WriteTimeout implements Transport.
func (f TransportFunc) WriteTimeout(addr Address, p []byte, timeout time.Duration) (int, error) {
	return f(addr, p, timeout)
}

// DeviceList is the ascending list of addresses found present in one sweep.
type DeviceList []Address

// Count returns the number of devices found.
func (l DeviceList) Count() int {
	return len(l)
}

// Contains reports whether addr is in the list.
func (l DeviceList) Contains(addr Address) bool {
	for _, a := range l {
		if a == addr {
			return true
		}
		if a > addr {
			break
		}
	}
	return false
}

// String implements fmt.Stringer.
func (l DeviceList) String() string {
	items := make([]string, len(l))
	for n, a := range l {
		items[n] = a.String()
	}
	return "[" + strings.Join(items, " ") + "]"
}

// Diff compares l against a previous list. Both must be ascending.
func (l DeviceList) Diff(prev DeviceList) (added, removed DeviceList) {
	i, j := 0, 0
	for i < len(l) && j < len(prev) {
		switch {
		case l[i] == prev[j]:
			i++
			j++
		case l[i] < prev[j]:
			added = append(added, l[i])
			i++
		default:
			removed = append(removed, prev[j])
			j++
		}
	}
	added = append(added, l[i:]...)
	removed = append(removed, prev[j:]...)
	return
}
