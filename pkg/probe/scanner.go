package probe

import (
	"time"

	"github.com/golang/glog"
)

// Result is the outcome of probing one address.
type Result struct {
	Addr   Address
	Status Status
	Err    error
}

// Present indicates the address acknowledged.
func (r Result) Present() bool {
	return r.Status == StatusAck
}

// Observer is notified after each address is probed.
type Observer interface {
	Probed(Result)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(Result)

// Probed implements Observer.
func (f ObserverFunc) Probed(r Result) {
	f(r)
}

// Scanner sweeps all addresses on a bus, one at a time.
type Scanner struct {
	Transport Transport
	// Timeout bounds each address, SweepTimeout if zero.
	Timeout time.Duration
	// SkipReserved leaves reserved addresses unprobed.
	SkipReserved bool
	// Observer receives every probe result if set.
	Observer Observer
}

// ScanBus probes every address from 0x00 to 0x7f in ascending order with
// SweepTimeout and returns those which acknowledged.
func ScanBus(t Transport) DeviceList {
	return (&Scanner{Transport: t}).Scan()
}

// Scan runs one sweep and returns the present addresses.
func (s *Scanner) Scan() DeviceList {
	var devices DeviceList
	s.sweep(func(r Result) {
		if r.Present() {
			devices = append(devices, r.Addr)
		}
	})
	return devices
}

// ScanDetailed runs one sweep and returns the result of every probed address.
func (s *Scanner) ScanDetailed() []Result {
	results := make([]Result, 0, AddressCount)
	s.sweep(func(r Result) {
		results = append(results, r)
	})
	return results
}

func (s *Scanner) sweep(collect func(Result)) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = SweepTimeout
	}
	start := time.Now()
	var probed, present, failed int
	for a := int(MinAddress); a <= int(MaxAddress); a++ {
		addr := Address(a)
		if s.SkipReserved && IsReserved(addr) {
			continue
		}
		status, err := Probe(s.Transport, addr, timeout)
		r := Result{Addr: addr, Status: status, Err: err}
		probed++
		switch status {
		case StatusAck:
			present++
		case StatusError:
			failed++
			glog.Warningf("probe %s failed: %v", addr, err)
		}
		collect(r)
		if o := s.Observer; o != nil {
			o.Probed(r)
		}
	}
	glog.V(1).Infof("sweep done in %v: %d probed, %d present, %d errors",
		time.Since(start), probed, present, failed)
}
