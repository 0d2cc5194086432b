// Package report describes the outcome of a bus sweep for display and
// for publishing.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/robotalks/i2cscan/pkg/probe"
)

// Report is the result of one sweep on one bus.
type Report struct {
	Host    string
	Bus     string
	Time    time.Time
	Devices probe.DeviceList
}

// New creates a Report stamped with the current time.
func New(host, bus string, devices probe.DeviceList) *Report {
	return &Report{
		Host:    host,
		Bus:     bus,
		Time:    time.Now().UTC().Truncate(time.Second),
		Devices: devices,
	}
}

// Name identifies the bus across hosts.
func (r *Report) Name() string {
	return r.Host + "/" + r.Bus
}

// String implements fmt.Stringer.
func (r *Report) String() string {
	return fmt.Sprintf("%s: %d devices %s", r.Name(), r.Devices.Count(), r.Devices)
}

// Sort orders reports by host then bus.
func Sort(reports []*Report) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Host != reports[j].Host {
			return reports[i].Host < reports[j].Host
		}
		return reports[i].Bus < reports[j].Bus
	})
}

func validDevices(addrs []float64) (probe.DeviceList, error) {
	var devices probe.DeviceList
	for _, v := range addrs {
		a := probe.Address(v)
		if v < 0 || float64(a) != v || !a.IsValid() {
			return nil, fmt.Errorf("invalid device address %v", v)
		}
		if n := len(devices); n > 0 && devices[n-1] >= a {
			return nil, fmt.Errorf("device addresses not ascending at %s", a)
		}
		devices = append(devices, a)
	}
	return devices, nil
}
