// Package monitor sweeps a bus periodically and reports device changes.
package monitor

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/i2cscan/pkg/probe"
	"github.com/robotalks/i2cscan/pkg/report"
)

// DefaultInterval is used when Interval is not set.
const DefaultInterval = 5 * time.Second

// Publisher receives reports when devices change.
type Publisher interface {
	Publish(context.Context, *report.Report) error
}

// Monitor is a framework.Runnable sweeping Scanner every Interval.
type Monitor struct {
	Scanner   *probe.Scanner
	Bus       string
	Host      string
	Interval  time.Duration
	Publisher Publisher

	last    probe.DeviceList
	scanned bool
	// pending is set while the latest devices are not published yet.
	pending bool
}

// Name implements framework.Named.
func (m *Monitor) Name() string {
	return "monitor " + m.Host + "/" + m.Bus
}

// Run implements framework.Runnable. Sweeps run on the calling goroutine
// so they never overlap.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m.Tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one sweep and returns the devices found and whether they
// differ from the previous sweep. A failed publish is retried on every
// Tick until it succeeds.
func (m *Monitor) Tick(ctx context.Context) (probe.DeviceList, bool) {
	devices := m.Scanner.Scan()
	changed := !m.scanned
	if m.scanned {
		added, removed := devices.Diff(m.last)
		for _, addr := range added {
			glog.Infof("%s: device %s appeared", m.Bus, addr)
		}
		for _, addr := range removed {
			glog.Infof("%s: device %s disappeared", m.Bus, addr)
		}
		changed = len(added) > 0 || len(removed) > 0
	} else {
		glog.Infof("%s: %d devices %s", m.Bus, devices.Count(), devices)
	}
	m.scanned = true
	m.last = devices

	if changed {
		m.pending = true
	}
	if m.pending && m.Publisher != nil {
		r := report.New(m.Host, m.Bus, devices)
		if err := m.Publisher.Publish(ctx, r); err != nil {
			glog.Warningf("publish %s error: %v", r.Name(), err)
		} else {
			m.pending = false
		}
	}
	return devices, changed
}
