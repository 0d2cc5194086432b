package periph

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/i2cscan/pkg/probe"
)

type fakeBus struct {
	lock    sync.Mutex
	present map[uint16]bool
	txErr   error
	delay   time.Duration
	speed   physic.Frequency
	addrs   []uint16
}

func (b *fakeBus) String() string { return "fake" }

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.lock.Lock()
	b.addrs = append(b.addrs, addr)
	delay := b.delay
	b.lock.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if b.txErr != nil {
		return b.txErr
	}
	if b.present[addr] {
		return nil
	}
	return fmt.Errorf("sysfs-i2c: %v", syscall.ENXIO)
}

func (b *fakeBus) issued() []uint16 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]uint16(nil), b.addrs...)
}

func (b *fakeBus) SetSpeed(f physic.Frequency) error {
	b.speed = f
	return nil
}

func TestScanRecordedBus(t *testing.T) {
	rec := &i2ctest.Record{}
	tr := New(rec)
	devices := probe.ScanBus(tr)
	require.Len(t, devices, probe.AddressCount)
	require.Len(t, rec.Ops, probe.AddressCount)
	for n, op := range rec.Ops {
		require.Equal(t, uint16(n), op.Addr)
		require.Equal(t, []byte{0}, op.W)
		require.Empty(t, op.R)
	}
	require.NoError(t, tr.Close())
}

func TestScanFakeBus(t *testing.T) {
	bus := &fakeBus{present: map[uint16]bool{0x3c: true, 0x68: true}}
	tr := New(bus)
	require.Equal(t, probe.DeviceList{0x3c, 0x68}, probe.ScanBus(tr))
	require.Len(t, bus.addrs, probe.AddressCount)
	require.Equal(t, "fake", tr.String())
}

func TestWriteTimeoutErrors(t *testing.T) {
	testCases := []struct {
		name   string
		bus    *fakeBus
		expect probe.Status
	}{
		{"nack", &fakeBus{}, probe.StatusNack},
		{"remote io", &fakeBus{txErr: fmt.Errorf("sysfs-i2c: %v", syscall.EIO)}, probe.StatusNack},
		{"errno timeout", &fakeBus{txErr: syscall.ETIMEDOUT}, probe.StatusTimeout},
		{"stalled", &fakeBus{present: map[uint16]bool{0x10: true}, delay: 50 * time.Millisecond}, probe.StatusTimeout},
		{"other", &fakeBus{txErr: errors.New("arbitration lost")}, probe.StatusError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := probe.Probe(New(tc.bus), 0x10, 5*time.Millisecond)
			require.Equal(t, tc.expect, status)
		})
	}
}

func TestTimedOutWriteNotIssuedLater(t *testing.T) {
	bus := &fakeBus{present: map[uint16]bool{0x10: true, 0x11: true}, delay: 100 * time.Millisecond}
	tr := New(bus)
	status, _ := probe.Probe(tr, 0x10, 5*time.Millisecond)
	require.Equal(t, probe.StatusTimeout, status)
	status, _ = probe.Probe(tr, 0x11, 5*time.Millisecond)
	require.Equal(t, probe.StatusTimeout, status)

	// let the stalled transaction finish and release the bus.
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, []uint16{0x10}, bus.issued())

	bus.lock.Lock()
	bus.delay = 0
	bus.lock.Unlock()
	status, _ = probe.Probe(tr, 0x11, 5*time.Millisecond)
	require.Equal(t, probe.StatusAck, status)
	require.Equal(t, []uint16{0x10, 0x11}, bus.issued())
}

func TestWriteTimeoutInvalidAddress(t *testing.T) {
	bus := &fakeBus{}
	_, err := New(bus).WriteTimeout(0x80, []byte{0}, time.Millisecond)
	require.Equal(t, probe.ErrInvalidAddress, err)
	require.Empty(t, bus.addrs)
}

func TestSetSpeed(t *testing.T) {
	bus := &fakeBus{}
	require.NoError(t, New(bus).SetSpeed(400000))
	require.Equal(t, 400*physic.KiloHertz, bus.speed)
}
