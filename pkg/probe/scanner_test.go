package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func allAddresses() DeviceList {
	l := make(DeviceList, AddressCount)
	for n := range l {
		l[n] = Address(n)
	}
	return l
}

func TestScanBus(t *testing.T) {
	testCases := []struct {
		name    string
		present []Address
		expect  DeviceList
	}{
		{"display and rtc", []Address{0x68, 0x3c}, DeviceList{0x3c, 0x68}},
		{"nothing", nil, nil},
		{"everything", allAddresses(), allAddresses()},
		{"reserved included", []Address{0x00, 0x7f}, DeviceList{0x00, 0x7f}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bus := newFakeBus(tc.present...)
			devices := ScanBus(bus)
			require.Equal(t, tc.expect, devices)
			require.Equal(t, len(tc.expect), devices.Count())

			require.Len(t, bus.calls, AddressCount)
			for n, c := range bus.calls {
				require.Equal(t, Address(n), c.addr)
				require.Equal(t, SweepTimeout, c.timeout)
				require.Equal(t, []byte{0}, c.payload)
			}
		})
	}
}

func TestScanBusContinuesOnErrors(t *testing.T) {
	bus := newFakeBus(0x10, 0x50)
	bus.fail[0x11] = errors.New("arbitration lost")
	bus.fail[0x12] = ErrTimeout
	bus.code[0x13] = CodeGeneric
	require.Equal(t, DeviceList{0x10, 0x50}, ScanBus(bus))
	require.Len(t, bus.calls, AddressCount)
}

func TestScannerAscendingUnique(t *testing.T) {
	bus := newFakeBus(0x77, 0x01, 0x48, 0x49, 0x20)
	devices := ScanBus(bus)
	for n := 1; n < len(devices); n++ {
		require.True(t, devices[n-1] < devices[n])
	}
	for _, a := range devices {
		require.True(t, a.IsValid())
	}
}

func TestScannerSkipReserved(t *testing.T) {
	bus := newFakeBus(0x00, 0x3c, 0x78)
	s := &Scanner{Transport: bus, SkipReserved: true}
	require.Equal(t, DeviceList{0x3c}, s.Scan())
	require.Len(t, bus.calls, AddressCount-16)
	for _, c := range bus.calls {
		require.False(t, IsReserved(c.addr))
	}
}

func TestScannerDetailed(t *testing.T) {
	bus := newFakeBus(0x3c)
	bus.fail[0x40] = ErrTimeout
	var observed []Result
	s := &Scanner{
		Transport: bus,
		Timeout:   SweepTimeout * 2,
		Observer:  ObserverFunc(func(r Result) { observed = append(observed, r) }),
	}
	results := s.ScanDetailed()
	require.Len(t, results, AddressCount)
	require.Equal(t, results, observed)
	require.Equal(t, StatusAck, results[0x3c].Status)
	require.True(t, results[0x3c].Present())
	require.Equal(t, StatusTimeout, results[0x40].Status)
	require.Equal(t, StatusNack, results[0x41].Status)
	require.Equal(t, SweepTimeout*2, bus.calls[0].timeout)
}

func TestDeviceList(t *testing.T) {
	l := DeviceList{0x3c, 0x68}
	require.True(t, l.Contains(0x3c))
	require.False(t, l.Contains(0x40))
	require.Equal(t, "[0x3c 0x68]", l.String())
	require.Equal(t, "[]", DeviceList(nil).String())

	added, removed := DeviceList{0x10, 0x3c, 0x77}.Diff(DeviceList{0x3c, 0x68})
	require.Equal(t, DeviceList{0x10, 0x77}, added)
	require.Equal(t, DeviceList{0x68}, removed)

	added, removed = l.Diff(l)
	require.Empty(t, added)
	require.Empty(t, removed)
}
