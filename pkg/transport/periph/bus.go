// Package periph reaches an I2C bus through periph.io, e.g. /dev/i2c-N
// on Linux hosts.
package periph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	fx "github.com/robotalks/i2cscan/pkg/framework"
	"github.com/robotalks/i2cscan/pkg/probe"
)

// Transport implements probe.Transport on a periph I2C bus.
type Transport struct {
	Bus i2c.Bus

	closer func() error
	txLock sync.Mutex
}

var (
	initOnce sync.Once
	initErr  error
)

// Open initializes the host drivers and opens the bus by name.
// An empty name opens the first bus found.
func Open(name string) (*Transport, error) {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("host init error: %v", initErr)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open bus %q error: %v", name, err)
	}
	t := New(bus)
	t.closer = bus.Close
	return t, nil
}

// New wraps an opened bus. The bus is not closed by Close.
func New(bus i2c.Bus) *Transport {
	return &Transport{Bus: bus}
}

// String implements fmt.Stringer.
func (t *Transport) String() string {
	return t.Bus.String()
}

// SetSpeed changes the bus clock.
func (t *Transport) SetSpeed(hz int64) error {
	t.txLock.Lock()
	defer t.txLock.Unlock()
	return t.Bus.SetSpeed(physic.Frequency(hz) * physic.Hertz)
}

// WriteTimeout implements probe.Transport.
// The kernel driver can't be interrupted, so a transaction exceeding the
// timeout is abandoned and holds the bus until it completes. The next
// transaction waits for it within its own timeout.
func (t *Transport) WriteTimeout(addr probe.Address, p []byte, timeout time.Duration) (int, error) {
	if !addr.IsValid() {
		return 0, probe.ErrInvalidAddress
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	w := append([]byte(nil), p...)
	err := fx.RunWithContext(ctx, func() error {
		t.txLock.Lock()
		defer t.txLock.Unlock()
		// the caller may have given up while a stalled transaction held the bus.
		if err := ctx.Err(); err != nil {
			return err
		}
		return t.Bus.Tx(uint16(addr), w, nil)
	})
	if err != nil {
		return 0, translateErr(err)
	}
	return len(p), nil
}

// Close closes the bus if it was opened by Open.
func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	t.txLock.Lock()
	defer t.txLock.Unlock()
	return t.closer()
}

func translateErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return probe.ErrTimeout
	}
	if errors.Is(err, syscall.ETIMEDOUT) {
		return probe.ErrTimeout
	}
	// periph formats errnos into its own errors, so the text is matched too.
	for _, errno := range nackErrnos {
		if errors.Is(err, errno) || strings.Contains(err.Error(), errno.Error()) {
			return probe.ErrNack
		}
	}
	glog.Warningf("i2c transaction error: %v", err)
	return err
}
