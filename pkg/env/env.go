// Package env provides the common configuration of i2cscan commands.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robotalks/i2cscan/pkg/probe"
	"github.com/robotalks/i2cscan/pkg/report/mqtt"
	"github.com/robotalks/i2cscan/pkg/transport/bridge"
	"github.com/robotalks/i2cscan/pkg/transport/periph"
)

// Config provides common options to open a bus and publish reports.
type Config struct {
	// BusURL selects the bus, e.g.
	//   i2c://1, I2C1              local bus via periph
	//   serial:///dev/ttyUSB0      bridge firmware on a serial port
	//   tcp://host:port, ws://...  bridge firmware over network
	BusURL string
	// Speed sets the bus clock in Hz when opened, 0 keeps the current one.
	Speed int64
	// Timeout is the per-address probe timeout.
	Timeout      time.Duration
	SkipReserved bool
	// ReportURL specifies the MQTT broker to publish reports.
	// e.g. mqtt://host:port/topic-prefix
	ReportURL string
	// Host identifies this machine in published reports.
	Host     string
	Interval time.Duration
}

// Transport is an opened bus.
type Transport interface {
	probe.Transport
	io.Closer
	String() string
}

// DefaultInterval is the default interval between monitor sweeps.
const DefaultInterval = 5 * time.Second

var defaultConfig = Config{
	BusURL:    "i2c://",
	Timeout:   probe.SweepTimeout,
	ReportURL: "mqtt://localhost:1883/i2cscan/",
	Interval:  DefaultInterval,
}

func init() {
	if val := os.Getenv("I2CSCAN_BUS"); val != "" {
		defaultConfig.BusURL = val
	}
	if val := os.Getenv("I2CSCAN_REPORT_URL"); val != "" {
		defaultConfig.ReportURL = val
	}
	if val := os.Getenv("I2CSCAN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.Timeout = d
		}
	}
	if val := os.Getenv("I2CSCAN_HOST"); val != "" {
		defaultConfig.Host = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BusURL, "bus", defaultConfig.BusURL, "Bus to scan.")
	flag.Int64Var(&defaultConfig.Speed, "speed", defaultConfig.Speed, "Bus clock in Hz, e.g. 100000 or 400000.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Probe timeout per address.")
	flag.BoolVar(&defaultConfig.SkipReserved, "skip-reserved", defaultConfig.SkipReserved, "Do not probe reserved addresses.")
	flag.StringVar(&defaultConfig.ReportURL, "report", defaultConfig.ReportURL, "MQTT broker URL for reports.")
	flag.StringVar(&defaultConfig.Host, "host", defaultConfig.Host, "Host name in reports, default is derived from machine ID.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Interval between monitor sweeps.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Bus kinds.
const (
	BusLocal  = "i2c"
	BusBridge = "bridge"
)

// ParseBusURL tells which transport serves the bus and the name to open.
func ParseBusURL(busURL string) (kind, name string, err error) {
	if !strings.Contains(busURL, "://") {
		return BusLocal, busURL, nil
	}
	u, err := url.Parse(busURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid bus URL: %v", err)
	}
	switch u.Scheme {
	case "i2c":
		if u.Host != "" {
			return BusLocal, u.Host, nil
		}
		return BusLocal, u.Path, nil
	case "serial", "tcp", "ws", "wss":
		return BusBridge, busURL, nil
	}
	return "", "", fmt.Errorf("unknown bus URL scheme: %q", u.Scheme)
}

// OpenTransport opens the configured bus.
func (c *Config) OpenTransport() (Transport, error) {
	kind, name, err := ParseBusURL(c.BusURL)
	if err != nil {
		return nil, err
	}
	if kind == BusBridge {
		t, err := bridge.Open(name)
		if err != nil {
			return nil, err
		}
		if err := setSpeed(t, c.Speed); err != nil {
			t.Close()
			return nil, err
		}
		return t, nil
	}
	t, err := periph.Open(name)
	if err != nil {
		return nil, err
	}
	if err := setSpeed(t, c.Speed); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

type speedSetter interface {
	SetSpeed(hz int64) error
}

func setSpeed(t Transport, hz int64) error {
	if hz <= 0 {
		return nil
	}
	s, ok := t.(speedSetter)
	if !ok {
		return fmt.Errorf("bus %s doesn't support changing speed", t)
	}
	if err := s.SetSpeed(hz); err != nil {
		return fmt.Errorf("set speed of bus %s error: %v", t, err)
	}
	return nil
}

// MustOpenTransport opens the bus and fails on error.
func (c *Config) MustOpenTransport() Transport {
	t, err := c.OpenTransport()
	if err != nil {
		log.Fatalln(err)
	}
	return t
}

// NewScanner creates a Scanner on the transport using current config.
func (c *Config) NewScanner(t probe.Transport) *probe.Scanner {
	return &probe.Scanner{
		Transport:    t,
		Timeout:      c.Timeout,
		SkipReserved: c.SkipReserved,
	}
}

// NewPublisher creates a report publisher.
func (c *Config) NewPublisher() (*mqtt.Publisher, error) {
	parsedURL, err := url.Parse(c.ReportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid report URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "tcp", "ssl", "ws", "wss":
		return mqtt.NewPublisher(c.ReportURL)
	default:
		return nil, fmt.Errorf("unknown report URL scheme: %q", parsedURL.Scheme)
	}
}

// HostName returns Host or the machine ID when unset.
func (c *Config) HostName() string {
	if c.Host != "" {
		return c.Host
	}
	return MachineID()
}
