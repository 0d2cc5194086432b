package bridge

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"golang.org/x/net/websocket"
)

// DefaultBaudRate is used for serial links without a baud query.
const DefaultBaudRate = 115200

// Dial opens the link to the firmware:
//
//	serial:///dev/ttyACM0?baud=115200
//	tcp://host:port
//	ws://host:port/path (or wss://)
func Dial(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		return dialSerial(u)
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws", "wss":
		origin := "http://localhost/"
		if u.Scheme == "wss" {
			origin = "https://localhost/"
		}
		conn, err := websocket.Dial(rawURL, "", origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	}
	return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
}

func dialSerial(u *url.URL) (io.ReadWriteCloser, error) {
	path := u.Path
	if u.Host != "" {
		// serial://COM3
		path = u.Host + path
	}
	if path == "" {
		return nil, fmt.Errorf("serial port not specified")
	}
	mode := &serial.Mode{BaudRate: DefaultBaudRate}
	if baud := u.Query().Get("baud"); baud != "" {
		rate, err := strconv.Atoi(baud)
		if err != nil {
			return nil, fmt.Errorf("invalid baud rate %q: %v", baud, err)
		}
		mode.BaudRate = rate
	}
	return serial.Open(path, mode)
}

// PortInfo describes a serial port which may host a bridge firmware.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// URL returns the link URL for the port.
func (p PortInfo) URL() string {
	return "serial://" + p.Name
}

// Ports lists available serial ports.
func Ports() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	result := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return result, nil
}
