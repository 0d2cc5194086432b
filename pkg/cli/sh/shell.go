package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/i2cscan/pkg/env"
	"github.com/robotalks/i2cscan/pkg/probe"
	"github.com/robotalks/i2cscan/pkg/report"
	"github.com/robotalks/i2cscan/pkg/transport/bridge"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell     *ishell.Shell
	Config    *env.Config
	Transport env.Transport
	// Last is the report of the latest sweep.
	Last *report.Report

	openTransport func(*env.Config) (env.Transport, error)
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,

		openTransport: (*env.Config).OpenTransport,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpened wraps command func requires an opened bus. The configured
// bus is opened if none is.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if s := ShellFrom(c); s.Transport == nil {
			if err := s.Open(""); err != nil {
				c.Err(err)
				return
			}
		}
		fn(c)
	}
}

// Print writes v as JSON when OutputJSON is set, or the text otherwise.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Print(text)
}

// ParseAddress parses a 7-bit address in decimal, 0x hex or 0 octal.
func ParseAddress(s string) (probe.Address, error) {
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %v", s, err)
	}
	addr := probe.Address(val)
	if !addr.IsValid() {
		return 0, fmt.Errorf("address %s out of range", addr)
	}
	return addr, nil
}

// ParseTimeout accepts a duration like 50ms or a number of milliseconds.
func ParseTimeout(s string) (time.Duration, error) {
	if ms, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %v", s, err)
	}
	return d, nil
}

// Open opens the bus, replacing the current one.
func (s *Shell) Open(busURL string) error {
	conf := *s.Config
	if busURL != "" {
		conf.BusURL = busURL
	}
	t, err := s.openTransport(&conf)
	if err != nil {
		return err
	}
	s.Close()
	s.Config.BusURL = conf.BusURL
	s.Transport = t
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", t))
	return nil
}

// Close closes the current bus.
func (s *Shell) Close() {
	if s.Transport != nil {
		s.Transport.Close()
		s.Transport = nil
		s.Last = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

func (s *Shell) newScanner(skipReserved bool) *probe.Scanner {
	scanner := s.Config.NewScanner(s.Transport)
	scanner.SkipReserved = scanner.SkipReserved || skipReserved
	return scanner
}

// Scan sweeps the opened bus and keeps the report. Every probe result is
// passed to observer if not nil.
func (s *Shell) Scan(skipReserved bool, observer probe.Observer) *report.Report {
	scanner := s.newScanner(skipReserved)
	scanner.Observer = observer
	s.Last = report.New(s.Config.HostName(), s.Transport.String(), scanner.Scan())
	return s.Last
}

// ScanDetailed sweeps the opened bus like Scan and also returns the result
// of every probed address.
func (s *Shell) ScanDetailed(skipReserved bool) ([]probe.Result, *report.Report) {
	results := s.newScanner(skipReserved).ScanDetailed()
	var devices probe.DeviceList
	for _, r := range results {
		if r.Present() {
			devices = append(devices, r.Addr)
		}
	}
	s.Last = report.New(s.Config.HostName(), s.Transport.String(), devices)
	return results, s.Last
}

// Publish publishes the latest report.
func (s *Shell) Publish(ctx context.Context) error {
	if s.Last == nil {
		return fmt.Errorf("nothing scanned")
	}
	pub, err := s.Config.NewPublisher()
	if err != nil {
		return err
	}
	defer pub.Close()
	return pub.Publish(ctx, s.Last)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// FormatPorts prints serial ports for display.
func FormatPorts(ports []bridge.PortInfo) string {
	if len(ports) == 0 {
		return "No serial ports found\n"
	}
	var b strings.Builder
	for _, p := range ports {
		b.WriteString(p.URL())
		if p.IsUSB {
			fmt.Fprintf(&b, " USB %s:%s", p.VID, p.PID)
			if p.SerialNumber != "" {
				fmt.Fprintf(&b, " %s", p.SerialNumber)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	// OpenCmd opens a bus.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			var busURL string
			if len(c.Args) > 0 {
				busURL = c.Args[0]
			}
			if err := ShellFrom(c).Open(busURL); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes current bus.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// PortsCmd lists serial ports a bridge may be attached to.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := bridge.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []bridge.PortInfo{}
			}
			Print(c, ports, FormatPorts(ports))
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
