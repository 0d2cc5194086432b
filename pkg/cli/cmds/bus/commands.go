package bus

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/i2cscan/pkg/cli/sh"
	"github.com/robotalks/i2cscan/pkg/probe"
	"github.com/robotalks/i2cscan/pkg/report"
)

type scanOutput struct {
	Bus     string   `json:"bus"`
	Count   int      `json:"count"`
	Devices []string `json:"devices"`
}

type probeOutput struct {
	Addr    string `json:"addr"`
	Status  string `json:"status"`
	Present bool   `json:"present"`
	Error   string `json:"error,omitempty"`
}

type reservedOutput struct {
	Addr     string `json:"addr"`
	Reserved bool   `json:"reserved"`
}

func addrStrings(l probe.DeviceList) []string {
	items := make([]string, len(l))
	for n, a := range l {
		items[n] = a.String()
	}
	return items
}

// FormatScan renders a report as an address grid followed by a summary.
func FormatScan(r *report.Report, skipReserved bool) string {
	return report.Grid(r.Devices, skipReserved) +
		fmt.Sprintf("%d devices found on %s\n", r.Devices.Count(), r.Bus)
}

type scanOptions struct {
	skipReserved bool
	verbose      bool
}

func parseScanArgs(args []string) (opts scanOptions, err error) {
	for _, arg := range args {
		switch arg {
		case "-r":
			opts.skipReserved = true
		case "-v":
			opts.verbose = true
		default:
			return opts, fmt.Errorf("unknown option %q", arg)
		}
	}
	return
}

func resultOutput(r probe.Result) *probeOutput {
	out := &probeOutput{Addr: r.Addr.String(), Status: r.Status.String(), Present: r.Present()}
	if r.Status == probe.StatusError && r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func resultText(r probe.Result) string {
	if r.Status == probe.StatusError && r.Err != nil {
		return fmt.Sprintf("%s %s: %v\n", r.Addr, r.Status, r.Err)
	}
	return fmt.Sprintf("%s %s\n", r.Addr, r.Status)
}

// FormatResults lists the status of every probed address, one per line.
func FormatResults(results []probe.Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(resultText(r))
	}
	return b.String()
}

// failures collects results of transport errors during a sweep.
type failures []probe.Result

func (f *failures) Probed(r probe.Result) {
	if r.Status == probe.StatusError {
		*f = append(*f, r)
	}
}

var (
	// ScanCmd sweeps the bus.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"s"},
		Help:    "[-r] [-v] (-r skips reserved addresses, -v shows status of each address)",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			opts, err := parseScanArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if opts.verbose {
				results, _ := s.ScanDetailed(opts.skipReserved)
				items := make([]*probeOutput, len(results))
				for n, r := range results {
					items[n] = resultOutput(r)
				}
				sh.Print(c, items, FormatResults(results))
				return
			}
			var failed failures
			r := s.Scan(opts.skipReserved, &failed)
			sh.Print(c, &scanOutput{
				Bus:     r.Bus,
				Count:   r.Devices.Count(),
				Devices: addrStrings(r.Devices),
			}, FormatScan(r, opts.skipReserved)+FormatResults(failed))
		}),
	}

	// ProbeCmd probes a single address.
	ProbeCmd = ishell.Cmd{
		Name:    "probe",
		Aliases: []string{"p"},
		Help:    "ADDR [TIMEOUT]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			addr, err := sh.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			timeout := probe.DefaultTimeout
			if len(c.Args) > 1 {
				if timeout, err = sh.ParseTimeout(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			status, err := probe.Probe(sh.ShellFrom(c).Transport, addr, timeout)
			r := probe.Result{Addr: addr, Status: status, Err: err}
			sh.Print(c, resultOutput(r), resultText(r))
		}),
	}

	// ReservedCmd tells whether an address is reserved.
	ReservedCmd = ishell.Cmd{
		Name: "reserved",
		Help: "ADDR",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			addr, err := sh.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			reserved := probe.IsReserved(addr)
			text := fmt.Sprintf("%s is not reserved\n", addr)
			if reserved {
				text = fmt.Sprintf("%s is reserved\n", addr)
			}
			sh.Print(c, &reservedOutput{Addr: addr.String(), Reserved: reserved}, text)
		},
	}
)

func init() {
	sh.AddCmds(
		&ScanCmd,
		&ProbeCmd,
		&ReservedCmd,
	)
}
