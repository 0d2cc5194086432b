package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/i2cscan/pkg/cli/sh"
	"github.com/robotalks/i2cscan/pkg/report"
)

type reportOutput struct {
	Host    string   `json:"host"`
	Bus     string   `json:"bus"`
	Time    string   `json:"time"`
	Devices []string `json:"devices"`
}

// FormatReports prints reports for display.
func FormatReports(reports []*report.Report) string {
	if len(reports) == 0 {
		return "No reports found\n"
	}
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s (%s)\n", r, r.Time.Local().Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

var (
	// PublishCmd publishes the latest scan.
	PublishCmd = ishell.Cmd{
		Name: "publish",
		Help: "",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if err := s.Publish(context.Background()); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, s.Last.Name(), fmt.Sprintf("published %s\n", s.Last.Name()))
		},
	}

	// RemoteCmd lists reports published by all hosts.
	RemoteCmd = ishell.Cmd{
		Name:    "remote",
		Aliases: []string{"r"},
		Help:    "",
		Func: func(c *ishell.Context) {
			pub, err := sh.ShellFrom(c).Config.NewPublisher()
			if err != nil {
				c.Err(err)
				return
			}
			defer pub.Close()
			reports, err := pub.Discover(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			items := make([]reportOutput, 0, len(reports))
			for _, r := range reports {
				out := reportOutput{
					Host:    r.Host,
					Bus:     r.Bus,
					Time:    r.Time.Format(time.RFC3339),
					Devices: make([]string, 0, len(r.Devices)),
				}
				for _, a := range r.Devices {
					out.Devices = append(out.Devices, a.String())
				}
				items = append(items, out)
			}
			sh.Print(c, items, FormatReports(reports))
		},
	}
)

func init() {
	sh.AddCmds(
		&PublishCmd,
		&RemoteCmd,
	)
}
