package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/i2cscan/pkg/probe"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	presentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	absentStyle   = lipgloss.NewStyle().Faint(true)
	reservedStyle = lipgloss.NewStyle().Faint(true)
)

// Grid renders devices as the 8x16 address table known from i2cdetect:
//
//	     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f
//	00: -- -- -- -- -- -- -- -- -- -- -- -- -- -- -- --
//	30: -- -- -- -- -- -- -- -- -- -- -- -- 3c -- -- --
//
// Reserved addresses show blank when markReserved is set.
func Grid(devices probe.DeviceList, markReserved bool) string {
	var b strings.Builder
	header := "   "
	for col := 0; col < 16; col++ {
		header += fmt.Sprintf("  %x", col)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteByte('\n')
	for row := 0; row < probe.AddressCount; row += 16 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%02x:", row)))
		for col := 0; col < 16; col++ {
			addr := probe.Address(row + col)
			var cell string
			switch {
			case devices.Contains(addr):
				cell = presentStyle.Render(fmt.Sprintf("%02x", uint8(addr)))
			case markReserved && probe.IsReserved(addr):
				cell = reservedStyle.Render("  ")
			default:
				cell = absentStyle.Render("--")
			}
			b.WriteByte(' ')
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
