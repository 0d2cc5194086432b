package probe

// IsReserved reports whether addr belongs to one of the two ranges the bus
// standard sets aside: 0x00-0x07 (general call, CBUS, high-speed master
// codes) and 0x78-0x7f (10-bit addressing, device ID).
func IsReserved(addr Address) bool {
	masked := addr & 0x78
	return masked == 0 || masked == 0x78
}
