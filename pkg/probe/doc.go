// Package probe enumerates peripherals on a two-wire (I2C) bus.
//
// A peripheral is considered present when a single zero byte written to
// its 7-bit address is acknowledged. Any device answering the address
// receives that byte, so probing write-sensitive parts can change their
// state.
//
// The bus itself is reached through a Transport supplied by the caller.
// The package never opens, owns or closes a bus, and it never issues two
// transactions at the same time.
package probe
