// Package bridge reaches an I2C bus owned by a microcontroller.
//
// The host exchanges small frames with the firmware over a byte stream
// (serial port, TCP or websocket). The firmware performs each bus write
// with its own timer and replies with the platform result code, so the
// host never needs bus-level access.
//
// Frame layout:
//
//	[seq] [code | len<<4] ([len]) [data...]
//
// seq is in 1..0xef and increases with every request. Bit 7 of code marks
// events, the lower nibble is the operation. A len nibble of 7 means the
// actual length (up to 127) follows in its own byte.
//
// A write request carries:
//
//	[addr] [timeout_us u32 little-endian] [payload...]
//
// and is answered by a frame with data [request seq] [result int8].
// Replies with bit 0 of code set report a failed request:
// data [request seq] only.
package bridge
