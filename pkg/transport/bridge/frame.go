package bridge

import (
	"io"
	"time"
)

// Seq is the frame sequence number.
type Seq byte

// NewSeq creates a random sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame codes.
const (
	CodeReply byte = 0x00
	CodeWrite byte = 0x02
	CodeEvent byte = 0x80

	codeMask  byte = 0x8f
	codeError byte = 0x01
	lenMask   byte = 0x70
	lenExt    byte = 7

	// MaxDataLen is the largest payload a frame carries.
	MaxDataLen = 0x7f
)

// Frame is one unit exchanged with the firmware.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent indicates the frame is unsolicited.
func (f *Frame) IsEvent() bool {
	return f.Code&CodeEvent != 0
}

// IsError indicates a reply reporting a failed request.
func (f *Frame) IsError() bool {
	return !f.IsEvent() && f.Code&codeError != 0
}

func (f *Frame) header() []byte {
	l := byte(len(f.Data))
	head := []byte{byte(f.Seq), f.Code & codeMask, l}
	if l < lenExt {
		head[1] |= (l << 4) & lenMask
		return head[:2]
	}
	head[1] |= lenMask
	return head
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	head := f.header()
	b := make([]byte, len(head), len(head)+len(f.Data))
	copy(b, head)
	return append(b, f.Data...)
}

// WriteTo implements io.WriterTo. The frame goes out in a single Write
// so concurrent writers on packet-oriented links can't interleave.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	if len(f.Data) > MaxDataLen {
		return 0, ErrFrameTooLarge
	}
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// ReadFrame reads one frame. Bytes which can't start a frame are
// discarded, so a reader recovers after line noise.
func ReadFrame(r io.Reader) (*Frame, error) {
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if Seq(b[0]).IsValid() {
			break
		}
	}
	f := &Frame{Seq: Seq(b[0])}
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	f.Code = b[0] & codeMask
	l := (b[0] & lenMask) >> 4
	if l == lenExt {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if l = b[0]; l > MaxDataLen {
			return nil, ErrFrameTooLarge
		}
	}
	if l > 0 {
		f.Data = make([]byte, l)
		if _, err := io.ReadFull(r, f.Data); err != nil {
			return nil, err
		}
	}
	return f, nil
}
