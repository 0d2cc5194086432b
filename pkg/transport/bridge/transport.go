package bridge

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/robotalks/i2cscan/pkg/probe"
)

// DefaultSlack is added to the bus timeout to cover the link round trip.
const DefaultSlack = 50 * time.Millisecond

// Transport implements probe.Transport through the firmware.
type Transport struct {
	Client *Client
	Slack  time.Duration
	Name   string

	cancel func()
	done   chan error
}

// NewTransport creates a Transport over an existing Client.
// The caller is responsible to run the Client.
func NewTransport(client *Client) *Transport {
	return &Transport{Client: client, Slack: DefaultSlack}
}

// Open dials the link at rawURL and starts reading replies.
func Open(rawURL string) (*Transport, error) {
	link, err := Dial(rawURL)
	if err != nil {
		return nil, err
	}
	t := NewTransport(NewClient(link))
	t.Name = rawURL
	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	t.done = make(chan error, 1)
	go func() {
		t.done <- t.Client.Run(ctx)
	}()
	return t, nil
}

// String implements fmt.Stringer.
func (t *Transport) String() string {
	return t.Name
}

// WriteTimeout implements probe.Transport.
func (t *Transport) WriteTimeout(addr probe.Address, p []byte, timeout time.Duration) (int, error) {
	if !addr.IsValid() {
		return 0, probe.ErrInvalidAddress
	}
	if len(p)+5 > MaxDataLen {
		return 0, ErrFrameTooLarge
	}
	data := make([]byte, 5+len(p))
	data[0] = byte(addr)
	binary.LittleEndian.PutUint32(data[1:], uint32(timeout/time.Microsecond))
	copy(data[5:], p)
	res, err := t.Client.Transact(CodeWrite, data, timeout+t.Slack)
	if err == ErrTimeout {
		return 0, probe.ErrTimeout
	}
	if err != nil {
		return 0, err
	}
	if len(res) < 1 {
		return 0, ErrShortReply
	}
	return probe.FromCode(int(int8(res[0])))
}

// Close stops the reader, which closes the link opened by Open.
func (t *Transport) Close() error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	return nil
}
