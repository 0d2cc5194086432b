package bridge

import (
	"container/list"
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/i2cscan/pkg/framework"
)

type reply struct {
	data []byte
	err  error
}

type request struct {
	seq    Seq
	result chan reply
	elem   *list.Element
}

// Client sends requests to the firmware and matches replies by sequence.
type Client struct {
	// EventHandler receives unsolicited frames if set.
	EventHandler func(*Frame)

	rw       io.ReadWriter
	seq      Seq
	sendLock sync.Mutex

	lock    sync.Mutex
	pending list.List
	seqMap  map[Seq]*request
	closed  bool
}

// NewClient creates a Client over the link.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		rw:     rw,
		seq:    NewSeq(),
		seqMap: make(map[Seq]*request),
	}
}

// Transact sends a request and waits up to wait for its reply data.
func (c *Client) Transact(code byte, data []byte, wait time.Duration) ([]byte, error) {
	req, err := c.send(code, data)
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case r := <-req.result:
		return r.data, r.err
	case <-timer.C:
		c.lock.Lock()
		c.forget(req)
		c.lock.Unlock()
		return nil, ErrTimeout
	}
}

func (c *Client) send(code byte, data []byte) (*request, error) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	req := &request{result: make(chan reply, 1)}
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil, ErrClosed
	}
	req.seq, c.seq = c.seq, c.seq.Next()
	req.elem = c.pending.PushBack(req)
	c.seqMap[req.seq] = req
	c.lock.Unlock()

	f := &Frame{Seq: req.seq, Code: code &^ CodeEvent, Data: data}
	if _, err := f.WriteTo(c.rw); err != nil {
		c.lock.Lock()
		c.forget(req)
		c.lock.Unlock()
		return nil, err
	}
	return req, nil
}

// forget must be called with lock held.
func (c *Client) forget(req *request) {
	if c.seqMap[req.seq] == req {
		c.pending.Remove(req.elem)
		delete(c.seqMap, req.seq)
	}
}

// Run reads frames until the context is done or the link fails.
// Implements framework.Runnable.
func (c *Client) Run(ctx context.Context) error {
	defer c.failAll(ErrClosed)
	if closer, ok := c.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, c.readLoop)
	}
	return fx.RunWithContext(ctx, c.readLoop)
}

func (c *Client) readLoop() error {
	for {
		f, err := ReadFrame(c.rw)
		if err != nil {
			return err
		}
		c.handleFrame(f)
	}
}

func (c *Client) handleFrame(f *Frame) {
	if f.IsEvent() {
		if h := c.EventHandler; h != nil {
			h(f)
		}
		return
	}
	if len(f.Data) == 0 {
		glog.V(2).Infof("bridge: reply %d without request seq dropped", f.Seq)
		return
	}
	seq := Seq(f.Data[0])
	c.lock.Lock()
	req := c.seqMap[seq]
	if req == nil {
		c.lock.Unlock()
		glog.V(2).Infof("bridge: reply for unknown request %d", seq)
		return
	}
	// replies come in request order, anything pending before req is lost.
	var lost []*request
	for elem := c.pending.Front(); elem != req.elem; elem = c.pending.Front() {
		r := elem.Value.(*request)
		c.forget(r)
		lost = append(lost, r)
	}
	c.forget(req)
	c.lock.Unlock()

	for _, r := range lost {
		r.result <- reply{err: ErrNoReply}
	}
	if f.IsError() {
		req.result <- reply{err: &RequestError{Code: f.Code & 0x0e}}
	} else {
		req.result <- reply{data: f.Data[1:]}
	}
}

func (c *Client) failAll(err error) {
	c.lock.Lock()
	c.closed = true
	var reqs []*request
	for elem := c.pending.Front(); elem != nil; elem = elem.Next() {
		reqs = append(reqs, elem.Value.(*request))
	}
	c.pending.Init()
	c.seqMap = make(map[Seq]*request)
	c.lock.Unlock()
	for _, r := range reqs {
		r.result <- reply{err: err}
	}
}
