package mqtt

import (
	"context"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/i2cscan/pkg/framework"
	"github.com/robotalks/i2cscan/pkg/report"
)

// DefaultDiscoverTimeout defines the default duration Discover collects
// retained reports.
const DefaultDiscoverTimeout = 500 * time.Millisecond

const devicesTopic = "devices"

// Publisher publishes reports as retained messages so a late subscriber
// sees the latest device list of every bus.
type Publisher struct {
	DiscoverTimeout time.Duration
	Codec           report.Codec

	options     *paho.ClientOptions
	topicPrefix string

	lock  sync.Mutex
	queue *Queue
}

// NewPublisher creates a Publisher from a broker URL. The format query
// parameter selects the codec.
func NewPublisher(brokerURL string) (*Publisher, error) {
	opts, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	codec, err := report.CodecByName(opts.Format)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		DiscoverTimeout: DefaultDiscoverTimeout,
		Codec:           codec,
		options:         opts.Client,
		topicPrefix:     opts.TopicPrefix,
	}, nil
}

// Topic returns the topic a report is published to, relative to the
// topic prefix.
func Topic(host, bus string) string {
	return topicSegment(host) + "/" + topicSegment(bus) + "/" + devicesTopic
}

// topicSegment keeps names like "tcp://bridge:2000" within one level.
func topicSegment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}

// Publish sends the report and waits for the broker to accept it.
func (p *Publisher) Publish(ctx context.Context, r *report.Report) error {
	payload, err := p.Codec.Encode(r)
	if err != nil {
		return err
	}
	q, err := p.connect(ctx)
	if err != nil {
		return err
	}
	token := q.PubWith(Topic(r.Host, r.Bus), payload, 1, true)
	return waitToken(ctx, token)
}

// Discover collects the retained reports of all hosts.
func (p *Publisher) Discover(ctx context.Context) ([]*report.Report, error) {
	q := NewQueue(p.options, p.topicPrefix)
	defer q.Close()
	if err := framework.RunWithContext(ctx, q.Connect); err != nil {
		return nil, err
	}

	c := newCollector(p.Codec)
	sub := q.Sub("+/+/"+devicesTopic, c.receive)
	defer sub.Close()
	if err := waitToken(ctx, sub.Token); err != nil {
		return nil, err
	}

	dur := p.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	select {
	case <-time.After(dur):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.reports(), nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.lock.Lock()
	q := p.queue
	p.queue = nil
	p.lock.Unlock()
	if q != nil {
		return q.Close()
	}
	return nil
}

func (p *Publisher) connect(ctx context.Context) (*Queue, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.queue != nil {
		return p.queue, nil
	}
	q := NewQueue(p.options, p.topicPrefix)
	if err := framework.RunWithContext(ctx, q.Connect); err != nil {
		q.Close()
		return nil, err
	}
	p.queue = q
	return q, nil
}

func waitToken(ctx context.Context, token paho.Token) error {
	return framework.RunWithContext(ctx, func() error {
		token.Wait()
		return token.Error()
	})
}

type collector struct {
	codec report.Codec

	lock  sync.Mutex
	found map[string]*report.Report
}

func newCollector(codec report.Codec) *collector {
	return &collector{codec: codec, found: make(map[string]*report.Report)}
}

func (c *collector) receive(topic string, payload []byte) {
	if len(strings.Split(topic, "/")) != 3 || len(payload) == 0 {
		return
	}
	r, err := c.codec.Decode(payload)
	if err != nil {
		glog.Warningf("discard report on %q: %v", topic, err)
		return
	}
	c.lock.Lock()
	c.found[topic] = r
	c.lock.Unlock()
}

func (c *collector) reports() []*report.Report {
	c.lock.Lock()
	res := make([]*report.Report, 0, len(c.found))
	for _, r := range c.found {
		res = append(res, r)
	}
	c.lock.Unlock()
	report.Sort(res)
	return res
}
