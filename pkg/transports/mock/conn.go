package mock

import (
	"context"
	"sync"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
)

// Message is one outbound message recorded by the mock connection.
type Message struct {
	Text bool
	Data []byte
}

// Conn is an in-memory Connection for tests and local integration. Inbound
// service messages are scripted with Push; outbound messages are recorded in
// order for inspection.
type Conn struct {
	mu     sync.Mutex
	sent   []Message
	closed bool
	recvCh chan []byte
}

func NewConn() *Conn {
	return &Conn{recvCh: make(chan []byte, 256)}
}

func (c *Conn) SendBinary(data []byte) error {
	return c.record(Message{Data: append([]byte(nil), data...)})
}

func (c *Conn) SendText(text string) error {
	return c.record(Message{Text: true, Data: []byte(text)})
}

func (c *Conn) record(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errorsx.New(errorsx.ReasonStreaming, "mock connection is closed")
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-c.recvCh:
		if !ok {
			return nil, errorsx.New(errorsx.ReasonConnection, "mock connection is closed")
		}
		return data, nil
	}
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.recvCh)
	}
	return nil
}

// Push injects an inbound service message. Pushes after close are dropped.
func (c *Conn) Push(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.recvCh <- data:
	default:
	}
}

// MarkClosed flips the closed flag without tearing down the receive channel,
// simulating a service-side close observed by the sender.
func (c *Conn) MarkClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Sent returns a copy of every outbound message recorded so far.
func (c *Conn) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}

// Dialer hands out a scripted connection, or fails with Err.
type Dialer struct {
	Conn *Conn
	Err  error

	mu    sync.Mutex
	dials int
}

func (d *Dialer) Dial(ctx context.Context) (transports.Connection, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()
	if d.Err != nil {
		return nil, errorsx.Wrap(d.Err, errorsx.ReasonConnection)
	}
	return d.Conn, nil
}

// Dials reports how many times Dial was invoked.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

var _ transports.Connection = (*Conn)(nil)
var _ transports.Dialer = (*Dialer)(nil)
