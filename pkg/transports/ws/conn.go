package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/logging"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
)

// Config carries the websocket endpoint and credentials for one service.
type Config struct {
	URL              string
	APIKey           string
	CustomerID       string
	HandshakeTimeout time.Duration
	ReadBufferSize   int
	WriteBufferSize  int
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 4096
	}
	return c
}

// Dialer opens websocket connections to the transcription service.
type Dialer struct {
	cfg    Config
	logger *slog.Logger
}

func NewDialer(cfg Config, logger *slog.Logger) *Dialer {
	return &Dialer{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(logger, "ws_transport"),
	}
}

func (d *Dialer) Dial(ctx context.Context) (transports.Connection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	wd := websocket.Dialer{
		HandshakeTimeout: d.cfg.HandshakeTimeout,
		ReadBufferSize:   d.cfg.ReadBufferSize,
		WriteBufferSize:  d.cfg.WriteBufferSize,
	}
	header := http.Header{}
	if d.cfg.APIKey != "" {
		header.Set("x-api-key", d.cfg.APIKey)
	}
	if d.cfg.CustomerID != "" {
		header.Set("x-customer-id", d.cfg.CustomerID)
	}
	conn, resp, err := wd.DialContext(ctx, d.cfg.URL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		d.logger.Error("websocket_dial_failed",
			slog.String("url", d.cfg.URL),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		return nil, errorsx.Wrap(err, errorsx.ReasonConnection)
	}
	d.logger.Debug("websocket_connected", slog.String("url", d.cfg.URL))

	c := &Conn{
		ws:     conn,
		logger: d.logger,
		recvCh: make(chan recvMsg, 64),
		done:   make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

type recvMsg struct {
	data []byte
	err  error
}

// Conn is a websocket-backed Connection. A single reader goroutine owns
// ReadMessage; writes are serialized by writeMu.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	recvCh    chan recvMsg
	done      chan struct{}
}

func (c *Conn) readPump() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.closed.Store(true)
			select {
			case c.recvCh <- recvMsg{err: err}:
			case <-c.done:
			}
			close(c.recvCh)
			return
		}
		select {
		case c.recvCh <- recvMsg{data: data}:
		case <-c.done:
			close(c.recvCh)
			return
		}
	}
}

func (c *Conn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *Conn) SendText(text string) error {
	return c.write(websocket.TextMessage, []byte(text))
}

func (c *Conn) write(messageType int, data []byte) error {
	if c.closed.Load() {
		return errorsx.New(errorsx.ReasonStreaming, "websocket connection is closed")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		c.closed.Store(true)
		c.logger.Error("websocket_write_failed",
			slog.Int("message_type", messageType),
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonStreaming)
	}
	return nil
}

func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m, ok := <-c.recvCh:
		if !ok {
			return nil, errorsx.New(errorsx.ReasonConnection, "websocket connection is closed")
		}
		if m.err != nil {
			if websocket.IsCloseError(m.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, errorsx.New(errorsx.ReasonConnection, "websocket closed by service")
			}
			return nil, errorsx.Wrap(m.err, errorsx.ReasonStreaming)
		}
		return m.data, nil
	}
}

func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

var _ transports.Connection = (*Conn)(nil)
var _ transports.Dialer = (*Dialer)(nil)
