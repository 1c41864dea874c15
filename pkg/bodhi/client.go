// Package bodhi is a streaming client for the Bodhi transcription service.
// It paces audio from files, URLs, or caller-pushed buffers over a duplex
// connection and assembles the service's incremental responses into the
// final ordered sentence list.
package bodhi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/navana-tech/bodhi-go-sdk/pkg/aggregators"
	"github.com/navana-tech/bodhi-go-sdk/pkg/audio"
	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/logging"
	"github.com/navana-tech/bodhi-go-sdk/pkg/metrics"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports/ws"
)

// Config carries client-wide settings. Credentials and endpoint are required
// for the default websocket transport; everything else has defaults.
type Config struct {
	ServiceURL string
	APIKey     string
	CustomerID string

	// PacingInterval is the delay between audio frames during file
	// transcription. Zero selects the 100ms default; negative disables
	// pacing entirely (tests).
	PacingInterval time.Duration
	// DownloadTimeout bounds the single request used to fetch a remote
	// source. Zero selects the 30s default.
	DownloadTimeout time.Duration

	Logger   *slog.Logger
	Observer metrics.Observer
}

func (c Config) withDefaults() Config {
	if c.PacingInterval == 0 {
		c.PacingInterval = frameDuration
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
	if c.Observer == nil {
		c.Observer = metrics.NoopObserver{}
	}
	return c
}

// Callbacks carries optional per-call hooks.
type Callbacks struct {
	// OnTranscription is invoked for every intermediate service response,
	// partial and complete alike.
	OnTranscription func(aggregators.Response)
	// OnError is invoked with the triggering error before it is returned,
	// for telemetry. Cancellation does not fire it.
	OnError func(error)
}

func (cb Callbacks) fireError(err error) {
	if cb.OnError == nil || err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	cb.OnError(err)
}

// Client talks to one transcription service. It supports two modes: blocking
// end-to-end transcription of a file or URL, and a push-based session fed
// incrementally via StreamAudio. At most one push-based session is active at
// a time; the client is not safe for concurrent push sessions.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	observer metrics.Observer
	dialer   transports.Dialer
	consumer *aggregators.StreamConsumer
	resolver *audio.Resolver
	pacer    *framePacer

	mu       sync.Mutex
	sess     *session
	finished bool
}

// New builds a client using the websocket transport against cfg.ServiceURL.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	dialer := ws.NewDialer(ws.Config{
		URL:        cfg.ServiceURL,
		APIKey:     cfg.APIKey,
		CustomerID: cfg.CustomerID,
	}, cfg.Logger)
	return NewWithDialer(cfg, dialer)
}

// NewWithDialer builds a client over a caller-supplied transport, used for
// testing and custom connection setups.
func NewWithDialer(cfg Config, dialer transports.Dialer) *Client {
	cfg = cfg.withDefaults()
	logger := logging.NewComponentLogger(cfg.Logger, "bodhi_client")
	return &Client{
		cfg:      cfg,
		logger:   logger,
		observer: cfg.Observer,
		dialer:   dialer,
		consumer: aggregators.NewStreamConsumer(cfg.Logger),
		resolver: audio.NewResolver(cfg.Logger, &http.Client{Timeout: cfg.DownloadTimeout}),
		pacer: &framePacer{
			logger:   logging.NewComponentLogger(cfg.Logger, "frame_pacer"),
			observer: cfg.Observer,
			interval: cfg.PacingInterval,
		},
	}
}

// State reports the lifecycle state of the active push-based session, or
// StateIdle when none is active.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StateIdle
	}
	return c.sess.State()
}

// StartStream opens a push-based streaming session: it connects, sends the
// negotiated config, and launches the receiver activity. It returns once
// receiving is underway; audio is then fed with StreamAudio and the session
// completed with FinishStream.
func (c *Client) StartStream(ctx context.Context, cfg *TranscriptionConfig, cb Callbacks) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return errorsx.New(errorsx.ReasonStreaming, "a streaming session is already active")
	}

	if cfg == nil {
		cfg = &TranscriptionConfig{}
	}
	wire, err := cfg.negotiate()
	if err != nil {
		cb.fireError(err)
		return err
	}

	sess := newSession()
	sess.cb = cb
	sess.setState(StateConnecting)
	start := time.Now()
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		sess.setState(StateErrored)
		c.logger.Error("session_start_failed", slog.String("error", err.Error()))
		err = errorsx.Wrap(err, errorsx.ReasonConnection)
		cb.fireError(err)
		return err
	}
	sess.conn = conn
	c.observer.RecordEvent(metrics.Event{
		Name:  metrics.EventSessionConnect,
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
	})

	if err := c.consumer.SendConfig(conn, wire); err != nil {
		sess.setState(StateErrored)
		sess.teardown()
		c.logger.Error("session_start_failed", slog.String("error", err.Error()))
		err = errorsx.Wrap(err, errorsx.ReasonConnection)
		cb.fireError(err)
		return err
	}
	sess.setState(StateConfigured)

	rctx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	sess.recvCh = make(chan recvOutcome, 1)
	go func() {
		sentences, rerr := c.consumer.ProcessTranscriptionStream(rctx, conn, cb.OnTranscription)
		sess.recvCh <- recvOutcome{sentences: sentences, err: rerr}
	}()
	sess.setState(StateStreaming)

	c.sess = sess
	c.finished = false
	c.logger.Info("streaming_session_started",
		slog.String("transaction_id", cfg.TransactionID),
		slog.String("model", cfg.Model))
	return nil
}

// StreamAudio pushes one pre-assembled audio chunk into the active
// push-based session. The chunk goes out unpaced in a single send.
func (c *Client) StreamAudio(data []byte) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil || sess.conn == nil || sess.conn.Closed() {
		return errorsx.New(errorsx.ReasonStreaming, "connection is not established or closed")
	}
	return relay(sess.conn, c.logger, data)
}

// StreamAudioFrom drains r and pushes its contents as one chunk.
func (c *Client) StreamAudioFrom(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStreaming)
	}
	return c.StreamAudio(data)
}

// FinishStream signals end of stream on the active push-based session and
// blocks until the receiver activity returns the final sentence list. The
// connection is closed and the session cleared on every exit path. Finishing
// with no session ever started is a connection error; finishing again after
// a completed session returns an empty list.
func (c *Client) FinishStream(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	sess := c.sess
	if sess == nil {
		finished := c.finished
		c.mu.Unlock()
		if finished {
			return []string{}, nil
		}
		return nil, errorsx.New(errorsx.ReasonConnection, "no active streaming session")
	}
	c.sess = nil
	c.finished = true
	c.mu.Unlock()

	sess.setState(StateFinishing)
	if sess.conn.Closed() {
		sess.teardown()
		sess.setState(StateClosed)
		return []string{}, nil
	}

	if err := c.pacer.sendEOF(sess.conn); err != nil {
		sess.setState(StateErrored)
		sess.teardown()
		c.logger.Error("session_finish_failed", slog.String("error", err.Error()))
		err = errorsx.Wrap(err, errorsx.ReasonConnection)
		sess.cb.fireError(err)
		return nil, err
	}

	select {
	case <-ctx.Done():
		sess.setState(StateErrored)
		sess.teardown()
		c.logger.Warn("session_finish_cancelled")
		return nil, ctx.Err()
	case out := <-sess.recvCh:
		sess.teardown()
		if out.err != nil {
			sess.setState(StateErrored)
			if errors.Is(out.err, context.Canceled) || errors.Is(out.err, context.DeadlineExceeded) {
				return nil, out.err
			}
			c.logger.Error("session_finish_failed", slog.String("error", out.err.Error()))
			err := errorsx.Wrap(out.err, errorsx.ReasonConnection)
			sess.cb.fireError(err)
			return nil, err
		}
		sess.setState(StateClosed)
		c.observer.RecordEvent(metrics.Event{
			Name:  metrics.EventSessionComplete,
			Time:  time.Now(),
			Value: float64(len(out.sentences)),
		})
		c.logger.Info("streaming_session_finished", slog.Int("sentences", len(out.sentences)))
		return out.sentences, nil
	}
}

// TranscribeFile transcribes a local WAV file end to end, blocking until the
// service has finished responding.
func (c *Client) TranscribeFile(ctx context.Context, path string, cfg *TranscriptionConfig, cb Callbacks) ([]string, error) {
	return c.transcribe(ctx, audio.FromFile(path), cfg, cb)
}

// TranscribeURL downloads a remote WAV resource and transcribes it end to
// end. Only http and https URLs are accepted.
func (c *Client) TranscribeURL(ctx context.Context, rawURL string, cfg *TranscriptionConfig, cb Callbacks) ([]string, error) {
	return c.transcribe(ctx, audio.FromURL(rawURL), cfg, cb)
}

// TranscribeBuffer transcribes an in-memory WAV container end to end.
func (c *Client) TranscribeBuffer(ctx context.Context, data []byte, cfg *TranscriptionConfig, cb Callbacks) ([]string, error) {
	return c.transcribe(ctx, audio.FromBuffer(data), cfg, cb)
}

// transcribe resolves the source, negotiates the config against the
// container sample rate, and runs the sender and receiver activities to
// completion. The first failure cancels the sibling activity and is
// propagated; partial results are never returned on the error path.
func (c *Client) transcribe(ctx context.Context, src audio.Source, cfg *TranscriptionConfig, cb Callbacks) (result []string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err != nil {
			cb.fireError(err)
			c.observer.RecordEvent(metrics.Event{Name: metrics.EventSessionError, Time: time.Now()})
		}
	}()

	stream, err := c.resolver.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if cfg == nil {
		cfg = &TranscriptionConfig{}
	}
	wire, err := cfg.negotiate()
	if err != nil {
		return nil, err
	}
	// The service requires the real container rate, so the negotiated value
	// is always overwritten for file sources.
	wire["sample_rate"] = stream.Params.SampleRate

	sess := newSession()
	sess.setState(StateConnecting)
	start := time.Now()
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		sess.setState(StateErrored)
		return nil, errorsx.Wrap(err, errorsx.ReasonConnection)
	}
	sess.conn = conn
	defer sess.teardown()
	c.observer.RecordEvent(metrics.Event{
		Name:  metrics.EventSessionConnect,
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
	})

	if err := c.consumer.SendConfig(conn, wire); err != nil {
		sess.setState(StateErrored)
		return nil, errorsx.Wrap(err, errorsx.ReasonConnection)
	}
	sess.setState(StateConfigured)

	frameSize := frameSizeForRate(stream.Params.SampleRate)
	frameBytes := frameSize * stream.Params.BlockAlign()
	c.logger.Debug("transcription_starting",
		slog.String("transaction_id", cfg.TransactionID),
		slog.Int("sample_rate", stream.Params.SampleRate),
		slog.Int("frame_size", frameSize))

	sess.setState(StateStreaming)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.pacer.stream(gctx, conn, stream, frameBytes)
	})
	var sentences []string
	g.Go(func() error {
		out, rerr := c.consumer.ProcessTranscriptionStream(gctx, conn, cb.OnTranscription)
		if rerr != nil {
			return rerr
		}
		sentences = out
		return nil
	})
	if err := g.Wait(); err != nil {
		sess.setState(StateErrored)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.logger.Error("transcription_failed", slog.String("error", err.Error()))
		return nil, errorsx.Wrap(err, errorsx.ReasonStreaming)
	}

	sess.setState(StateClosed)
	c.observer.RecordEvent(metrics.Event{
		Name:  metrics.EventSessionComplete,
		Time:  time.Now(),
		Value: float64(len(sentences)),
	})
	c.logger.Info("transcription_completed",
		slog.String("transaction_id", cfg.TransactionID),
		slog.Int("sentences", len(sentences)))
	return sentences, nil
}
