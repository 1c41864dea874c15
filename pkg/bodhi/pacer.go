package bodhi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/metrics"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
)

// eofMarker is the structured end-of-stream message. It is always the last
// outbound message of a session, sent as text so the service can tell it
// apart from binary audio.
const eofMarker = `{"eof": 1}`

// frameDuration is the amount of audio carried by one frame, which is also
// the default pacing delay between frames. This keeps file playback near
// real time regardless of file length.
const frameDuration = 100 * time.Millisecond

// frameSizeForRate returns the frame size in sample-frames for a container
// sample rate.
func frameSizeForRate(sampleRate int) int {
	return int(math.Round(float64(sampleRate) * frameDuration.Seconds()))
}

// framePacer streams file audio to the connection in fixed-size frames with
// a pacing delay between reads, then signals end of stream.
type framePacer struct {
	logger   *slog.Logger
	observer metrics.Observer
	interval time.Duration // <0 disables pacing
}

// stream reads frameBytes-sized chunks until r is exhausted, sending each
// unless the connection already reports closed. A closed connection is a
// benign race with the service, not an error; read and send failures are.
func (p *framePacer) stream(ctx context.Context, conn transports.Connection, r io.Reader, frameBytes int) error {
	if frameBytes <= 0 {
		return errorsx.Newf(errorsx.ReasonStreaming, "frame size must be positive, got %d", frameBytes)
	}
	buf := make([]byte, frameBytes)
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			if !conn.Closed() {
				if err := conn.SendBinary(buf[:n]); err != nil {
					p.logger.Error("audio_frame_send_failed",
						slog.Int("bytes", n),
						slog.String("error", err.Error()))
					return errorsx.Wrap(err, errorsx.ReasonStreaming)
				}
				p.observer.RecordEvent(metrics.Event{
					Name:  metrics.EventFrameSent,
					Time:  time.Now(),
					Value: float64(n),
				})
				p.logger.Debug("audio_frame_sent", slog.Int("bytes", n))
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				break
			}
			p.logger.Error("audio_read_failed", slog.String("error", rerr.Error()))
			return errorsx.Wrap(rerr, errorsx.ReasonStreaming)
		}
		if err := p.pause(ctx); err != nil {
			return err
		}
	}
	return p.sendEOF(conn)
}

// pause waits the pacing interval, unwinding early on cancellation.
func (p *framePacer) pause(ctx context.Context) error {
	if p.interval <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sendEOF emits the end-of-stream marker unless the connection is closed.
func (p *framePacer) sendEOF(conn transports.Connection) error {
	if conn.Closed() {
		p.logger.Debug("eof_skipped_connection_closed")
		return nil
	}
	if err := conn.SendText(eofMarker); err != nil {
		p.logger.Error("eof_send_failed", slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonStreaming)
	}
	p.observer.RecordEvent(metrics.Event{Name: metrics.EventEOFSent, Time: time.Now()})
	p.logger.Debug("eof_sent")
	return nil
}

// relay forwards a caller-supplied audio chunk in a single unpaced send,
// skipped when the connection is closed. The caller controls session
// termination separately.
func relay(conn transports.Connection, logger *slog.Logger, data []byte) error {
	if conn.Closed() {
		logger.Debug("audio_relay_skipped_connection_closed", slog.Int("bytes", len(data)))
		return nil
	}
	if err := conn.SendBinary(data); err != nil {
		logger.Error("audio_relay_failed",
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonStreaming)
	}
	logger.Debug("audio_relayed", slog.Int("bytes", len(data)))
	return nil
}
