package aggregators

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/logging"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
)

// SegmentType values emitted by the transcription service.
const (
	SegmentPartial  = "partial"
	SegmentComplete = "complete"
)

// Response is one incremental transcription message from the service.
type Response struct {
	CallID    string `json:"call_id"`
	SegmentID int    `json:"segment_id"`
	EOS       bool   `json:"eos"`
	Type      string `json:"type"`
	Text      string `json:"text"`
}

// serviceError is the error payload shape the service sends in-stream.
type serviceError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StreamConsumer reads service messages off a connection and assembles the
// final ordered sentence list. One consumer serves one session at a time.
type StreamConsumer struct {
	logger *slog.Logger
}

func NewStreamConsumer(logger *slog.Logger) *StreamConsumer {
	return &StreamConsumer{
		logger: logging.NewComponentLogger(logger, "stream_consumer"),
	}
}

// SendConfig sends the wire-ready session configuration as the first message
// on the connection.
func (c *StreamConsumer) SendConfig(conn transports.Connection, wire map[string]any) error {
	payload, err := json.Marshal(wire)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	if err := conn.SendText(string(payload)); err != nil {
		c.logger.Error("config_send_failed", slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonConnection)
	}
	c.logger.Debug("config_sent", slog.Int("bytes", len(payload)))
	return nil
}

// ProcessTranscriptionStream consumes service messages until the service
// signals end of stream, returning the completed sentences in emission order.
// onResult, when set, is invoked for every intermediate response.
func (c *StreamConsumer) ProcessTranscriptionStream(ctx context.Context, conn transports.Connection, onResult func(Response)) ([]string, error) {
	var sentences []string
	for {
		data, err := conn.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			c.logger.Error("stream_receive_failed", slog.String("error", err.Error()))
			return nil, errorsx.Wrap(err, errorsx.ReasonStreaming)
		}

		var svcErr serviceError
		if json.Unmarshal(data, &svcErr) == nil && svcErr.Error != "" {
			c.logger.Error("service_error_received",
				slog.String("error", svcErr.Error),
				slog.String("message", svcErr.Message),
				slog.Int("code", svcErr.Code))
			return nil, errorsx.Newf(errorsx.ReasonAPIError, "service error: %s", svcErr.Error)
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Error("invalid_service_message", slog.String("error", err.Error()))
			return nil, errorsx.Wrap(err, errorsx.ReasonInvalidJSON)
		}

		if onResult != nil {
			onResult(resp)
		}
		if resp.Type == SegmentComplete && resp.Text != "" {
			sentences = append(sentences, resp.Text)
			c.logger.Debug("sentence_completed",
				slog.Int("segment_id", resp.SegmentID),
				slog.String("text", resp.Text))
		}
		if resp.EOS {
			c.logger.Debug("service_end_of_stream", slog.Int("sentences", len(sentences)))
			return sentences, nil
		}
	}
}
