package aggregators

import (
	"context"
	"errors"
	"testing"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/transports/mock"
)

func TestProcessStreamCollectsCompleteSegments(t *testing.T) {
	conn := mock.NewConn()
	conn.Push([]byte(`{"call_id":"c1","segment_id":1,"eos":false,"type":"partial","text":"hel"}`))
	conn.Push([]byte(`{"call_id":"c1","segment_id":1,"eos":false,"type":"complete","text":"hello"}`))
	conn.Push([]byte(`{"call_id":"c1","segment_id":2,"eos":false,"type":"partial","text":"wor"}`))
	conn.Push([]byte(`{"call_id":"c1","segment_id":2,"eos":false,"type":"complete","text":"world"}`))
	conn.Push([]byte(`{"call_id":"c1","segment_id":2,"eos":true,"type":"partial","text":""}`))

	var seen []Response
	consumer := NewStreamConsumer(nil)
	sentences, err := consumer.ProcessTranscriptionStream(context.Background(), conn, func(r Response) {
		seen = append(seen, r)
	})
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(sentences) != 2 || sentences[0] != "hello" || sentences[1] != "world" {
		t.Fatalf("unexpected sentences: %v", sentences)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 callbacks, got %d", len(seen))
	}
	if !seen[4].EOS {
		t.Fatalf("expected final callback to carry eos")
	}
}

func TestProcessStreamIgnoresEmptyCompletes(t *testing.T) {
	conn := mock.NewConn()
	conn.Push([]byte(`{"segment_id":1,"type":"complete","text":""}`))
	conn.Push([]byte(`{"segment_id":1,"eos":true,"type":"complete","text":"done"}`))

	consumer := NewStreamConsumer(nil)
	sentences, err := consumer.ProcessTranscriptionStream(context.Background(), conn, nil)
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(sentences) != 1 || sentences[0] != "done" {
		t.Fatalf("unexpected sentences: %v", sentences)
	}
}

func TestProcessStreamServiceError(t *testing.T) {
	conn := mock.NewConn()
	conn.Push([]byte(`{"error":"model not found","message":"unknown model id","code":404}`))

	consumer := NewStreamConsumer(nil)
	_, err := consumer.ProcessTranscriptionStream(context.Background(), conn, nil)
	if !errorsx.HasReason(err, errorsx.ReasonAPIError) {
		t.Fatalf("expected api_error, got %v", err)
	}
}

func TestProcessStreamInvalidJSON(t *testing.T) {
	conn := mock.NewConn()
	conn.Push([]byte(`{not json`))

	consumer := NewStreamConsumer(nil)
	_, err := consumer.ProcessTranscriptionStream(context.Background(), conn, nil)
	if !errorsx.HasReason(err, errorsx.ReasonInvalidJSON) {
		t.Fatalf("expected invalid_json, got %v", err)
	}
}

func TestProcessStreamCancellationIsUnwrapped(t *testing.T) {
	conn := mock.NewConn()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	consumer := NewStreamConsumer(nil)
	_, err := consumer.ProcessTranscriptionStream(ctx, conn, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var ce errorsx.ClientError
	if errors.As(err, &ce) {
		t.Fatalf("cancellation must not be wrapped, got %v", err)
	}
}

func TestSendConfigRecordsTextFrame(t *testing.T) {
	conn := mock.NewConn()
	consumer := NewStreamConsumer(nil)
	if err := consumer.SendConfig(conn, map[string]any{"model": "hi-general-v2-8khz"}); err != nil {
		t.Fatalf("send config error: %v", err)
	}
	sent := conn.Sent()
	if len(sent) != 1 || !sent[0].Text {
		t.Fatalf("expected one text frame, got %+v", sent)
	}
}
