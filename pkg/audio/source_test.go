package audio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
)

func writeTempWAV(t *testing.T, pcm []byte, sampleRate, channels int) string {
	t.Helper()
	data, err := EncodeWAV(pcm, sampleRate, channels, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write error: %v", err)
	}
	return path
}

func TestResolveLocalFile(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	path := writeTempWAV(t, pcm, 8000, 1)

	r := NewResolver(nil, nil)
	stream, err := r.Resolve(context.Background(), FromFile(path))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	defer stream.Close()

	if stream.Params.SampleRate != 8000 || stream.Params.FrameCount != 4 {
		t.Fatalf("unexpected params: %+v", stream.Params)
	}
	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(got) != string(pcm) {
		t.Fatalf("expected data chunk only, got %d bytes", len(got))
	}
}

func TestResolveMissingFile(t *testing.T) {
	r := NewResolver(nil, nil)
	_, err := r.Resolve(context.Background(), FromFile(filepath.Join(t.TempDir(), "nope.wav")))
	if !errorsx.HasReason(err, errorsx.ReasonFileNotFound) {
		t.Fatalf("expected file_not_found, got %v", err)
	}
}

func TestResolveRejectsBadSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ogg")
	if err := os.WriteFile(path, append([]byte("OggS"), make([]byte, 64)...), 0o600); err != nil {
		t.Fatalf("write error: %v", err)
	}
	r := NewResolver(nil, nil)
	_, err := r.Resolve(context.Background(), FromFile(path))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidAudioFormat) {
		t.Fatalf("expected invalid_audio_format, got %v", err)
	}
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestResolveRejectsBadSchemeWithoutRequest(t *testing.T) {
	ct := &countingTransport{}
	r := NewResolver(nil, &http.Client{Transport: ct})
	_, err := r.Resolve(context.Background(), FromURL("ftp://example.com/audio.wav"))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidURL) {
		t.Fatalf("expected invalid_url, got %v", err)
	}
	if n := ct.calls.Load(); n != 0 {
		t.Fatalf("expected no network request, got %d", n)
	}
}

func TestResolveEmptyDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewResolver(nil, srv.Client())
	_, err := r.Resolve(context.Background(), FromURL(srv.URL+"/empty.wav"))
	if !errorsx.HasReason(err, errorsx.ReasonEmptyAudio) {
		t.Fatalf("expected empty_audio, got %v", err)
	}
}

func TestResolveDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(nil, srv.Client())
	_, err := r.Resolve(context.Background(), FromURL(srv.URL+"/missing.wav"))
	if !errorsx.HasReason(err, errorsx.ReasonAudioDownload) {
		t.Fatalf("expected audio_download, got %v", err)
	}
}

func TestResolveRemoteWAV(t *testing.T) {
	pcm := make([]byte, 320)
	wav, err := EncodeWAV(pcm, 16000, 1, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	r := NewResolver(nil, srv.Client())
	stream, err := r.Resolve(context.Background(), FromURL(srv.URL+"/sample.wav"))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	defer stream.Close()
	if stream.Params.SampleRate != 16000 || stream.Params.FrameCount != 160 {
		t.Fatalf("unexpected params: %+v", stream.Params)
	}
}

func TestResolveBuffer(t *testing.T) {
	pcm := make([]byte, 64)
	wav, err := EncodeWAV(pcm, 8000, 1, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	r := NewResolver(nil, nil)
	stream, err := r.Resolve(context.Background(), FromBuffer(wav))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	defer stream.Close()
	if stream.Params.FrameCount != 32 {
		t.Fatalf("unexpected params: %+v", stream.Params)
	}

	if _, err := r.Resolve(context.Background(), FromBuffer(nil)); !errorsx.HasReason(err, errorsx.ReasonEmptyAudio) {
		t.Fatalf("expected empty_audio for nil buffer, got %v", err)
	}
}
