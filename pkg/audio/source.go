package audio

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
	"github.com/navana-tech/bodhi-go-sdk/pkg/logging"
)

const downloadTimeout = 30 * time.Second

// Source is a discriminated union over the three ways a caller can hand the
// SDK audio: a local path, a remote URL, or an in-memory buffer.
type Source struct {
	kind sourceKind
	path string
	url  string
	data []byte
}

type sourceKind int

const (
	kindFile sourceKind = iota
	kindURL
	kindBuffer
)

func FromFile(path string) Source {
	return Source{kind: kindFile, path: path}
}

func FromURL(rawURL string) Source {
	return Source{kind: kindURL, url: rawURL}
}

func FromBuffer(data []byte) Source {
	return Source{kind: kindBuffer, data: data}
}

// PCMStream is a resolved source: validated container parameters plus a
// reader over exactly the audio data chunk. Close releases the backing file
// and any temporary download, and is safe on every exit path.
type PCMStream struct {
	Params Params

	reader  io.Reader
	cleanup []func() error
}

func (s *PCMStream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *PCMStream) Close() error {
	var first error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil && first == nil {
			first = err
		}
	}
	s.cleanup = nil
	return first
}

// Resolver turns a Source into a playable PCMStream.
type Resolver struct {
	logger *slog.Logger
	client *http.Client
}

func NewResolver(logger *slog.Logger, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Resolver{
		logger: logging.NewComponentLogger(logger, "audio_resolver"),
		client: client,
	}
}

// Resolve validates the source, downloads it when remote, checks the
// container signature, and parses the WAV parameters. The returned stream
// must be closed by the caller regardless of how the session ends.
func (r *Resolver) Resolve(ctx context.Context, src Source) (*PCMStream, error) {
	switch src.kind {
	case kindBuffer:
		return r.resolveBytes(src.data)
	case kindURL:
		path, remove, err := r.download(ctx, src.url)
		if err != nil {
			return nil, err
		}
		stream, err := r.resolveFile(path)
		if err != nil {
			_ = remove()
			return nil, err
		}
		stream.cleanup = append(stream.cleanup, remove)
		return stream, nil
	default:
		if _, err := os.Stat(src.path); err != nil {
			r.logger.Error("audio_file_not_found", slog.String("path", src.path))
			return nil, errorsx.Newf(errorsx.ReasonFileNotFound, "audio file not found: %s", src.path)
		}
		return r.resolveFile(src.path)
	}
}

func (r *Resolver) resolveFile(path string) (*PCMStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonFileNotFound)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		_ = f.Close()
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidAudioFormat)
	}
	if !bytes.Equal(header, RIFFSignature) {
		_ = f.Close()
		r.logger.Error("invalid_audio_signature",
			slog.String("path", path),
			slog.String("header", string(header)))
		return nil, errorsx.Newf(errorsx.ReasonInvalidAudioFormat,
			"invalid audio file format: expected WAV file, got file with header %q", header)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidAudioFormat)
	}

	params, err := ReadParams(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.logger.Debug("audio_resolved",
		slog.Int("channels", params.Channels),
		slog.Int("sample_rate", params.SampleRate),
		slog.Int("frame_count", params.FrameCount))

	return &PCMStream{
		Params:  params,
		reader:  io.LimitReader(f, int64(params.FrameCount*params.BlockAlign())),
		cleanup: []func() error{f.Close},
	}, nil
}

func (r *Resolver) resolveBytes(data []byte) (*PCMStream, error) {
	if len(data) == 0 {
		return nil, errorsx.New(errorsx.ReasonEmptyAudio, "audio buffer is empty")
	}
	if len(data) < 4 || !bytes.Equal(data[:4], RIFFSignature) {
		return nil, errorsx.New(errorsx.ReasonInvalidAudioFormat,
			"invalid audio buffer: expected RIFF container signature")
	}
	reader := bytes.NewReader(data)
	params, err := ReadParams(reader)
	if err != nil {
		return nil, err
	}
	return &PCMStream{
		Params: params,
		reader: io.LimitReader(reader, int64(params.FrameCount*params.BlockAlign())),
	}, nil
}

// download fetches a remote source into a temporary file. Validation of the
// URL scheme happens before any network request is made.
func (r *Resolver) download(ctx context.Context, rawURL string) (string, func() error, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		r.logger.Error("invalid_audio_url", slog.String("url", rawURL))
		return "", nil, errorsx.Newf(errorsx.ReasonInvalidURL, "invalid URL format: %s", rawURL)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, errorsx.Wrap(err, errorsx.ReasonInvalidURL)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("audio_download_failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return "", nil, errorsx.Wrap(err, errorsx.ReasonAudioDownload)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Error("audio_download_bad_status",
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode))
		return "", nil, errorsx.Newf(errorsx.ReasonAudioDownload,
			"failed to download audio from URL: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "bodhi-audio-*")
	if err != nil {
		return "", nil, errorsx.Wrap(err, errorsx.ReasonAudioDownload)
	}
	remove := func() error {
		return os.Remove(tmp.Name())
	}

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = remove()
		return "", nil, errorsx.Wrap(err, errorsx.ReasonAudioDownload)
	}
	if written == 0 {
		_ = remove()
		r.logger.Error("audio_download_empty", slog.String("url", rawURL))
		return "", nil, errorsx.New(errorsx.ReasonEmptyAudio, "downloaded audio file is empty")
	}
	r.logger.Debug("audio_downloaded",
		slog.String("url", rawURL),
		slog.Int64("bytes", written))
	return tmp.Name(), remove, nil
}
