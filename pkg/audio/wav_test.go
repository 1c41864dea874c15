package audio

import (
	"bytes"
	"testing"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
)

func TestReadParamsRoundTrip(t *testing.T) {
	pcm := make([]byte, 6400) // 3200 frames of 16-bit mono
	data, err := EncodeWAV(pcm, 16000, 1, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	params, err := ReadParams(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read params error: %v", err)
	}
	if params.SampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", params.SampleRate)
	}
	if params.Channels != 1 {
		t.Fatalf("expected mono, got %d channels", params.Channels)
	}
	if params.SampleWidth != 2 {
		t.Fatalf("expected 2-byte samples, got %d", params.SampleWidth)
	}
	if params.FrameCount != 3200 {
		t.Fatalf("expected 3200 frames, got %d", params.FrameCount)
	}
	if params.BlockAlign() != 2 {
		t.Fatalf("expected block align 2, got %d", params.BlockAlign())
	}
}

func TestReadParamsStereo(t *testing.T) {
	pcm := make([]byte, 800) // 200 frames of 16-bit stereo
	data, err := EncodeWAV(pcm, 8000, 2, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	params, err := ReadParams(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read params error: %v", err)
	}
	if params.Channels != 2 || params.FrameCount != 200 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestReadParamsRejectsNonRIFF(t *testing.T) {
	data := append([]byte("OggS"), make([]byte, 64)...)
	_, err := ReadParams(bytes.NewReader(data))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidAudioFormat) {
		t.Fatalf("expected invalid_audio_format, got %v", err)
	}
}

func TestReadParamsRejectsNonPCM(t *testing.T) {
	pcm := make([]byte, 32)
	data, err := EncodeWAV(pcm, 8000, 1, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	data[20] = 3 // audio format: IEEE float
	_, err = ReadParams(bytes.NewReader(data))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidAudioFormat) {
		t.Fatalf("expected invalid_audio_format, got %v", err)
	}
}

func TestReadParamsRejectsSubByteDepth(t *testing.T) {
	pcm := make([]byte, 32)
	data, err := EncodeWAV(pcm, 8000, 1, 2)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	// A 4-bit depth would decode to a zero-byte sample width and a zero
	// block align, which downstream frame math must never see.
	data[34] = 4
	params, err := ReadParams(bytes.NewReader(data))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidAudioFormat) {
		t.Fatalf("expected invalid_audio_format, got params %+v err %v", params, err)
	}
}

func TestReadParamsTruncatedHeader(t *testing.T) {
	_, err := ReadParams(bytes.NewReader([]byte("RIFF")))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidAudioFormat) {
		t.Fatalf("expected invalid_audio_format, got %v", err)
	}
}
