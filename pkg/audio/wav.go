package audio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
)

// RIFFSignature is the 4-byte container signature required on every source.
var RIFFSignature = []byte("RIFF")

// wavHeader is the canonical 44-byte PCM WAV header layout.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// Params describes a decoded WAV container.
type Params struct {
	Channels    int
	SampleWidth int // bytes per sample
	SampleRate  int
	FrameCount  int // total sample-frames in the data chunk
}

// BlockAlign is the byte size of one sample-frame.
func (p Params) BlockAlign() int {
	return p.Channels * p.SampleWidth
}

// ReadParams parses the WAV header from r and leaves r positioned at the
// first byte of audio data. The caller is expected to have verified the RIFF
// signature already; ReadParams re-checks it as part of full validation.
func ReadParams(r io.Reader) (Params, error) {
	var header wavHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return Params{}, errorsx.Wrap(err, errorsx.ReasonInvalidAudioFormat)
	}
	if !bytes.Equal(header.ChunkID[:], RIFFSignature) {
		return Params{}, errorsx.Newf(errorsx.ReasonInvalidAudioFormat,
			"invalid audio file format: expected RIFF header, got %q", header.ChunkID[:])
	}
	if string(header.Format[:]) != "WAVE" {
		return Params{}, errorsx.New(errorsx.ReasonInvalidAudioFormat, "invalid WAV file: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return Params{}, errorsx.New(errorsx.ReasonInvalidAudioFormat, "invalid WAV file: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return Params{}, errorsx.New(errorsx.ReasonInvalidAudioFormat, "invalid WAV file: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return Params{}, errorsx.Newf(errorsx.ReasonInvalidAudioFormat,
			"unsupported audio format %d: only PCM is supported", header.AudioFormat)
	}
	if header.NumChannels == 0 || header.SampleRate == 0 || header.BitsPerSample == 0 {
		return Params{}, errorsx.New(errorsx.ReasonInvalidAudioFormat, "invalid WAV file: zero channel count, rate, or depth")
	}
	if header.BitsPerSample%8 != 0 {
		return Params{}, errorsx.Newf(errorsx.ReasonInvalidAudioFormat,
			"unsupported sample depth %d: must be a whole number of bytes", header.BitsPerSample)
	}

	params := Params{
		Channels:    int(header.NumChannels),
		SampleWidth: int(header.BitsPerSample) / 8,
		SampleRate:  int(header.SampleRate),
	}
	if align := params.BlockAlign(); align > 0 {
		params.FrameCount = int(header.Subchunk2Size) / align
	}
	return params, nil
}

// EncodeWAV builds a complete PCM WAV file from raw little-endian sample
// data. Used by tests and tooling to synthesize fixtures.
func EncodeWAV(data []byte, sampleRate, channels, sampleWidth int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 || sampleWidth <= 0 {
		return nil, errorsx.New(errorsx.ReasonInvalidAudioFormat, "sample rate, channels, and width must be positive")
	}
	blockAlign := uint16(channels * sampleWidth)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(len(data)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * sampleWidth),
		BlockAlign:    blockAlign,
		BitsPerSample: uint16(sampleWidth * 8),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(data)),
	}
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(data)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	buf.Write(data)
	return buf.Bytes(), nil
}
