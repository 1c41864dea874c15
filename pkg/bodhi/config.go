package bodhi

import (
	"github.com/google/uuid"
	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
)

// TranscriptionConfig describes one transcription request. Model is the only
// required field; everything else has a meaningful zero value and is omitted
// from the wire config when unset.
type TranscriptionConfig struct {
	// Model is the service-side model identifier, e.g. "hi-general-v2-8khz".
	Model string
	// TransactionID correlates the session across systems. Generated once
	// per config when left empty.
	TransactionID string
	// ParseNumber asks the service to normalize spoken numbers.
	ParseNumber bool
	// Hotwords bias recognition toward domain terms.
	Hotwords []string
	// Aux carries opaque service-specific flags.
	Aux map[string]any
	// ExcludePartial suppresses partial results on the stream.
	ExcludePartial bool
	// SampleRate in Hz. For file sources this is always overwritten with the
	// rate read from the audio container.
	SampleRate int
}

// negotiate validates the config and produces the wire-ready mapping sent as
// the first message of a session. The transaction id is generated exactly
// once: repeated negotiation of the same config reuses it.
func (c *TranscriptionConfig) negotiate() (map[string]any, error) {
	if c.Model == "" {
		return nil, errorsx.New(errorsx.ReasonConfiguration, "config must include 'model' field")
	}
	if c.TransactionID == "" {
		c.TransactionID = uuid.NewString()
	}
	wire := map[string]any{
		"model":          c.Model,
		"transaction_id": c.TransactionID,
	}
	if c.ParseNumber {
		wire["parse_number"] = true
	}
	if len(c.Hotwords) > 0 {
		wire["hotwords"] = c.Hotwords
	}
	if len(c.Aux) > 0 {
		wire["aux"] = c.Aux
	}
	if c.ExcludePartial {
		wire["exclude_partial"] = true
	}
	if c.SampleRate > 0 {
		wire["sample_rate"] = c.SampleRate
	}
	return wire, nil
}
