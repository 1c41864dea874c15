package configutil

import "testing"

type transcriptionSettings struct {
	Model       string   `mapstructure:"model"`
	SampleRate  int      `mapstructure:"sample_rate"`
	ParseNumber *bool    `mapstructure:"parse_number"`
	Hotwords    []string `mapstructure:"hotwords"`
}

func TestDecodeSettingsNormalizesKeys(t *testing.T) {
	input := map[string]any{
		"Model":       "hi-general-v2-8khz",
		"sample-rate": "8000",
		"parseNumber": true,
		"hotwords":    []any{"upi", "neft"},
	}
	var out transcriptionSettings
	if err := DecodeSettings(input, &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.Model != "hi-general-v2-8khz" {
		t.Fatalf("unexpected model: %s", out.Model)
	}
	if out.SampleRate != 8000 {
		t.Fatalf("expected weakly typed sample rate 8000, got %d", out.SampleRate)
	}
	if !BoolValue(out.ParseNumber, false) {
		t.Fatalf("expected parse_number true")
	}
	if len(out.Hotwords) != 2 {
		t.Fatalf("expected 2 hotwords, got %d", len(out.Hotwords))
	}
}

func TestDecodeSettingsEmptyInputIsNoop(t *testing.T) {
	out := transcriptionSettings{Model: "keep"}
	if err := DecodeSettings(nil, &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.Model != "keep" {
		t.Fatalf("expected untouched struct")
	}
}

func TestValidateSettingsMissingRequired(t *testing.T) {
	err := ValidateSettings(map[string]any{"sample_rate": 8000}, Schema{
		Required: []string{"model"},
		Optional: []string{"sample_rate"},
	})
	if err == nil {
		t.Fatalf("expected missing model error")
	}
}

func TestValidateSettingsUnknownKey(t *testing.T) {
	err := ValidateSettings(map[string]any{"model": "x", "bogus": 1}, Schema{
		Required: []string{"model"},
	})
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
	if ValidateSettings(map[string]any{"model": "x", "bogus": 1}, Schema{
		Required:     []string{"model"},
		AllowUnknown: true,
	}) != nil {
		t.Fatalf("expected unknown keys allowed")
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString(" ", "service_url"); err == nil {
		t.Fatalf("expected error for blank value")
	}
	if err := RequireString("wss://example", "service_url"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
