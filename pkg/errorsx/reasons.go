package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// ReasonConfiguration marks an invalid or incomplete transcription config.
	ReasonConfiguration ReasonCode = "configuration"
	// ReasonConnection marks a handshake or session-start failure.
	ReasonConnection ReasonCode = "connection"
	// ReasonStreaming marks a mid-session send or receive failure.
	ReasonStreaming ReasonCode = "streaming"

	ReasonInvalidURL         ReasonCode = "invalid_url"
	ReasonInvalidAudioFormat ReasonCode = "invalid_audio_format"
	ReasonEmptyAudio         ReasonCode = "empty_audio"
	ReasonAudioDownload      ReasonCode = "audio_download"
	ReasonFileNotFound       ReasonCode = "file_not_found"

	// ReasonInvalidJSON marks an unparseable service message.
	ReasonInvalidJSON ReasonCode = "invalid_json"
	// ReasonAPIError marks an explicit error payload from the service.
	ReasonAPIError ReasonCode = "api_error"
)
