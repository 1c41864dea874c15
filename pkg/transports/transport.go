package transports

import "context"

// Connection is the duplex line to the transcription service for one session.
// Audio goes out as binary messages, control messages (config, end-of-stream
// marker) as text. Implementations must allow one goroutine sending while
// another receives; writes are serialized internally.
type Connection interface {
	// SendBinary writes one audio frame.
	SendBinary(data []byte) error
	// SendText writes one structured control message.
	SendText(text string) error
	// Recv blocks until the next service message arrives, the connection
	// closes, or ctx is done. Context errors are returned unwrapped.
	Recv(ctx context.Context) ([]byte, error)
	// Closed reports whether the connection is no longer usable. Senders
	// check this to skip writes racing a service-side close.
	Closed() bool
	Close() error
}

// Dialer opens a Connection for one streaming session.
type Dialer interface {
	Dial(ctx context.Context) (Connection, error)
}
