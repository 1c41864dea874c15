package bodhi

import (
	"context"
	"sync/atomic"

	"github.com/navana-tech/bodhi-go-sdk/pkg/transports"
)

// SessionState tracks where a streaming session is in its lifecycle.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateConnecting
	StateConfigured
	StateStreaming
	StateFinishing
	StateClosed
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConfigured:
		return "configured"
	case StateStreaming:
		return "streaming"
	case StateFinishing:
		return "finishing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// recvOutcome is what the in-flight receiver activity hands back on
// completion.
type recvOutcome struct {
	sentences []string
	err       error
}

// session owns exactly one connection plus the handle to the in-flight
// receiver activity. It is created on session start and dropped on every
// exit path, success or not.
type session struct {
	state  int32
	conn   transports.Connection
	cancel context.CancelFunc
	recvCh chan recvOutcome
	cb     Callbacks
}

func newSession() *session {
	return &session{state: int32(StateIdle)}
}

func (s *session) State() SessionState {
	return SessionState(atomic.LoadInt32(&s.state))
}

func (s *session) setState(st SessionState) {
	atomic.StoreInt32(&s.state, int32(st))
}

// teardown closes the connection and stops the receiver. Safe to call on
// every exit path; the connection reference is dropped so nothing can send
// after close.
func (s *session) teardown() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
