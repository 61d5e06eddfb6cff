package flex

import "fmt"

// NetworkError wraps a transport-level failure (DNS, dial, timeout).
// Never retried.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("flex: network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError covers non-2xx responses, malformed handshake bodies and
// missing reference codes. Never retried.
type ProtocolError struct {
	Phase   string
	Status  int
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("flex: %s returned status %d: %s", e.Phase, e.Status, e.Message)
	}
	return fmt.Sprintf("flex: %s: %s", e.Phase, e.Message)
}

// NotReadyError means the service answered with the 1019 marker: the
// statement is still generating server-side. This is the only retryable
// error kind.
type NotReadyError struct {
	Attempt int
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("flex: statement generation in progress (attempt %d)", e.Attempt)
}

// RetriesExhaustedError is returned after every attempt came back not
// ready. It is distinct from a single NotReadyError so callers can tell
// "still generating, try later" apart from a permanent failure.
type RetriesExhaustedError struct {
	Attempts int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("flex: statement still generating after %d attempts", e.Attempts)
}
