package runtime

import "os"

// ServiceOption tweaks the service context before Run.
type ServiceOption func(*ServiceCtx)

// WithServiceTermination replaces the shutdown signal channel, letting
// callers trigger a graceful stop programmatically.
func WithServiceTermination(ch chan os.Signal) ServiceOption {
	return func(s *ServiceCtx) {
		s.shutdownChannel = ch
	}
}

// WithWaitingForServer arms WaitForServer so callers can block until the
// HTTP listener is accepting connections.
func WithWaitingForServer() ServiceOption {
	return func(s *ServiceCtx) {
		s.serverReady = make(chan struct{})
	}
}
