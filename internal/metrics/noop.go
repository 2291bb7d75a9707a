package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncMemoCreated is a no-op.
func (n *NoopRecorder) IncMemoCreated() {}

// IncMemoUpdated is a no-op.
func (n *NoopRecorder) IncMemoUpdated() {}

// IncMemoDeleted is a no-op.
func (n *NoopRecorder) IncMemoDeleted() {}

// IncMemoNotFound is a no-op.
func (n *NoopRecorder) IncMemoNotFound() {}

// IncGuardDenied is a no-op.
func (n *NoopRecorder) IncGuardDenied(kind string) {}

// IncSignUp is a no-op.
func (n *NoopRecorder) IncSignUp() {}

// IncSignIn is a no-op.
func (n *NoopRecorder) IncSignIn(status string) {}
