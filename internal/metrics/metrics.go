// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Memo metrics
	IncMemoCreated()
	IncMemoUpdated()
	IncMemoDeleted()
	IncMemoNotFound()

	// Route guard metrics
	IncGuardDenied(kind string) // kind: "redirect" or "unauthorized"

	// Identity metrics
	IncSignUp()
	IncSignIn(status string) // status: "success", "failed" or "limited"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
