// Package metrics provides lightweight operational counters.
package metrics

// Recorder records operational metrics.
type Recorder interface {
	// IncDocumentInserted increments the insert counter for a collection.
	IncDocumentInserted(collection string)

	// IncDocumentUpdated increments the update counter for a collection.
	IncDocumentUpdated(collection string)

	// IncDocumentRemoved increments the remove counter for a collection.
	IncDocumentRemoved(collection string)

	// IncChangeEventPublished increments the change feed counter.
	// status is "success" or "dropped".
	IncChangeEventPublished(status string)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncDocumentInserted(collection string) {}
func (n *NoopRecorder) IncDocumentUpdated(collection string)  {}
func (n *NoopRecorder) IncDocumentRemoved(collection string)  {}
func (n *NoopRecorder) IncChangeEventPublished(status string) {}
