package ports

import "time"

// MetricsRecorder receives operation outcomes from the domain services.
type MetricsRecorder interface {
	// ObserveOperation counts one call of op with its outcome
	// ("ok", "rejected" or "error").
	ObserveOperation(op, outcome string)

	// ObserveRevisionConflict counts one compare-and-swap retry.
	ObserveRevisionConflict()

	// ObserveMerge records the duration of a completed merge.
	ObserveMerge(d time.Duration)
}
