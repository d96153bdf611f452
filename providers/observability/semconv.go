package observability

// Semantic conventions for observability attributes: standard attribute
// names shared across every span/log/metric the engine emits, independent
// of which component (compiler or runtime) is instrumented.

const (
	// AttrError is the error message.
	AttrError = "error"

	// AttrErrorType is the error type/class.
	AttrErrorType = "error.type"

	// AttrDuration is the operation duration.
	AttrDuration = "duration"

	// AttrStatus is the operation status.
	AttrStatus = "status"

	// AttrStatusDescription is the description recorded with a span status.
	AttrStatusDescription = "status.description"
)
