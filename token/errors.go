package token

import "errors"

var (
	// ErrStoreUnavailable is an exported constant or variable used by the session core.
	// Redis and file backends wrap transport and filesystem faults in it.
	ErrStoreUnavailable = errors.New("token store unavailable")

	// ErrNilClient is an exported constant or variable used by the session core.
	ErrNilClient = errors.New("nil redis client")

	// ErrNilStore is an exported constant or variable used by the session core.
	ErrNilStore = errors.New("nil tiered store")

	// ErrEmptyPath is an exported constant or variable used by the session core.
	ErrEmptyPath = errors.New("empty file store path")

	// ErrCorruptRecord is an exported constant or variable used by the session core.
	// Returned when a persisted file store record fails structural decoding.
	ErrCorruptRecord = errors.New("corrupt token record")

	// ErrUnsupportedVersion is an exported constant or variable used by the session core.
	ErrUnsupportedVersion = errors.New("unsupported token record version")

	// ErrRefreshDiscarded is an exported constant or variable used by the session core.
	// A refresh flight returns it when the token store was cleared or
	// replaced while the flight was on the wire.
	ErrRefreshDiscarded = errors.New("refresh result discarded")
)
