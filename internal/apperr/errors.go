// Package apperr defines the sentinel errors shared across the
// annotator core and its surfaces.
package apperr

import "errors"

var (
	// ErrNotFound: the addressed record, annotation or segment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoSession: the operation needs an open library session.
	ErrNoSession = errors.New("no open session")

	// ErrDiscovery: the library root could not be scanned. No partial
	// result accompanies this error.
	ErrDiscovery = errors.New("library discovery failed")

	// ErrCorruptStore: the sidecar exists but is not valid JSON.
	ErrCorruptStore = errors.New("annotation store is corrupt")

	// ErrUnknownFile: a mutation addressed a path outside the working list.
	ErrUnknownFile = errors.New("file not in working list")

	// ErrKindMismatch: an image-only operation hit a video, or the reverse.
	ErrKindMismatch = errors.New("operation does not apply to this media kind")

	// ErrInvalid: a request argument is out of range or unparseable.
	ErrInvalid = errors.New("invalid argument")
)
