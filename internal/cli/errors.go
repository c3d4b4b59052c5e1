package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrInvalidData indicates a --data value that could not be read.
	ErrInvalidData = errors.New("invalid request data")

	// ErrInvalidFormat indicates an unsupported --format value.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrOutputExists indicates the --output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrInvalidTimeout indicates a non-positive --timeout value.
	ErrInvalidTimeout = errors.New("invalid timeout")
)
