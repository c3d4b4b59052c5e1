package edgegrid

import "errors"

// ErrCredentialsMissing indicates the .edgerc file, section or a required key is missing.
var ErrCredentialsMissing = errors.New("edgegrid credentials missing")

// ErrInvalidBody indicates a request body could not be serialized.
var ErrInvalidBody = errors.New("invalid request body")
