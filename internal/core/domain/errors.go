package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector or extractor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrScanInProgress indicates a scan is already running.
	ErrScanInProgress = errors.New("scan in progress")

	// Pipeline Errors.

	// ErrInvalidCandidate indicates a candidate failed the structural
	// address grammar. The candidate is dropped and counted, never fatal.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrMalformedSource indicates a text block was unreadable or
	// undecodable. The block is logged and skipped, the run continues.
	ErrMalformedSource = errors.New("malformed source data")

	// Configuration Errors.

	// ErrInvalidConfig indicates invalid run configuration, such as an
	// out-of-range similarity threshold or a missing exclusion file.
	// Configuration errors are fatal before processing begins.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Connector Errors.

	// ErrConnectorValidation indicates connector validation failed.
	// The scan root is missing or not a directory.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")
)
