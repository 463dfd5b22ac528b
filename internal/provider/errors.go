package provider

import "errors"

// State errors are API-misuse errors; they are not retried. AlreadyOpen
// and NotOpen belong to the read stream's Open/Close lifecycle
// (internal/readstream); the provider has no such lifecycle of its own.
var (
	ErrNotReady = errors.New("provider: not ready")
	ErrDisposed = errors.New("provider: disposed")
)

// Sync errors surface from the discovery/resync path.
var (
	ErrIndexDecodeFailed   = errors.New("provider: index decode failed")
	ErrIndexMessageMissing = errors.New("provider: index message missing")
)
