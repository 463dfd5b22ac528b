package transport

import "errors"

// Transport errors surface from Adapter implementations. RateLimited is
// expected to be retried with exponential backoff by the adapter itself;
// the others propagate to the caller.
var (
	ErrOffline            = errors.New("transport: offline")
	ErrNetworkUnavailable = errors.New("transport: network unavailable")
	ErrNotFound           = errors.New("transport: not found")
	ErrPermissionDenied   = errors.New("transport: permission denied")
	ErrRateLimited        = errors.New("transport: rate limited")
)
