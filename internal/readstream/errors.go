package readstream

import "errors"

var (
	ErrOffline            = errors.New("readstream: offline")
	ErrNetworkUnavailable = errors.New("readstream: network unavailable")
	ErrFileNotFound       = errors.New("readstream: file not found")
	ErrNotOpen            = errors.New("readstream: not open")
	ErrAlreadyOpen        = errors.New("readstream: already open")
	ErrDisposed           = errors.New("readstream: disposed")
	ErrCancelled          = errors.New("readstream: cancelled")
)
