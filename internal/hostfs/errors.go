package hostfs

import "errors"

var (
	ErrScannerClosed  = errors.New("hostfs: scanner is closed")
	ErrInvalidPath    = errors.New("hostfs: invalid path")
	ErrPathNotWatched = errors.New("hostfs: path is not watched")
)
