package driver

import "errors"

// ErrDriverClosed is returned by any operation submitted after Close.
var ErrDriverClosed = errors.New("driver: pool is closed")
