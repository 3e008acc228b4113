package server

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports an invalid address, port or static root.
	ErrConfiguration = errors.New("configuration error")
	// ErrLifecycle reports an operation called out of order.
	ErrLifecycle = errors.New("lifecycle error")
	// ErrSocket wraps OS-level listen, accept, read and write failures.
	ErrSocket = errors.New("socket error")
)

var errNotInitialized = fmt.Errorf("%w: server has not been initialized, call Initialize first", ErrLifecycle)
