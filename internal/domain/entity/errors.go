package entity

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyOpen = errors.New("interval already open")
	ErrNoOpenStart = errors.New("no open interval start")
	ErrUnknownKind = errors.New("unknown interval kind")

	ErrMalformedMessage = errors.New("malformed message")

	// ErrNotFound is returned by nearest-neighbor queries when no start lies in
	// the requested direction.
	ErrNotFound = errors.New("no interval in that direction")
	// ErrNoIntervals is a more specific ErrNotFound for an empty collection.
	ErrNoIntervals = fmt.Errorf("%w: no closed intervals", ErrNotFound)
)
