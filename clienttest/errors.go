package clienttest

import (
	"errors"
)

var ErrCorrelationNotFound = errors.New("no matching execution found")
var ErrUnexpectedEventVariant = errors.New("unexpected event variant")
var ErrInsufficientEndpoints = errors.New("not enough endpoints for a multi-router client")
var ErrQueueCorrupted = errors.New("event queue corrupted by a previous failure")
