package docstore

import (
	"errors"
)

var ErrNoHostsConfigured = errors.New("no hosts configured")
var ErrClientDisconnected = errors.New("client is disconnected")
var ErrNoBackendAvailable = errors.New("no backend available")
var ErrInvalidURI = errors.New("invalid connection uri")
var ErrInvalidDocumentJSON = errors.New("document json is not valid")
var ErrCommandFailed = errors.New("command execution failed")
var ErrUnknownCommand = errors.New("unknown command")
var ErrInvalidFailPoint = errors.New("invalid fail point document")

// RequestIDInt64 is a type alias for int64, representing the correlation key
// linking a command's started event to its terminal event.
type RequestIDInt64 = int64
