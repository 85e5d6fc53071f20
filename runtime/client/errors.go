package client

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownModel is returned by Client.Model for a name the registry
	// does not hold.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnexpectedResult is returned when a pipeline result does not have
	// the shape the verb promises, for example a list from findUnique.
	ErrUnexpectedResult = errors.New("unexpected result shape")
)
