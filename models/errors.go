package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference is returned when an edge names a vertex the graph does not hold
	ErrInvalidReference = errors.New("invalid vertex reference")
	// ErrInsufficientData is returned when a fetch yields too few entities to lay out
	ErrInsufficientData = errors.New("insufficient data")
	// ErrVertexNotFound is returned by lookups on unknown ids
	ErrVertexNotFound = errors.New("vertex not found")
)

// ReferenceError names the endpoint that could not be resolved
type ReferenceError struct {
	ID   string
	Role string // "source" or "target"
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s vertex with ID %s does not exist in the graph", e.Role, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return ErrInvalidReference
}
