package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a delete targets a report the store no longer has.
var ErrNotFound = errors.New("report not found")

// ValidationError rejects input before any call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s cannot be empty", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// TransportError means the request never produced a usable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	switch e.Op {
	case "dashboard":
		return "failed to load dashboard data"
	case "ask":
		return "failed to connect to the server"
	}
	return fmt.Sprintf("failed to %s", e.Op)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError carries the message of a request the service rejected.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return "an unknown error occurred"
	}
	return e.Message
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotFound) {
		return "Report not found"
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Error()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}
