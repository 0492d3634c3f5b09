package domain

import "errors"

var (
	// ErrDisconnected is returned by peers once the remote side has gone away.
	ErrDisconnected = errors.New("peer disconnected")
	// ErrExamStarted is returned when an operation is only valid before the gate opens.
	ErrExamStarted = errors.New("exam already started")
	// ErrExamNotFound indicates the exam content could not be loaded.
	ErrExamNotFound = errors.New("exam not found")
	// ErrInvalidQuestion indicates a question failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrStateNotFound is returned by state stores when no readable record exists.
	ErrStateNotFound = errors.New("state record not found")
	// ErrUnexpectedMessage indicates a peer sent a message type the current step does not accept.
	ErrUnexpectedMessage = errors.New("unexpected message")
)
