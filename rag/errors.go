package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestion is returned when the question is empty.
	//lint:ignore ST1005 shown to API clients verbatim
	ErrNoQuestion = errors.New("No question provided")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRetrieval
	KindGeneration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	}
	return "unknown"
}

// Error is returned by Service.Answer.
// Its message is the underlying error's message, so it can be shown to clients as is.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " failed"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindUnknown
}

// Describe formats err with its kind and operation for logs.
func Describe(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) && rerr.Op != "" {
		return fmt.Sprintf("%s: %s: %v", rerr.Kind, rerr.Op, rerr.Err)
	}
	return err.Error()
}
