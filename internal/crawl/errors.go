package crawl

import (
	"errors"
	"fmt"
)

// Kind decides how the retry wrapper and the driver react to a failure.
type Kind int

const (
	// KindRetryable is a transient failure, network errors, timeouts and 5xx responses.
	KindRetryable Kind = iota
	// KindFatal stops the whole crawl, bad configuration or a broken invariant.
	KindFatal
	// KindAuth means the session expired and must be refreshed before trying again.
	KindAuth
	// KindMissing means the upstream data does not exist, retrying cannot help.
	KindMissing
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindFatal:
		return "fatal"
	case KindAuth:
		return "auth"
	case KindMissing:
		return "missing"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Retryable marks err as worth another attempt, nil stays nil.
func Retryable(err error) error {
	return classify(KindRetryable, err)
}

// Fatal marks err as ending the crawl.
func Fatal(err error) error {
	return classify(KindFatal, err)
}

// AuthExpired marks err as caused by an expired session.
func AuthExpired(err error) error {
	return classify(KindAuth, err)
}

// Missing reports that a required upstream field or resource does not exist.
func Missing(what string) error {
	return &Error{Kind: KindMissing, Err: fmt.Errorf("%s not found", what)}
}

// KindOf returns the kind of the outermost classified error in the chain, unclassified
// errors are retryable.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindRetryable
}
