// Package failure is the error taxonomy shared by every client component.
//
// Each kind is a sentinel error. Concrete failures are built with
// cockroachdb/errors and marked with their kind, so the original cause and
// message survive while callers can still branch on the kind:
//
//	err := failure.Newf(failure.ErrFileTooLarge, "cover image is %s", size)
//	failure.Is(err, failure.ErrFileTooLarge) // true
//	failure.KindOf(err)                       // KindFileTooLarge
//
// Standard library errors.Is does not see marks; use Is or KindOf.
package failure

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind is the discriminant of a failure, stable enough to branch on or log.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindAccessDenied      Kind = "AccessDenied"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindFileTooLarge      Kind = "FileTooLarge"
	KindUploadRejected    Kind = "UploadRejected"
	KindUploadTransport   Kind = "UploadTransportError"
	KindPersistRejected   Kind = "PersistenceRejected"
	KindPersistTransport  Kind = "PersistenceTransportError"
	KindNotFound          Kind = "NotFound"
	KindInvalidCredential Kind = "InvalidCredential"
	KindEmailInUse        Kind = "EmailInUse"
	KindWeakCredential    Kind = "WeakCredential"
	KindProviderError     Kind = "ProviderError"
	KindUnknown           Kind = "Unknown"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrAccessDenied      = errors.New("access denied")
	ErrUnauthenticated   = errors.New("sign-in required")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUploadRejected    = errors.New("upload rejected")
	ErrUploadTransport   = errors.New("upload failed")
	ErrPersistRejected   = errors.New("save rejected")
	ErrPersistTransport  = errors.New("save failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailInUse        = errors.New("email already in use")
	ErrWeakCredential    = errors.New("password too weak")
	ErrProviderError     = errors.New("identity provider error")
	ErrUnknown           = errors.New("unknown error")
)

// kinds is checked in order; the first matching mark wins.
var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrValidation, KindValidation},
	{ErrAccessDenied, KindAccessDenied},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrFileTooLarge, KindFileTooLarge},
	{ErrUploadRejected, KindUploadRejected},
	{ErrUploadTransport, KindUploadTransport},
	{ErrPersistRejected, KindPersistRejected},
	{ErrPersistTransport, KindPersistTransport},
	{ErrNotFound, KindNotFound},
	{ErrInvalidCredential, KindInvalidCredential},
	{ErrEmailInUse, KindEmailInUse},
	{ErrWeakCredential, KindWeakCredential},
	{ErrProviderError, KindProviderError},
	{ErrUnknown, KindUnknown},
}

// New returns an error with message msg marked as kind.
func New(kind error, msg string) error {
	return errors.Mark(errors.NewWithDepth(1, msg), kind)
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), kind)
}

// Wrap annotates cause with msg and marks the result as kind.
// A nil cause yields nil.
func Wrap(cause error, kind error, msg string) error {
	if cause == nil {
		return nil
	}
	return errors.Mark(errors.WrapWithDepth(1, cause, msg), kind)
}

// WithHint attaches user-facing advice, rendered by Message.
func WithHint(err error, hint string) error {
	return errors.WithHint(err, hint)
}

// Is reports whether err carries the given kind (or is the sentinel itself).
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf classifies err. Nil maps to the empty kind and anything without a
// known mark maps to KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindUnknown
}

// Message renders err as the single status line shown to the user, followed
// by any hints.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += ". " + strings.Join(hints, " ")
	}
	return msg
}
