package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
)

// mapError turns transport and status errors into failure kinds. This is
// the only place HTTP statuses are interpreted. For a mutation every refusal
// other than 401 and 403 is a rejection: the request reached the store and
// was not applied.
func mapError(op string, mutation bool, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return failure.WithHint(
			failure.Wrap(err, failure.ErrPersistTransport, op+": backend unavailable"),
			"Try again in a few seconds.")
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusNotFound:
			return failure.Wrap(err, failure.ErrNotFound, op)
		case se.StatusCode == http.StatusUnauthorized:
			return failure.Wrap(err, failure.ErrUnauthenticated, op)
		case se.StatusCode == http.StatusForbidden:
			return failure.Wrap(err, failure.ErrAccessDenied, op)
		case mutation:
			return failure.Wrap(err, failure.ErrPersistRejected, op)
		case se.StatusCode >= http.StatusInternalServerError:
			return failure.Wrap(err, failure.ErrPersistTransport, op)
		default:
			return failure.Wrap(err, failure.ErrPersistRejected, op)
		}
	}

	var de *decodeError
	if errors.As(err, &de) {
		return failure.Wrap(err, failure.ErrPersistRejected, op)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(err, failure.ErrPersistTransport, op+": timed out or cancelled")
	}

	return failure.WithHint(
		failure.Wrap(err, failure.ErrPersistTransport, op),
		"Check your connection and try again.")
}
