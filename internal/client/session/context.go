// Package session holds the signed-in principal for the lifetime of the
// client and hands it to other components as an explicit Context value.
package session

import (
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
)

// Context is a snapshot of the session passed into operations that act on
// behalf of the user.
type Context struct {
	Principal *models.Principal
	Resolved  bool
}

// Authenticated reports whether a principal is present.
func (c Context) Authenticated() bool {
	return c.Principal != nil
}

// Require returns the principal or an Unauthenticated failure.
func (c Context) Require() (*models.Principal, error) {
	if c.Principal != nil {
		return c.Principal, nil
	}
	if !c.Resolved {
		return nil, failure.WithHint(
			failure.New(failure.ErrUnauthenticated, "session is still loading"),
			"Try again in a moment.")
	}
	return nil, failure.WithHint(
		failure.New(failure.ErrUnauthenticated, "you are not signed in"),
		"Run 'login' first.")
}

// Signed returns a resolved Context for p. Useful for callers that already
// hold a principal.
func Signed(p *models.Principal) Context {
	return Context{Principal: p, Resolved: true}
}
