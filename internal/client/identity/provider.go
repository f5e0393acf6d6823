// Package identity signs principals in and out against an external
// identity provider and notifies subscribers whenever the principal
// changes.
package identity

import (
	"context"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

// RegisterRequest carries the fields of a new account. Password is wiped by
// the caller once the call returns.
type RegisterRequest struct {
	DisplayName string `validate:"required"`
	Email       string `validate:"required,email"`
	Password    []byte `validate:"-"`
	PhotoURL    string `validate:"omitempty,url"`
}

// Provider is the identity capability used by the session gate.
//
// OnPrincipalChange delivers the current principal (nil when signed out)
// after every change. If the provider has already resolved its initial
// state the callback is also invoked once right away. The returned function
// removes the subscription.
type Provider interface {
	SignInInteractive(ctx context.Context) (*models.Principal, error)
	SignInWithCredentials(ctx context.Context, email string, password []byte) (*models.Principal, error)
	Register(ctx context.Context, req RegisterRequest) (*models.Principal, error)
	SignOut(ctx context.Context) error
	OnPrincipalChange(fn func(*models.Principal)) (unsubscribe func())
}

// Prompter collects credentials for interactive sign-in.
type Prompter interface {
	PromptCredentials(ctx context.Context) (email string, password []byte, err error)
}
