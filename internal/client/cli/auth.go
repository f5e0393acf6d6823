package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/travelease/internal/client/identity"
	"github.com/dmitrijs2005/travelease/internal/common"
)

// Register prompts for the new account's details and signs the user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	photo, err := getSimpleText(a.reader, "Photo URL (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.gate.Register(ctx, identity.RegisterRequest{
		DisplayName: name,
		Email:       email,
		Password:    password,
		PhotoURL:    photo,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", p.Label())
	return nil
}

// Login signs in through the provider's credential prompt.
func (a *App) Login(ctx context.Context) error {
	p, err := a.gate.SignInInteractive(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", p.Label())
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.gate.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.gate.Context()
	switch {
	case !sess.Resolved:
		fmt.Fprintln(a.out, "Loading session...")
	case sess.Principal == nil:
		fmt.Fprintln(a.out, "Not signed in")
	default:
		renderPrincipal(a.out, sess.Principal)
	}
	return nil
}
