package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/travelease/internal/client/authz"
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/query"
)

// parseListArgs reads key=value arguments of the list command.
func parseListArgs(args []string) (query.Filters, query.SortKey, error) {
	var f query.Filters
	key := query.SortNone

	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return f, key, failure.Newf(failure.ErrValidation, "expected key=value, got %q", arg)
		}
		switch strings.ToLower(k) {
		case "category":
			f.Category = v
		case "location":
			f.Location = v
		case "sort":
			sk, err := query.ParseSortKey(v)
			if err != nil {
				return f, key, failure.Wrap(err, failure.ErrValidation, "invalid sort")
			}
			key = sk
		default:
			return f, key, failure.Newf(failure.ErrValidation, "unknown filter %q", k)
		}
	}
	return f, key, nil
}

// List shows every listing, filtered and sorted as requested.
func (a *App) List(ctx context.Context, args []string) error {
	filters, key, err := parseListArgs(args)
	if err != nil {
		return err
	}
	all, err := a.catalog.ListListings(ctx)
	if err != nil {
		return err
	}
	renderListings(a.out, query.DeriveView(all, filters, key))
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := singleArg("show", args)
	if err != nil {
		return err
	}
	l, err := a.catalog.GetListing(ctx, id)
	if err != nil {
		return err
	}
	sess := a.gate.Context()
	renderListing(a.out, l, authz.CanMutate(sess.Principal, l), a.bookings.Status(sess, l.ID))
	return nil
}

// Mine lists the signed-in user's own listings.
func (a *App) Mine(ctx context.Context) error {
	p, err := a.requireLogin("mine", nil)
	if err != nil {
		return err
	}
	ls, err := a.catalog.ListingsByOwner(ctx, p.Email)
	if err != nil {
		return err
	}
	renderListings(a.out, ls)
	return nil
}

func singleArg(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", failure.Newf(failure.ErrValidation, "usage: %s <id>", cmd)
	}
	return args[0], nil
}
