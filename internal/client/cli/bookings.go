package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/travelease/internal/client/authz"
)

// Book requests a booking for a listing.
func (a *App) Book(ctx context.Context, args []string) error {
	id, err := singleArg("book", args)
	if err != nil {
		return err
	}
	p, err := a.requireLogin("book", args)
	if err != nil {
		return err
	}
	l, err := a.catalog.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if authz.CanMutate(p, l) {
		fmt.Fprintln(a.out, "Note: this is your own listing")
	}

	req, err := a.bookings.RequestBooking(ctx, a.gate.Context(), l)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking request sent for %s (id %s, status %s)\n", req.ListingName, req.ID, req.Status)
	return nil
}

// Bookings lists the user's booking requests.
func (a *App) Bookings(ctx context.Context) error {
	if _, err := a.requireLogin("bookings", nil); err != nil {
		return err
	}
	list, err := a.bookings.MyBookings(ctx, a.gate.Context())
	if err != nil {
		return err
	}
	renderBookings(a.out, list)
	return nil
}
