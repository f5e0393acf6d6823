// Package booking sends booking requests against listings and tracks, per
// listing, whether a request went out during this session.
package booking

import (
	"context"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

//go:generate mockgen -source=store.go -destination=../mocks/booking.go -package=mocks

// Store is the part of the backend the workflow talks to.
type Store interface {
	CreateBooking(ctx context.Context, b *models.BookingRequest) (string, error)
	BookingsByRequester(ctx context.Context, email string) ([]models.BookingRequest, error)
}
