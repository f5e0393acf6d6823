// Package pipeline creates, updates and deletes listings: validate, check
// ownership, upload the cover image, then persist the record, reporting a
// status at each stage.
package pipeline

import (
	"context"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

//go:generate mockgen -source=store.go -destination=../mocks/pipeline.go -package=mocks

// ListingStore is the part of the backend the pipeline writes to.
type ListingStore interface {
	CreateListing(ctx context.Context, l *models.Listing) (string, error)
	UpdateListing(ctx context.Context, id string, l *models.Listing) error
	DeleteListing(ctx context.Context, id string) error
}
