package backend

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
)

func (c *Client) ListListings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, "load listings", http.MethodGet, c.endpoint("listings"), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// GetListing returns a NotFound failure when the id is unknown, whether the
// backend says so with a 404 or with a null body.
func (c *Client) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var out *models.Listing
	if err := c.do(ctx, "load listing", http.MethodGet, c.endpoint("listings", id), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, failure.Newf(failure.ErrNotFound, "listing %s not found", id)
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

func (c *Client) ListingsByOwner(ctx context.Context, email string) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, "load my listings", http.MethodGet, c.endpoint("listings", "by-owner", email), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateListing returns the id assigned by the store.
func (c *Client) CreateListing(ctx context.Context, l *models.Listing) (string, error) {
	const op = "create listing"
	var a ack
	if err := c.do(ctx, op, http.MethodPost, c.endpoint("listings"), l, &a); err != nil {
		return "", err
	}
	return a.insertedID(op)
}

func (c *Client) UpdateListing(ctx context.Context, id string, l *models.Listing) error {
	const op = "update listing"
	var a ack
	if err := c.do(ctx, op, http.MethodPut, c.endpoint("listings", id), l, &a); err != nil {
		return err
	}
	return a.updated(op)
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	const op = "delete listing"
	var a ack
	if err := c.do(ctx, op, http.MethodDelete, c.endpoint("listings", id), nil, &a); err != nil {
		return err
	}
	return a.deleted(op)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
