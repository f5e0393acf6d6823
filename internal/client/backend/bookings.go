package backend

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

func (c *Client) CreateBooking(ctx context.Context, b *models.BookingRequest) (string, error) {
	const op = "request booking"
	var a ack
	if err := c.do(ctx, op, http.MethodPost, c.endpoint("bookings"), b, &a); err != nil {
		return "", err
	}
	return a.insertedID(op)
}

func (c *Client) BookingsByRequester(ctx context.Context, email string) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	if err := c.do(ctx, "load my bookings", http.MethodGet, c.endpoint("bookings", "by-requester", email), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}
