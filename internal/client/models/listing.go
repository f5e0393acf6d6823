package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilityBooked    Availability = "Booked"
)

// ParseAvailability is case-insensitive and rejects anything else.
func ParseAvailability(s string) (Availability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available":
		return AvailabilityAvailable, true
	case "booked":
		return AvailabilityBooked, true
	}
	return "", false
}

// Listing is a vehicle offered for rent. A persisted listing always has a
// CoverImageURL.
type Listing struct {
	ID            string
	Name          string
	Category      string
	PricePerDay   Price
	Location      string
	Availability  Availability
	Description   string
	CoverImageURL string
	OwnerEmail    string
	OwnerName     string
	CreatedAt     time.Time
}

// Owner returns the email of the principal allowed to mutate the listing.
func (l *Listing) Owner() string {
	if l == nil {
		return ""
	}
	return l.OwnerEmail
}

type listingWire struct {
	ID           json.RawMessage `json:"_id,omitempty"`
	Name         string          `json:"vehicleName"`
	Category     string          `json:"category"`
	Categories   string          `json:"categories,omitempty"`
	PricePerDay  Price           `json:"pricePerDay"`
	Location     string          `json:"location"`
	Availability Availability    `json:"availability"`
	Description  string          `json:"description"`
	CoverImage   string          `json:"coverImage"`
	UserEmail    string          `json:"userEmail"`
	Owner        string          `json:"owner"`
	CreatedAt    string          `json:"createdAt,omitempty"`
}

// UnmarshalJSON folds the legacy "categories" key into Category. When both
// keys are present "category" wins.
func (l *Listing) UnmarshalJSON(b []byte) error {
	var w listingWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	id, err := DecodeID(w.ID)
	if err != nil {
		return err
	}

	category := strings.TrimSpace(w.Category)
	if category == "" {
		category = strings.TrimSpace(w.Categories)
	}

	*l = Listing{
		ID:            id,
		Name:          w.Name,
		Category:      category,
		PricePerDay:   w.PricePerDay,
		Location:      w.Location,
		Availability:  w.Availability,
		Description:   w.Description,
		CoverImageURL: w.CoverImage,
		OwnerEmail:    w.UserEmail,
		OwnerName:     w.Owner,
		CreatedAt:     parseTimestamp(w.CreatedAt),
	}
	return nil
}

// MarshalJSON writes both category keys so older readers keep working.
// The id is not written; it travels in the request path.
func (l Listing) MarshalJSON() ([]byte, error) {
	return json.Marshal(listingWire{
		Name:         l.Name,
		Category:     l.Category,
		Categories:   l.Category,
		PricePerDay:  l.PricePerDay,
		Location:     l.Location,
		Availability: l.Availability,
		Description:  l.Description,
		CoverImage:   l.CoverImageURL,
		UserEmail:    l.OwnerEmail,
		Owner:        l.OwnerName,
		CreatedAt:    formatTimestamp(l.CreatedAt),
	})
}
