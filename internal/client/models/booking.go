package models

import (
	"encoding/json"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

// DefaultRenterName is used when the requester has no display name.
const DefaultRenterName = "Guest User"

// BookingRequest is a renter's request against a listing. Price, owner,
// name and category are snapshots taken when the request was made.
type BookingRequest struct {
	ID          string
	ListingID   string
	ListingName string
	Category    string
	OwnerEmail  string
	RenterEmail string
	RenterName  string
	PricePerDay Price
	CreatedAt   time.Time
	Status      BookingStatus
}

// Owner is the listing owner, the only party that may move the status on.
func (b *BookingRequest) Owner() string {
	if b == nil {
		return ""
	}
	return b.OwnerEmail
}

type bookingWire struct {
	ID          json.RawMessage `json:"_id,omitempty"`
	ListingID   string          `json:"vehicleId"`
	ListingName string          `json:"vehicleName"`
	Category    string          `json:"category,omitempty"`
	OwnerEmail  string          `json:"ownerEmail"`
	RenterEmail string          `json:"renterEmail"`
	RenterName  string          `json:"renterName"`
	PricePerDay Price           `json:"pricePerDay"`
	BookingDate string          `json:"bookingDate"`
	Status      BookingStatus   `json:"status"`
}

func (b *BookingRequest) UnmarshalJSON(data []byte) error {
	var w bookingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := DecodeID(w.ID)
	if err != nil {
		return err
	}
	*b = BookingRequest{
		ID:          id,
		ListingID:   w.ListingID,
		ListingName: w.ListingName,
		Category:    w.Category,
		OwnerEmail:  w.OwnerEmail,
		RenterEmail: w.RenterEmail,
		RenterName:  w.RenterName,
		PricePerDay: w.PricePerDay,
		CreatedAt:   parseTimestamp(w.BookingDate),
		Status:      w.Status,
	}
	return nil
}

func (b BookingRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingWire{
		ListingID:   b.ListingID,
		ListingName: b.ListingName,
		Category:    b.Category,
		OwnerEmail:  b.OwnerEmail,
		RenterEmail: b.RenterEmail,
		RenterName:  b.RenterName,
		PricePerDay: b.PricePerDay,
		BookingDate: formatTimestamp(b.CreatedAt),
		Status:      b.Status,
	})
}
