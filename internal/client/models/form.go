package models

import (
	"strconv"
	"strings"
)

// ListingForm is the caller-editable state behind add and edit. Price stays
// text until the form is submitted.
type ListingForm struct {
	Name         string       `validate:"required"`
	Category     string       `validate:"required"`
	Price        string       `validate:"required,price"`
	Location     string       `validate:"required"`
	Availability Availability `validate:"oneof=Available Booked"`
	Description  string       `validate:"required"`
}

// DefaultListingForm is the empty form: every field blank, availability
// Available.
func DefaultListingForm() ListingForm {
	return ListingForm{Availability: AvailabilityAvailable}
}

// FormFromListing pre-fills a form for editing l.
func FormFromListing(l *Listing) ListingForm {
	if l == nil {
		return DefaultListingForm()
	}
	return ListingForm{
		Name:         l.Name,
		Category:     l.Category,
		Price:        strconv.FormatFloat(float64(l.PricePerDay), 'f', -1, 64),
		Location:     l.Location,
		Availability: l.Availability,
		Description:  l.Description,
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every
// field and availability canonicalised when recognisable.
func (f ListingForm) Trimmed() ListingForm {
	out := ListingForm{
		Name:         strings.TrimSpace(f.Name),
		Category:     strings.TrimSpace(f.Category),
		Price:        strings.TrimSpace(f.Price),
		Location:     strings.TrimSpace(f.Location),
		Availability: Availability(strings.TrimSpace(string(f.Availability))),
		Description:  strings.TrimSpace(f.Description),
	}
	if a, ok := ParseAvailability(string(out.Availability)); ok {
		out.Availability = a
	}
	return out
}
