package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing_UnmarshalJSON_CategoryNormalisation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "category only", in: `{"category":"SUV"}`, want: "SUV"},
		{name: "legacy alias only", in: `{"categories":"Van"}`, want: "Van"},
		{name: "both present, category wins", in: `{"category":"Sedan","categories":"Van"}`, want: "Sedan"},
		{name: "blank category falls back", in: `{"category":"  ","categories":"Van"}`, want: "Van"},
		{name: "neither", in: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Listing
			require.NoError(t, json.Unmarshal([]byte(tt.in), &l))
			assert.Equal(t, tt.want, l.Category)
		})
	}
}

func TestListing_UnmarshalJSON_FullRecord(t *testing.T) {
	in := `{
		"_id": {"$oid": "665f1c2e9b1e8a0012345678"},
		"vehicleName": "Toyota Hiace",
		"owner": "Dana",
		"categories": "Van",
		"pricePerDay": "120.5",
		"location": "Dhaka",
		"availability": "Available",
		"description": "12 seats",
		"coverImage": "https://i.ibb.co/x/hiace.png",
		"userEmail": "dana@example.com",
		"createdAt": "2025-03-01T10:00:00.000Z"
	}`

	var got Listing
	require.NoError(t, json.Unmarshal([]byte(in), &got))

	want := Listing{
		ID:            "665f1c2e9b1e8a0012345678",
		Name:          "Toyota Hiace",
		Category:      "Van",
		PricePerDay:   120.5,
		Location:      "Dhaka",
		Availability:  AvailabilityAvailable,
		Description:   "12 seats",
		CoverImageURL: "https://i.ibb.co/x/hiace.png",
		OwnerEmail:    "dana@example.com",
		OwnerName:     "Dana",
		CreatedAt:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestListing_MarshalJSON_WritesBothCategoryKeys(t *testing.T) {
	l := Listing{
		ID:            "abc",
		Name:          "Civic",
		Category:      "Sedan",
		PricePerDay:   45,
		Availability:  AvailabilityBooked,
		CoverImageURL: "https://cdn.example.com/civic.jpg",
		OwnerEmail:    "owner@example.com",
		CreatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	b, err := json.Marshal(l)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "Sedan", m["category"])
	assert.Equal(t, "Sedan", m["categories"])
	assert.Equal(t, float64(45), m["pricePerDay"])
	assert.Equal(t, "owner@example.com", m["userEmail"])
	assert.Equal(t, "2025-01-02T03:04:05.000Z", m["createdAt"])
	assert.NotContains(t, m, "_id")
}

func TestListing_MarshalJSON_OmitsZeroCreatedAt(t *testing.T) {
	b, err := json.Marshal(Listing{Name: "Civic"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "createdAt")
}

func TestListing_Owner_NilSafe(t *testing.T) {
	var l *Listing
	assert.Equal(t, "", l.Owner())
	assert.Equal(t, "a@b.c", (&Listing{OwnerEmail: "a@b.c"}).Owner())
}

func TestParseAvailability(t *testing.T) {
	a, ok := ParseAvailability(" booked ")
	assert.True(t, ok)
	assert.Equal(t, AvailabilityBooked, a)

	_, ok = ParseAvailability("reserved")
	assert.False(t, ok)
}
