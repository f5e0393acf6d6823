package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/status"
)

func formatPrice(p models.Price) string {
	return "$" + humanize.CommafWithDigits(float64(p), 2)
}

func renderListings(w io.Writer, ls []models.Listing) {
	if len(ls) == 0 {
		fmt.Fprintln(w, "No listings")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE/DAY\tLOCATION\tAVAILABILITY")
	for _, l := range ls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Name, l.Category, formatPrice(l.PricePerDay), l.Location, l.Availability)
	}
	_ = tw.Flush()
}

func renderListing(w io.Writer, l *models.Listing, owned bool, booking status.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", l.Name)
	fmt.Fprintf(tw, "Category:\t%s\n", l.Category)
	fmt.Fprintf(tw, "Price per day:\t%s\n", formatPrice(l.PricePerDay))
	fmt.Fprintf(tw, "Location:\t%s\n", l.Location)
	fmt.Fprintf(tw, "Availability:\t%s\n", l.Availability)
	fmt.Fprintf(tw, "Description:\t%s\n", l.Description)
	fmt.Fprintf(tw, "Cover image:\t%s\n", l.CoverImageURL)
	fmt.Fprintf(tw, "Owner:\t%s <%s>\n", l.OwnerName, l.OwnerEmail)
	if !l.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Listed:\t%s\n", humanize.Time(l.CreatedAt))
	}
	if !booking.IsIdle() {
		fmt.Fprintf(tw, "Your booking:\t%s\n", booking)
	}
	_ = tw.Flush()

	if owned {
		fmt.Fprintf(w, "You own this listing: edit %s | delete %s\n", l.ID, l.ID)
	}
}

func renderBookings(w io.Writer, bs []models.BookingRequest) {
	if len(bs) == 0 {
		fmt.Fprintln(w, "No booking requests")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tCATEGORY\tPRICE/DAY\tOWNER\tREQUESTED\tSTATUS")
	for _, b := range bs {
		requested := "-"
		if !b.CreatedAt.IsZero() {
			requested = humanize.Time(b.CreatedAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ListingName, b.Category, formatPrice(b.PricePerDay), b.OwnerEmail, requested, b.Status)
	}
	_ = tw.Flush()
}

func renderPrincipal(w io.Writer, p *models.Principal) {
	fmt.Fprintf(w, "%s <%s>\n", p.Label(), p.Email)
	if p.PhotoURL != "" {
		fmt.Fprintf(w, "Photo: %s\n", p.PhotoURL)
	}
}
