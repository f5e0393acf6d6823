package cli

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/travelease/internal/client/authz"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/pipeline"
	"github.com/dmitrijs2005/travelease/internal/client/status"
)

// Add walks the user through a new listing and submits it.
func (a *App) Add(ctx context.Context) error {
	if _, err := a.requireLogin("add", nil); err != nil {
		return err
	}
	form := a.pipeline.NewForm(nil)
	defer form.Close()
	return a.fillAndSubmit(ctx, form, true)
}

// Edit changes one of the user's listings. Empty answers keep the current
// values.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := singleArg("edit", args)
	if err != nil {
		return err
	}
	p, err := a.requireLogin("edit", args)
	if err != nil {
		return err
	}
	l, err := a.catalog.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(p, l); err != nil {
		return err
	}

	form := a.pipeline.NewForm(l)
	defer form.Close()
	return a.fillAndSubmit(ctx, form, false)
}

func (a *App) fillAndSubmit(ctx context.Context, form *pipeline.Form, imageRequired bool) error {
	fields, err := a.promptFields(form.Fields())
	if err != nil {
		return err
	}
	form.SetFields(fields)
	if err := a.pipeline.Validate(fields); err != nil {
		return err
	}

	for {
		prompt := "Cover image path"
		if !imageRequired {
			prompt += " (empty keeps the current image)"
		}
		path, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}
		if path == "" && !imageRequired {
			break
		}
		asset, err := a.loadAsset(path, a.maxAsset)
		if err == nil {
			err = form.SelectAsset(asset)
		}
		if err == nil {
			break
		}
		fmt.Fprintln(a.out, "Error:", err)
	}

	form.Observe(func(s status.Status) {
		if s.InFlight() {
			fmt.Fprintf(a.out, "... %s\n", s.Label())
		}
	})

	for {
		saved, err := form.Submit(ctx, a.gate.Context())
		if err == nil {
			fmt.Fprintf(a.out, "%s (id %s)\n", form.Status().Message, saved.ID)
			return nil
		}
		fmt.Fprintln(a.out, "Error:", form.Status().Message)
		retry, cerr := Confirm(a.reader, "Retry?", a.out)
		if cerr != nil || !retry {
			return nil
		}
	}
}

func (a *App) promptFields(cur models.ListingForm) (models.ListingForm, error) {
	var (
		f   = cur
		err error
	)
	steps := []struct {
		prompt string
		dst    *string
	}{
		{"Vehicle name", &f.Name},
		{"Category", &f.Category},
		{"Price per day", &f.Price},
		{"Location", &f.Location},
		{"Description", &f.Description},
	}
	for _, s := range steps {
		if *s.dst, err = GetDefaultedText(a.reader, s.prompt, *s.dst, a.out); err != nil {
			return cur, err
		}
	}

	avail, err := GetDefaultedText(a.reader, "Availability (Available/Booked)", string(f.Availability), a.out)
	if err != nil {
		return cur, err
	}
	f.Availability = models.Availability(avail)
	return f.Trimmed(), nil
}

// Delete removes one of the user's listings after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := singleArg("delete", args)
	if err != nil {
		return err
	}
	p, err := a.requireLogin("delete", args)
	if err != nil {
		return err
	}
	l, err := a.catalog.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(p, l); err != nil {
		return err
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %q?", l.Name), a.out)
	if err != nil {
		return err
	}
	if err := a.pipeline.Delete(ctx, a.gate.Context(), l, ok); err != nil {
		if errors.Is(err, pipeline.ErrNotConfirmed) {
			fmt.Fprintln(a.out, "Cancelled")
			return nil
		}
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}
