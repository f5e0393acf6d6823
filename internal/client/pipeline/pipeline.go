package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/travelease/internal/client/assets"
	"github.com/dmitrijs2005/travelease/internal/client/authz"
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/session"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrFormClosed       = errors.New("form is closed")
	ErrNotConfirmed     = errors.New("deletion was not confirmed")
)

// Pipeline is shared by every form; it holds no per-submission state.
type Pipeline struct {
	uploader assets.Uploader
	store    ListingStore
	logger   logging.Logger
	validate *validator.Validate
	maxSize  int64
	now      func() time.Time
}

// New builds a pipeline. maxSize <= 0 means assets.MaxAssetSize.
func New(uploader assets.Uploader, store ListingStore, maxSize int64, logger logging.Logger) *Pipeline {
	if maxSize <= 0 {
		maxSize = assets.MaxAssetSize
	}
	return &Pipeline{
		uploader: uploader,
		store:    store,
		logger:   logger,
		validate: newValidator(),
		maxSize:  maxSize,
		now:      time.Now,
	}
}

// Validate checks form fields without touching the network.
func (p *Pipeline) Validate(f models.ListingForm) error {
	return validateForm(p.validate, f.Trimmed())
}

// Delete removes l after an explicit confirmation and an ownership check.
func (p *Pipeline) Delete(ctx context.Context, sess session.Context, l *models.Listing, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	principal, err := sess.Require()
	if err != nil {
		return err
	}
	if err := authz.Authorize(principal, l); err != nil {
		return err
	}
	if l.ID == "" {
		return failure.New(failure.ErrValidation, "listing has no id")
	}

	if err := p.store.DeleteListing(ctx, l.ID); err != nil {
		p.logger.Warn(ctx, "listing delete failed", "id", l.ID, "error", err)
		return err
	}
	p.logger.Info(ctx, "listing deleted", "id", l.ID, "owner", principal.Email)
	return nil
}

// record assembles what gets persisted. Owner fields come from the
// principal; CreatedAt is set only on create.
func (p *Pipeline) record(fields models.ListingForm, url string, principal *models.Principal, existing *models.Listing) *models.Listing {
	price, _ := models.ParsePrice(fields.Price)
	rec := &models.Listing{
		Name:          fields.Name,
		Category:      fields.Category,
		PricePerDay:   models.Price(price),
		Location:      fields.Location,
		Availability:  fields.Availability,
		Description:   fields.Description,
		CoverImageURL: url,
		OwnerEmail:    principal.Email,
		OwnerName:     principal.Label(),
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = p.now().UTC()
	}
	return rec
}
