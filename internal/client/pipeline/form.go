package pipeline

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/travelease/internal/client/assets"
	"github.com/dmitrijs2005/travelease/internal/client/authz"
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/session"
	"github.com/dmitrijs2005/travelease/internal/client/status"
)

// Form is one add or edit screen: the field values, the selected cover
// image and the status of the last submission.
type Form struct {
	p       *Pipeline
	tracker *status.Tracker

	mu       sync.Mutex
	existing *models.Listing
	fields   models.ListingForm
	asset    *models.Asset
	inFlight bool
	closed   bool

	// URL already obtained for uploadedFor, reused by a retry.
	uploadedFor *models.Asset
	uploadedURL string
}

// NewForm opens a form. existing == nil means create; otherwise the form is
// pre-filled for editing existing.
func (p *Pipeline) NewForm(existing *models.Listing) *Form {
	f := &Form{p: p, tracker: status.NewTracker()}
	if existing != nil {
		c := *existing
		f.existing = &c
	}
	f.fields = models.FormFromListing(f.existing)
	return f
}

func (f *Form) Fields() models.ListingForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) SetFields(v models.ListingForm) {
	f.mu.Lock()
	f.fields = v
	f.mu.Unlock()
}

// Existing returns a copy of the listing being edited, nil for a new one.
func (f *Form) Existing() *models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing == nil {
		return nil
	}
	c := *f.existing
	return &c
}

func (f *Form) Asset() *models.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asset
}

// SelectAsset chooses the cover image. An oversized asset is refused here,
// before any submission, and the previous selection is kept.
func (f *Form) SelectAsset(a *models.Asset) error {
	if err := assets.CheckSize(a, f.p.maxSize); err != nil {
		f.set(status.Failed(err))
		return err
	}
	f.mu.Lock()
	f.asset = a
	f.mu.Unlock()
	return nil
}

func (f *Form) Status() status.Status { return f.tracker.Current() }

func (f *Form) Observe(o status.Observer) { f.tracker.Observe(o) }

// CanSubmit is false while a submission runs or after Close.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.inFlight && !f.closed
}

// Reset restores the default fields (or the saved record when editing),
// drops the selected asset and returns to idle.
func (f *Form) Reset() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	f.mu.Unlock()
	f.tracker.Set(status.Idle())
}

func (f *Form) resetLocked() {
	f.fields = models.FormFromListing(f.existing)
	f.asset = nil
	f.uploadedFor = nil
	f.uploadedURL = ""
}

// Close tears the form down. A submission still running finishes, but its
// outcome no longer touches the form.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *Form) set(s status.Status) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if !closed {
		f.tracker.Set(s)
	}
}

func (f *Form) fail(err error) error {
	f.set(status.Failed(err))
	return err
}

// Submit runs the stages in order: preconditions, ownership, asset, persist.
// The first failure stops the run and leaves fields and asset in place.
func (f *Form) Submit(ctx context.Context, sess session.Context) (*models.Listing, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFormClosed
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	f.inFlight = true
	fields := f.fields.Trimmed()
	asset := f.asset
	existing := f.existing
	var reuse string
	if asset != nil && asset == f.uploadedFor {
		reuse = f.uploadedURL
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	saved, err := f.run(ctx, sess, fields, asset, existing, reuse)
	if err != nil {
		return nil, f.fail(err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return saved, nil
	}
	if existing != nil {
		c := *saved
		f.existing = &c
	}
	f.resetLocked()
	f.mu.Unlock()

	if existing != nil {
		f.tracker.Set(status.Success("listing updated"))
	} else {
		f.tracker.Set(status.Success("listing added"))
	}
	return saved, nil
}

func (f *Form) run(ctx context.Context, sess session.Context, fields models.ListingForm,
	asset *models.Asset, existing *models.Listing, reuse string) (*models.Listing, error) {
	p := f.p

	principal, err := sess.Require()
	if err != nil {
		return nil, err
	}
	if err := validateForm(p.validate, fields); err != nil {
		return nil, err
	}
	if asset == nil && (existing == nil || existing.CoverImageURL == "") {
		return nil, failure.New(failure.ErrValidation, "a cover image is required")
	}
	if asset != nil && reuse == "" {
		if err := assets.CheckSize(asset, p.maxSize); err != nil {
			return nil, err
		}
	}
	if existing != nil {
		if err := authz.Authorize(principal, existing); err != nil {
			return nil, err
		}
	}

	var url string
	switch {
	case asset == nil:
		url = existing.CoverImageURL
	case reuse != "":
		url = reuse
		p.logger.Debug(ctx, "reusing uploaded cover image", "url", url)
	default:
		f.set(status.Loading(status.StageUploading))
		url, err = p.uploader.Upload(ctx, asset)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.uploadedFor = asset
		f.uploadedURL = url
		f.mu.Unlock()
	}

	f.set(status.Loading(status.StagePersisting))
	rec := p.record(fields, url, principal, existing)

	if existing == nil {
		id, err := p.store.CreateListing(ctx, rec)
		if err != nil {
			return nil, p.persistFailed(ctx, err, asset != nil)
		}
		rec.ID = id
		p.logger.Info(ctx, "listing created", "id", id, "owner", principal.Email)
		return rec, nil
	}

	if err := p.store.UpdateListing(ctx, rec.ID, rec); err != nil {
		return nil, p.persistFailed(ctx, err, asset != nil)
	}
	p.logger.Info(ctx, "listing updated", "id", rec.ID, "owner", principal.Email)
	return rec, nil
}

// persistFailed notes the orphaned upload: the image is stored but no
// record points at it yet.
func (p *Pipeline) persistFailed(ctx context.Context, err error, uploaded bool) error {
	p.logger.Warn(ctx, "listing persistence failed", "error", err, "uploaded", uploaded)
	if uploaded {
		return failure.WithHint(err, "Retrying will reuse the uploaded image.")
	}
	return err
}
