package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/session"
	"github.com/dmitrijs2005/travelease/internal/client/status"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

var (
	ErrAlreadyRequested  = errors.New("a booking request for this listing was already sent")
	ErrRequestInProgress = errors.New("a booking request for this listing is in progress")
)

// Observer is told about every status change of every listing.
type Observer func(listingID string, s status.Status)

// Workflow lives as long as the session view that created it. A listing
// that was booked successfully stays booked for the workflow's lifetime,
// per renter: another principal signing in starts from a clean slate.
type Workflow struct {
	store  Store
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	states    map[stateKey]status.Status
	observers []Observer
}

// stateKey scopes a status to the renter who made the request. Failures
// without a principal are kept under an empty renter.
type stateKey struct {
	renter  string
	listing string
}

func keyFor(sess session.Context, listingID string) stateKey {
	k := stateKey{listing: listingID}
	if sess.Principal != nil {
		k.renter = strings.ToLower(sess.Principal.Email)
	}
	return k
}

func New(store Store, logger logging.Logger) *Workflow {
	return &Workflow{
		store:  store,
		logger: logger,
		now:    time.Now,
		states: map[stateKey]status.Status{},
	}
}

func (w *Workflow) Observe(o Observer) {
	if o == nil {
		return
	}
	w.mu.Lock()
	w.observers = append(w.observers, o)
	w.mu.Unlock()
}

// Status of the request sess's principal made for listingID; Idle if none
// was made.
func (w *Workflow) Status(sess session.Context, listingID string) status.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.states[keyFor(sess, listingID)]; ok {
		return s
	}
	return status.Idle()
}

// CanRequest is false while a request is in flight or after one succeeded.
func (w *Workflow) CanRequest(sess session.Context, listingID string) bool {
	s := w.Status(sess, listingID)
	return !s.InFlight() && s.Phase != status.PhaseSuccess
}

func (w *Workflow) set(k stateKey, s status.Status) {
	w.mu.Lock()
	w.states[k] = s
	observers := append([]Observer(nil), w.observers...)
	w.mu.Unlock()

	for _, o := range observers {
		o(k.listing, s)
	}
}

// begin moves listingID to requesting unless it is busy or already done.
func (w *Workflow) begin(k stateKey) error {
	w.mu.Lock()
	cur, ok := w.states[k]
	switch {
	case ok && cur.Phase == status.PhaseSuccess:
		w.mu.Unlock()
		return ErrAlreadyRequested
	case ok && cur.InFlight():
		w.mu.Unlock()
		return ErrRequestInProgress
	}
	s := status.Loading(status.StageRequesting)
	w.states[k] = s
	observers := append([]Observer(nil), w.observers...)
	w.mu.Unlock()

	for _, o := range observers {
		o(k.listing, s)
	}
	return nil
}

// RequestBooking sends a Pending request for l on behalf of the signed-in
// principal. Without a principal nothing is sent.
func (w *Workflow) RequestBooking(ctx context.Context, sess session.Context, l *models.Listing) (*models.BookingRequest, error) {
	principal, err := sess.Require()
	if err != nil {
		if l != nil && l.ID != "" {
			w.set(keyFor(sess, l.ID), status.Failed(err))
		}
		return nil, err
	}
	if l == nil || l.ID == "" {
		return nil, failure.New(failure.ErrValidation, "no listing selected")
	}
	k := keyFor(sess, l.ID)
	if err := w.begin(k); err != nil {
		return nil, err
	}

	req := w.snapshot(principal, l)
	id, err := w.store.CreateBooking(ctx, req)
	if err != nil {
		w.logger.Warn(ctx, "booking request failed", "listing", l.ID, "error", err)
		w.set(k, status.Failed(err))
		return nil, err
	}
	req.ID = id

	w.logger.Info(ctx, "booking requested", "listing", l.ID, "booking", id, "renter", principal.Email)
	w.set(k, status.Success("booking request sent"))
	return req, nil
}

func (w *Workflow) snapshot(p *models.Principal, l *models.Listing) *models.BookingRequest {
	renter := strings.TrimSpace(p.DisplayName)
	if renter == "" {
		renter = models.DefaultRenterName
	}
	return &models.BookingRequest{
		ListingID:   l.ID,
		ListingName: l.Name,
		Category:    l.Category,
		OwnerEmail:  l.OwnerEmail,
		RenterEmail: p.Email,
		RenterName:  renter,
		PricePerDay: l.PricePerDay,
		CreatedAt:   w.now().UTC(),
		Status:      models.BookingPending,
	}
}

// MyBookings lists the requests made by the signed-in principal.
func (w *Workflow) MyBookings(ctx context.Context, sess session.Context) ([]models.BookingRequest, error) {
	principal, err := sess.Require()
	if err != nil {
		return nil, err
	}
	return w.store.BookingsByRequester(ctx, principal.Email)
}
