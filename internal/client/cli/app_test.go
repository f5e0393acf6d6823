package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/travelease/internal/client/booking"
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/identity"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/pipeline"
	"github.com/dmitrijs2005/travelease/internal/client/session"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

type fakeGate struct {
	principal *models.Principal
	resolved  bool
	intended  string
	signInErr error
	closed    bool
}

func (g *fakeGate) Context() session.Context {
	return session.Context{Principal: g.principal, Resolved: g.resolved}
}

func (g *fakeGate) Principal() *models.Principal { return g.principal }

func (g *fakeGate) SignInInteractive(ctx context.Context) (*models.Principal, error) {
	if g.signInErr != nil {
		return nil, g.signInErr
	}
	g.principal = &models.Principal{Email: "ana@example.com", DisplayName: "Ana"}
	return g.principal, nil
}

func (g *fakeGate) Register(ctx context.Context, req identity.RegisterRequest) (*models.Principal, error) {
	g.principal = &models.Principal{Email: req.Email, DisplayName: req.DisplayName}
	return g.principal, nil
}

func (g *fakeGate) SignOut(ctx context.Context) error {
	g.principal = nil
	return nil
}

func (g *fakeGate) SetIntended(dest string) { g.intended = dest }

func (g *fakeGate) TakeIntended() (string, bool) {
	if g.principal == nil || g.intended == "" {
		return "", false
	}
	s := g.intended
	g.intended = ""
	return s, true
}

func (g *fakeGate) Close() { g.closed = true }

// fakeBackend serves the catalog and both stores from memory.
type fakeBackend struct {
	mu        sync.Mutex
	listings  []models.Listing
	created   []*models.Listing
	updated   map[string]*models.Listing
	deleted   []string
	bookings  []*models.BookingRequest
	createErr error
}

func (b *fakeBackend) ListListings(ctx context.Context) ([]models.Listing, error) {
	return append([]models.Listing(nil), b.listings...), nil
}

func (b *fakeBackend) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	for i := range b.listings {
		if b.listings[i].ID == id {
			l := b.listings[i]
			return &l, nil
		}
	}
	return nil, failure.Newf(failure.ErrNotFound, "listing %s not found", id)
}

func (b *fakeBackend) ListingsByOwner(ctx context.Context, email string) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range b.listings {
		if l.OwnerEmail == email {
			out = append(out, l)
		}
	}
	return out, nil
}

func (b *fakeBackend) CreateListing(ctx context.Context, l *models.Listing) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		err := b.createErr
		b.createErr = nil
		return "", err
	}
	b.created = append(b.created, l)
	return "new-1", nil
}

func (b *fakeBackend) UpdateListing(ctx context.Context, id string, l *models.Listing) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updated == nil {
		b.updated = map[string]*models.Listing{}
	}
	b.updated[id] = l
	return nil
}

func (b *fakeBackend) DeleteListing(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *fakeBackend) CreateBooking(ctx context.Context, r *models.BookingRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bookings = append(b.bookings, r)
	return "bk-1", nil
}

func (b *fakeBackend) BookingsByRequester(ctx context.Context, email string) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	for _, r := range b.bookings {
		if r.RenterEmail == email {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeUploader struct {
	calls int
}

func (u *fakeUploader) Upload(ctx context.Context, a *models.Asset) (string, error) {
	u.calls++
	return "https://img.example.com/" + a.Name, nil
}

var (
	ana = &models.Principal{Email: "ana@example.com", DisplayName: "Ana"}
	bob = &models.Principal{Email: "bob@example.com", DisplayName: "Bob"}
)

func catalogFixture() []models.Listing {
	return []models.Listing{
		{ID: "1", Name: "Hiace", Category: "Van", PricePerDay: 75, Location: "Dhaka", Description: "Ten seats",
			Availability: models.AvailabilityAvailable, CoverImageURL: "https://img/1.jpg",
			OwnerEmail: ana.Email, OwnerName: "Ana"},
		{ID: "2", Name: "Corolla", Category: "Sedan", PricePerDay: 1234.5, Location: "Sylhet", Description: "Automatic",
			Availability: models.AvailabilityBooked, CoverImageURL: "https://img/2.jpg",
			OwnerEmail: bob.Email, OwnerName: "Bob"},
	}
}

type harness struct {
	app      *App
	gate     *fakeGate
	backend  *fakeBackend
	uploader *fakeUploader
	out      *bytes.Buffer
}

func newHarness(t *testing.T, p *models.Principal, input string) *harness {
	t.Helper()

	oldPw := getPassword
	t.Cleanup(func() { getPassword = oldPw })

	h := &harness{
		gate:     &fakeGate{principal: p, resolved: true},
		backend:  &fakeBackend{listings: catalogFixture()},
		uploader: &fakeUploader{},
		out:      &bytes.Buffer{},
	}
	logger := logging.Nop()
	h.app = &App{
		gate:     h.gate,
		catalog:  h.backend,
		pipeline: pipeline.New(h.uploader, h.backend, 0, logger),
		bookings: booking.New(h.backend, logger),
		maxAsset: 1 << 20,
		loadAsset: func(path string, maxSize int64) (*models.Asset, error) {
			if path == "missing.jpg" {
				return nil, errors.New("open missing.jpg: no such file or directory")
			}
			return &models.Asset{Name: path, ContentType: "image/jpeg", Data: []byte("jpeg")}, nil
		},
		logger: logger,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    h.out,
	}
	return h
}

func TestParseListArgs(t *testing.T) {
	f, key, err := parseListArgs([]string{"category=Van", "location=dha", "sort=PRICE_DESC"})
	require.NoError(t, err)
	assert.Equal(t, "Van", f.Category)
	assert.Equal(t, "dha", f.Location)
	assert.EqualValues(t, "price_desc", key)

	for _, bad := range [][]string{{"category"}, {"colour=red"}, {"sort=cheapest"}} {
		_, _, err := parseListArgs(bad)
		require.Error(t, err, "%v", bad)
		assert.True(t, failure.Is(err, failure.ErrValidation))
	}
}

func TestApp_List(t *testing.T) {
	h := newHarness(t, nil, "")

	require.NoError(t, h.app.List(context.Background(), []string{"category=van"}))
	out := h.out.String()
	assert.Contains(t, out, "Hiace")
	assert.Contains(t, out, "$75")
	assert.NotContains(t, out, "Corolla")

	h.out.Reset()
	require.NoError(t, h.app.List(context.Background(), []string{"location=nowhere"}))
	assert.Contains(t, h.out.String(), "No listings")
}

func TestApp_Show(t *testing.T) {
	h := newHarness(t, ana, "")

	require.NoError(t, h.app.Show(context.Background(), []string{"1"}))
	assert.Contains(t, h.out.String(), "You own this listing")

	h.out.Reset()
	require.NoError(t, h.app.Show(context.Background(), []string{"2"}))
	assert.Contains(t, h.out.String(), "$1,234.5")
	assert.NotContains(t, h.out.String(), "You own this listing")

	err := h.app.Show(context.Background(), []string{"404"})
	assert.True(t, failure.Is(err, failure.ErrNotFound))

	err = h.app.Show(context.Background(), nil)
	assert.True(t, failure.Is(err, failure.ErrValidation))
}

func TestApp_Mine(t *testing.T) {
	h := newHarness(t, bob, "")
	require.NoError(t, h.app.Mine(context.Background()))
	assert.Contains(t, h.out.String(), "Corolla")
	assert.NotContains(t, h.out.String(), "Hiace")
}

func TestApp_RequireLoginRemembersCommand(t *testing.T) {
	h := newHarness(t, nil, "")

	err := h.app.Book(context.Background(), []string{"2"})
	require.ErrorIs(t, err, errLoginRequired)
	assert.Equal(t, "book 2", h.gate.intended)
	assert.Empty(t, h.backend.bookings)

	h.gate.resolved = false
	h.gate.intended = ""
	err = h.app.Add(context.Background())
	assert.True(t, failure.Is(err, failure.ErrUnauthenticated))
	assert.Empty(t, h.gate.intended)
}

func TestApp_Add(t *testing.T) {
	input := strings.Join([]string{
		"Probox", "Wagon", "45.5", "Dhaka", "Roomy", "",
		"missing.jpg",
		"cover.jpg",
	}, "\n") + "\n"
	h := newHarness(t, ana, input)

	require.NoError(t, h.app.Add(context.Background()))

	require.Len(t, h.backend.created, 1)
	got := h.backend.created[0]
	assert.Equal(t, "Probox", got.Name)
	assert.Equal(t, models.Price(45.5), got.PricePerDay)
	assert.Equal(t, models.AvailabilityAvailable, got.Availability)
	assert.Equal(t, "https://img.example.com/cover.jpg", got.CoverImageURL)
	assert.Equal(t, ana.Email, got.OwnerEmail)

	out := h.out.String()
	assert.Contains(t, out, "no such file")
	assert.Contains(t, out, "... uploading")
	assert.Contains(t, out, "... persisting")
	assert.Contains(t, out, "listing added (id new-1)")
}

func TestApp_Add_InvalidFieldsStopBeforeUpload(t *testing.T) {
	input := strings.Join([]string{"Probox", "Wagon", "free", "Dhaka", "Roomy", ""}, "\n") + "\n"
	h := newHarness(t, ana, input)

	err := h.app.Add(context.Background())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ErrValidation))
	assert.Zero(t, h.uploader.calls)
	assert.Empty(t, h.backend.created)
}

func TestApp_Add_RetryReusesUpload(t *testing.T) {
	input := strings.Join([]string{
		"Probox", "Wagon", "45", "Dhaka", "Roomy", "",
		"cover.jpg",
		"yes",
	}, "\n") + "\n"
	h := newHarness(t, ana, input)
	h.backend.createErr = failure.New(failure.ErrPersistTransport, "backend unreachable")

	require.NoError(t, h.app.Add(context.Background()))

	assert.Equal(t, 1, h.uploader.calls)
	require.Len(t, h.backend.created, 1)
	out := h.out.String()
	assert.Contains(t, out, "Error: backend unreachable")
	assert.Contains(t, out, "listing added")
}

func TestApp_Edit(t *testing.T) {
	// Keep everything but the price and the image.
	input := strings.Join([]string{"", "", "80", "", "", "", ""}, "\n") + "\n"
	h := newHarness(t, ana, input)

	require.NoError(t, h.app.Edit(context.Background(), []string{"1"}))

	got := h.backend.updated["1"]
	require.NotNil(t, got)
	assert.Equal(t, "Hiace", got.Name)
	assert.Equal(t, models.Price(80), got.PricePerDay)
	assert.Equal(t, "https://img/1.jpg", got.CoverImageURL)
	assert.Zero(t, h.uploader.calls)
	assert.Contains(t, h.out.String(), "listing updated (id 1)")
}

func TestApp_Edit_NotOwner(t *testing.T) {
	h := newHarness(t, bob, "")

	err := h.app.Edit(context.Background(), []string{"1"})
	assert.True(t, failure.Is(err, failure.ErrAccessDenied))
	assert.Empty(t, h.backend.updated)
}

func TestApp_Delete(t *testing.T) {
	h := newHarness(t, ana, "no\nyes\n")

	require.NoError(t, h.app.Delete(context.Background(), []string{"1"}))
	assert.Contains(t, h.out.String(), "Cancelled")
	assert.Empty(t, h.backend.deleted)

	require.NoError(t, h.app.Delete(context.Background(), []string{"1"}))
	assert.Contains(t, h.out.String(), "Deleted")
	assert.Equal(t, []string{"1"}, h.backend.deleted)

	err := h.app.Delete(context.Background(), []string{"2"})
	assert.True(t, failure.Is(err, failure.ErrAccessDenied))
}

func TestApp_BookAndBookings(t *testing.T) {
	h := newHarness(t, bob, "")

	require.NoError(t, h.app.Book(context.Background(), []string{"1"}))
	require.Len(t, h.backend.bookings, 1)
	b := h.backend.bookings[0]
	assert.Equal(t, "Hiace", b.ListingName)
	assert.Equal(t, ana.Email, b.OwnerEmail)
	assert.Equal(t, "Bob", b.RenterName)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Contains(t, h.out.String(), "Booking request sent for Hiace (id bk-1, status Pending)")

	err := h.app.Book(context.Background(), []string{"1"})
	require.ErrorIs(t, err, booking.ErrAlreadyRequested)

	h.out.Reset()
	require.NoError(t, h.app.Bookings(context.Background()))
	assert.Contains(t, h.out.String(), "Hiace")
	assert.Contains(t, h.out.String(), "Pending")
}

func TestApp_BookOwnListingNotes(t *testing.T) {
	h := newHarness(t, ana, "")
	require.NoError(t, h.app.Book(context.Background(), []string{"1"}))
	assert.Contains(t, h.out.String(), "Note: this is your own listing")
}

func TestApp_BookAgainAfterSwitchingUser(t *testing.T) {
	h := newHarness(t, bob, "")
	ctx := context.Background()

	require.NoError(t, h.app.Book(ctx, []string{"1"}))
	require.NoError(t, h.app.Logout(ctx))
	require.NoError(t, h.app.Login(ctx))

	require.NoError(t, h.app.Book(ctx, []string{"1"}))
	require.Len(t, h.backend.bookings, 2)
	assert.Equal(t, bob.Email, h.backend.bookings[0].RenterEmail)
	assert.Equal(t, ana.Email, h.backend.bookings[1].RenterEmail)
}

func TestApp_AuthCommands(t *testing.T) {
	h := newHarness(t, nil, "Cara\ncara@example.com\n\n")
	getPassword = func(w io.Writer) ([]byte, error) { return []byte("Secret1"), nil }

	require.NoError(t, h.app.Register(context.Background()))
	assert.Contains(t, h.out.String(), "Welcome, Cara!")
	assert.Equal(t, "cara@example.com", h.gate.principal.Email)

	h.out.Reset()
	require.NoError(t, h.app.WhoAmI(context.Background()))
	assert.Contains(t, h.out.String(), "Cara <cara@example.com>")

	require.NoError(t, h.app.Logout(context.Background()))
	assert.Nil(t, h.gate.principal)

	h.out.Reset()
	require.NoError(t, h.app.WhoAmI(context.Background()))
	assert.Contains(t, h.out.String(), "Not signed in")

	require.NoError(t, h.app.Login(context.Background()))
	assert.Contains(t, h.out.String(), "Signed in as Ana")

	h.gate.principal = nil
	h.gate.signInErr = failure.New(failure.ErrInvalidCredential, "email or password is incorrect")
	err := h.app.Login(context.Background())
	assert.True(t, failure.Is(err, failure.ErrInvalidCredential))
}

func TestApp_Status(t *testing.T) {
	h := newHarness(t, nil, "")
	assert.Equal(t, "", h.app.status())

	h.gate.resolved = false
	assert.Equal(t, "(loading)", h.app.status())

	h.gate.resolved = true
	h.gate.principal = ana
	assert.Equal(t, "(ana@example.com)", h.app.status())
}

func TestApp_RunClosesResources(t *testing.T) {
	captureOutput(t)
	h := newHarness(t, nil, "exit\n")
	closed := false
	h.app.closers = []func() error{func() error { closed = true; return nil }}
	started := make(chan struct{})
	h.app.start = func(ctx context.Context) error { close(started); return nil }

	h.app.Run(context.Background())
	<-started

	assert.True(t, h.gate.closed)
	assert.True(t, closed)
}
