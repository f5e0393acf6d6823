package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/travelease/internal/client/assets"
	"github.com/dmitrijs2005/travelease/internal/client/backend"
	"github.com/dmitrijs2005/travelease/internal/client/booking"
	"github.com/dmitrijs2005/travelease/internal/client/config"
	"github.com/dmitrijs2005/travelease/internal/client/identity"
	"github.com/dmitrijs2005/travelease/internal/client/localdb"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/client/pipeline"
	"github.com/dmitrijs2005/travelease/internal/client/session"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

// sessionGate is what the CLI needs from session.Gate.
type sessionGate interface {
	Context() session.Context
	Principal() *models.Principal
	SignInInteractive(ctx context.Context) (*models.Principal, error)
	Register(ctx context.Context, req identity.RegisterRequest) (*models.Principal, error)
	SignOut(ctx context.Context) error
	SetIntended(dest string)
	TakeIntended() (string, bool)
	Close()
}

// catalog is the read side of the backend.
type catalog interface {
	ListListings(ctx context.Context) ([]models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListingsByOwner(ctx context.Context, email string) ([]models.Listing, error)
}

type App struct {
	gate      sessionGate
	catalog   catalog
	pipeline  *pipeline.Pipeline
	bookings  *booking.Workflow
	maxAsset  int64
	loadAsset func(path string, maxSize int64) (*models.Asset, error)
	start     func(ctx context.Context) error
	logger    logging.Logger
	reader    *bufio.Reader
	out       io.Writer
	closers   []func() error
}

// NewApp builds every client component from c. The identity provider is
// started later, by Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel)
	reader := bufio.NewReader(os.Stdin)

	db, err := localdb.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, "initialise local database")
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}

	provider := identity.NewToolkit(identity.ToolkitOptions{
		BaseURL:  c.IdentityURL,
		TokenURL: c.TokenURL,
		APIKey:   c.IdentityAPIKey,
	}, httpClient, identity.NewMetadataSessionStore(db), &terminalPrompter{reader: reader, out: os.Stdout}, logger)

	api, err := backend.New(c.BackendURL, httpClient, provider, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := assets.NewObjectStore(ctx, assets.StoreOptions{
		Backend: c.UploadBackend,
		S3: assets.S3Options{
			Endpoint:      c.S3.Endpoint,
			Region:        c.S3.Region,
			Bucket:        c.S3.Bucket,
			AccessKey:     c.S3.AccessKey,
			SecretKey:     c.S3.SecretKey,
			PublicBaseURL: c.S3.PublicBaseURL,
			KeyPrefix:     c.S3.KeyPrefix,
			PresignTTL:    c.S3.PresignTTL,
		},
		ImageHostURL: c.ImageHostURL,
		ImageHostKey: c.ImageHostKey,
	}, httpClient)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gate := session.NewGate(provider, logger)

	return &App{
		gate:      gate,
		catalog:   api,
		pipeline:  pipeline.New(assets.NewUploader(store, c.MaxAssetSize, logger), api, c.MaxAssetSize, logger),
		bookings:  booking.New(api, logger),
		maxAsset:  c.MaxAssetSize,
		loadAsset: assets.Load,
		start:     provider.Start,
		logger:    logger,
		reader:    reader,
		out:       os.Stdout,
		closers:   []func() error{db.Close},
	}, nil
}

// Run restores the previous session in the background and blocks in the
// REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	if a.start != nil {
		go func() {
			if err := a.start(ctx); err != nil {
				a.logger.Warn(ctx, "previous session not restored", "error", err)
			}
		}()
	}

	printlnFn("Welcome to TravelEase (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) close() {
	a.gate.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.gate.Principal() != nil
}

func (a *App) takeIntended() (string, bool) {
	return a.gate.TakeIntended()
}

// status is shown in the prompt.
func (a *App) status() string {
	sess := a.gate.Context()
	switch {
	case !sess.Resolved:
		return "(loading)"
	case sess.Principal != nil:
		return "(" + sess.Principal.Email + ")"
	default:
		return ""
	}
}

// requireLogin returns the principal or, when signed out, remembers the
// command so it runs again after login.
func (a *App) requireLogin(cmd string, args []string) (*models.Principal, error) {
	sess := a.gate.Context()
	if sess.Principal != nil {
		return sess.Principal, nil
	}
	if !sess.Resolved {
		return sess.Require()
	}
	a.gate.SetIntended(strings.TrimSpace(cmd + " " + strings.Join(args, " ")))
	return nil, errLoginRequired
}

var errLoginRequired = errors.New("sign in first with 'login' or 'register'; the command will continue afterwards")
