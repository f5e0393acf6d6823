package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/identity"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Gate tracks the current principal. It subscribes to the provider exactly
// once, when constructed, and unsubscribes on Close.
type Gate struct {
	provider identity.Provider
	logger   logging.Logger
	validate *validator.Validate

	mu         sync.RWMutex
	principal  *models.Principal
	resolved   bool
	resolvedCh chan struct{}
	intended   string

	unsubscribe func()
	closeOnce   sync.Once
}

func NewGate(provider identity.Provider, logger logging.Logger) *Gate {
	g := &Gate{
		provider:   provider,
		logger:     logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		resolvedCh: make(chan struct{}),
	}
	g.unsubscribe = provider.OnPrincipalChange(g.onChange)
	return g
}

func (g *Gate) onChange(p *models.Principal) {
	g.mu.Lock()
	g.principal = p
	if !g.resolved {
		g.resolved = true
		close(g.resolvedCh)
	}
	g.mu.Unlock()

	if p == nil {
		g.logger.Debug(context.Background(), "principal cleared")
	} else {
		g.logger.Debug(context.Background(), "principal changed", "email", p.Email)
	}
}

// Principal returns a copy of the current principal, nil when signed out.
func (g *Gate) Principal() *models.Principal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.principal == nil {
		return nil
	}
	p := *g.principal
	return &p
}

// Resolved reports whether the provider has delivered its first state.
func (g *Gate) Resolved() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolved
}

// Context snapshots the gate for handing to other components.
func (g *Gate) Context() Context {
	return Context{Principal: g.Principal(), Resolved: g.Resolved()}
}

// WaitResolved blocks until the first notification arrives or ctx ends.
func (g *Gate) WaitResolved(ctx context.Context) error {
	select {
	case <-g.resolvedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) SignInInteractive(ctx context.Context) (*models.Principal, error) {
	p, err := g.provider.SignInInteractive(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (g *Gate) SignInWithCredentials(ctx context.Context, email string, password []byte) (*models.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, failure.New(failure.ErrValidation, "email and password are required")
	}
	p, err := g.provider.SignInWithCredentials(ctx, email, password)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// Register checks the request locally and only then calls the provider.
func (g *Gate) Register(ctx context.Context, req identity.RegisterRequest) (*models.Principal, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = strings.TrimSpace(req.Email)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)

	if len(req.Password) == 0 {
		return nil, failure.New(failure.ErrValidation, "password is required")
	}
	if err := g.validate.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	if err := CheckPassword(req.Password); err != nil {
		return nil, err
	}

	p, err := g.provider.Register(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (g *Gate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	g.intended = ""
	g.mu.Unlock()
	return classify(g.provider.SignOut(ctx))
}

// SetIntended remembers where the user was heading when sign-in was
// required.
func (g *Gate) SetIntended(dest string) {
	g.mu.Lock()
	g.intended = dest
	g.mu.Unlock()
}

// TakeIntended returns and clears the stored destination. It yields nothing
// until a principal is present.
func (g *Gate) TakeIntended() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.principal == nil || g.intended == "" {
		return "", false
	}
	dest := g.intended
	g.intended = ""
	return dest, true
}

// Close drops the provider subscription. Safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		if g.unsubscribe != nil {
			g.unsubscribe()
		}
	})
}

// CheckPassword enforces the registration rules: at least
// MinPasswordLength characters with upper and lower case letters.
func CheckPassword(password []byte) error {
	var upper, lower bool
	n := 0
	for _, r := range string(password) {
		n++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if n < MinPasswordLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if len(missing) == 0 {
		return nil
	}
	return failure.Newf(failure.ErrWeakCredential, "password must contain %s", strings.Join(missing, ", "))
}

// classify keeps identity failures as they are and folds anything else
// into Unknown so callers only ever see the identity taxonomy.
func classify(err error) error {
	if err == nil || identity.IsIdentityKind(err) {
		return err
	}
	return failure.Wrap(err, failure.ErrUnknown, "sign-in failed")
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return failure.Wrap(err, failure.ErrValidation, "invalid registration")
	}
	fe := verrs[0]
	field := map[string]string{
		"DisplayName": "name",
		"Email":       "email",
		"PhotoURL":    "photo URL",
	}[fe.Field()]
	if field == "" {
		field = strings.ToLower(fe.Field())
	}
	if fe.Tag() == "required" {
		return failure.Newf(failure.ErrValidation, "%s is required", field)
	}
	return failure.Newf(failure.ErrValidation, "%s is not valid", field)
}
