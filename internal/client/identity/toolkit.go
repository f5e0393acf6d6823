package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/common"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

const (
	DefaultBaseURL  = "https://identitytoolkit.googleapis.com/v1/"
	DefaultTokenURL = "https://securetoken.googleapis.com/v1/token"

	// tokens are refreshed this long before they expire
	refreshSkew = time.Minute
)

type ToolkitOptions struct {
	BaseURL  string
	TokenURL string
	APIKey   string
}

// Toolkit is a Provider backed by the Identity Toolkit REST API.
type Toolkit struct {
	opts     ToolkitOptions
	http     *http.Client
	store    SessionStore
	prompter Prompter
	logger   logging.Logger
	now      func() time.Time

	refreshMu sync.Mutex

	mu        sync.Mutex
	session   *Session
	principal *models.Principal
	started   bool
	subs      map[int]func(*models.Principal)
	nextSub   int
}

var _ Provider = (*Toolkit)(nil)

// NewToolkit builds the provider. store and prompter may be nil: without a
// store sessions are not persisted, without a prompter interactive sign-in
// is unavailable.
func NewToolkit(opts ToolkitOptions, client *http.Client, store SessionStore, prompter Prompter, logger logging.Logger) *Toolkit {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Toolkit{
		opts:     opts,
		http:     client,
		store:    store,
		prompter: prompter,
		logger:   logger,
		now:      time.Now,
		subs:     map[int]func(*models.Principal){},
	}
}

// Start restores a persisted session, refreshing it when expired, and then
// publishes the initial principal. Subscribers are notified even when the
// restore fails; the error is returned for logging only.
func (t *Toolkit) Start(ctx context.Context) error {
	var restoreErr error
	sess, p, err := t.restore(ctx)
	if err != nil {
		restoreErr = err
		sess, p = nil, nil
	}

	t.mu.Lock()
	t.session = sess
	t.principal = p
	t.started = true
	t.mu.Unlock()

	t.notify(p)
	return restoreErr
}

func (t *Toolkit) restore(ctx context.Context) (*Session, *models.Principal, error) {
	if t.store == nil {
		return nil, nil, nil
	}
	sess, err := t.store.Load(ctx)
	if err != nil || sess == nil {
		return nil, nil, err
	}

	claims, err := parseToken(sess.IDToken)
	if err != nil {
		t.clearStore(ctx)
		return nil, nil, err
	}
	if t.now().Before(sess.ExpiresAt.Add(-refreshSkew)) {
		return sess, claims.principal(), nil
	}

	fresh, p, err := t.refresh(ctx, sess.RefreshToken)
	if err != nil {
		if failure.Is(err, failure.ErrInvalidCredential) {
			t.clearStore(ctx)
		}
		return nil, nil, err
	}
	t.saveStore(ctx, *fresh)
	return fresh, p, nil
}

func (t *Toolkit) OnPrincipalChange(fn func(*models.Principal)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	started := t.started
	current := clonePrincipal(t.principal)
	t.mu.Unlock()

	if started {
		fn(current)
	}
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Toolkit) notify(p *models.Principal) {
	t.mu.Lock()
	subs := make([]func(*models.Principal), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(clonePrincipal(p))
	}
}

func clonePrincipal(p *models.Principal) *models.Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Principal returns a copy of the signed-in principal, nil when signed out.
func (t *Toolkit) Principal() *models.Principal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return clonePrincipal(t.principal)
}

type authResponse struct {
	IDToken      string      `json:"idToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    json.Number `json:"expiresIn"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"displayName"`
	PhotoURL     string      `json:"photoUrl"`
}

func (t *Toolkit) SignInWithCredentials(ctx context.Context, email string, password []byte) (*models.Principal, error) {
	req := map[string]any{
		"email":             strings.TrimSpace(email),
		"password":          string(password),
		"returnSecureToken": true,
	}
	var resp authResponse
	if err := t.post(ctx, "accounts:signInWithPassword", req, &resp); err != nil {
		return nil, err
	}
	return t.commit(ctx, &resp)
}

func (t *Toolkit) SignInInteractive(ctx context.Context) (*models.Principal, error) {
	if t.prompter == nil {
		return nil, failure.New(failure.ErrProviderError, "interactive sign-in is not available")
	}
	email, password, err := t.prompter.PromptCredentials(ctx)
	defer common.WipeByteArray(password)
	if err != nil {
		return nil, failure.Wrap(err, failure.ErrProviderError, "sign-in was cancelled")
	}
	return t.SignInWithCredentials(ctx, email, password)
}

// Register creates the account and then sets its display name and photo.
// The session is committed only after the profile update succeeds, so
// subscribers never observe a principal without a name.
func (t *Toolkit) Register(ctx context.Context, r RegisterRequest) (*models.Principal, error) {
	var created authResponse
	err := t.post(ctx, "accounts:signUp", map[string]any{
		"email":             strings.TrimSpace(r.Email),
		"password":          string(r.Password),
		"returnSecureToken": true,
	}, &created)
	if err != nil {
		return nil, err
	}

	update := map[string]any{
		"idToken":           created.IDToken,
		"displayName":       strings.TrimSpace(r.DisplayName),
		"returnSecureToken": true,
	}
	if photo := strings.TrimSpace(r.PhotoURL); photo != "" {
		update["photoUrl"] = photo
	}
	var updated authResponse
	if err := t.post(ctx, "accounts:update", update, &updated); err != nil {
		return nil, err
	}

	// update may omit tokens; the ones from sign-up remain valid
	if updated.IDToken == "" {
		updated.IDToken = created.IDToken
		updated.RefreshToken = created.RefreshToken
		updated.ExpiresIn = created.ExpiresIn
	}
	if updated.Email == "" {
		updated.Email = created.Email
	}
	return t.commit(ctx, &updated)
}

func (t *Toolkit) SignOut(ctx context.Context) error {
	t.mu.Lock()
	t.session = nil
	t.principal = nil
	t.mu.Unlock()

	t.clearStore(ctx)
	t.notify(nil)
	return nil
}

// Token returns a valid ID token for the backend, refreshing it first when
// it is about to expire.
func (t *Toolkit) Token(ctx context.Context) (string, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	t.mu.Lock()
	sess := t.session
	t.mu.Unlock()

	if sess == nil {
		return "", failure.New(failure.ErrUnauthenticated, "not signed in")
	}
	if t.now().Before(sess.ExpiresAt.Add(-refreshSkew)) {
		return sess.IDToken, nil
	}

	fresh, p, err := t.refresh(ctx, sess.RefreshToken)
	if err != nil {
		if failure.Is(err, failure.ErrInvalidCredential) {
			t.logger.Warn(ctx, "refresh token rejected, signing out", "error", err)
			_ = t.SignOut(ctx)
			return "", failure.Wrap(err, failure.ErrUnauthenticated, "session expired")
		}
		return "", err
	}

	t.mu.Lock()
	t.session = fresh
	changed := t.principal == nil || *t.principal != *p
	t.principal = p
	t.mu.Unlock()

	t.saveStore(ctx, *fresh)
	if changed {
		t.notify(p)
	}
	return fresh.IDToken, nil
}

type refreshResponse struct {
	IDToken      string      `json:"id_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    json.Number `json:"expires_in"`
}

func (t *Toolkit) refresh(ctx context.Context, refreshToken string) (*Session, *models.Principal, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	u, err := t.withKey(t.opts.TokenURL)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "build refresh request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := t.send(req, &resp); err != nil {
		return nil, nil, err
	}
	return t.sessionFrom(resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
}

func (t *Toolkit) commit(ctx context.Context, resp *authResponse) (*models.Principal, error) {
	sess, p, err := t.sessionFrom(resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	if err != nil {
		return nil, err
	}
	if p.Email == "" {
		p.Email = resp.Email
	}
	if p.DisplayName == "" {
		p.DisplayName = resp.DisplayName
	}
	if p.PhotoURL == "" {
		p.PhotoURL = resp.PhotoURL
	}

	t.mu.Lock()
	t.session = sess
	t.principal = p
	t.mu.Unlock()

	t.saveStore(ctx, *sess)
	t.notify(p)
	return clonePrincipal(p), nil
}

func (t *Toolkit) sessionFrom(idToken, refreshToken string, expiresIn json.Number) (*Session, *models.Principal, error) {
	if idToken == "" {
		return nil, nil, failure.New(failure.ErrProviderError, "identity provider returned no token")
	}
	claims, err := parseToken(idToken)
	if err != nil {
		return nil, nil, failure.Wrap(err, failure.ErrProviderError, "identity provider returned a malformed token")
	}

	exp, ok := claims.expiry()
	if !ok {
		secs, _ := strconv.Atoi(expiresIn.String())
		if secs <= 0 {
			secs = 3600
		}
		exp = t.now().Add(time.Duration(secs) * time.Second)
	}
	return &Session{IDToken: idToken, RefreshToken: refreshToken, ExpiresAt: exp}, claims.principal(), nil
}

func (t *Toolkit) withKey(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid identity url %q", raw)
	}
	if t.opts.APIKey != "" {
		q := u.Query()
		q.Set("key", t.opts.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (t *Toolkit) post(ctx context.Context, method string, in, out any) error {
	u, err := t.withKey(t.opts.BaseURL + method)
	if err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode identity request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	return t.send(req, out)
}

func (t *Toolkit) send(req *http.Request, out any) error {
	resp, err := t.http.Do(req)
	if err != nil {
		return failure.WithHint(
			failure.Wrap(err, failure.ErrProviderError, "identity provider is unreachable"),
			"Check your connection and try again.")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return failure.Wrap(err, failure.ErrProviderError, "read identity response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		if json.Unmarshal(raw, &pe) == nil && pe.Error.Message != "" {
			return mapCode(errorCode(pe.Error.Message))
		}
		if resp.StatusCode >= 500 {
			return failure.Newf(failure.ErrProviderError, "identity provider failed (%s)", resp.Status)
		}
		return failure.Newf(failure.ErrUnknown, "identity provider error (%s)", resp.Status)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return failure.Wrap(err, failure.ErrProviderError, "decode identity response")
	}
	return nil
}

func (t *Toolkit) saveStore(ctx context.Context, s Session) {
	if t.store == nil {
		return
	}
	if err := t.store.Save(ctx, s); err != nil {
		t.logger.Warn(ctx, "could not persist session", "error", err)
	}
}

func (t *Toolkit) clearStore(ctx context.Context) {
	if t.store == nil {
		return
	}
	if err := t.store.Clear(ctx); err != nil {
		t.logger.Warn(ctx, "could not clear persisted session", "error", err)
	}
}
