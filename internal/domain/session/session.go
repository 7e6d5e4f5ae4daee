// Package session issues and validates the login cookie.
//
// In plain mode the cookie value is the username itself, percent-escaped so
// bytes a cookie cannot carry survive the round trip, and validation only
// checks that the cookie is present. Signed mode wraps the username in an
// HS256 token so a client cannot forge another user's session.
package session

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Modes.
const (
	ModePlain  = "plain"
	ModeSigned = "signed"
)

// DefaultCookieName is the cookie the login form sets.
const DefaultCookieName = "access_token"

// Credential is the validated identity carried by a request.
type Credential struct {
	Username string
}

// Manager issues session values and validates incoming cookies.
type Manager struct {
	cookieName string
	mode       string
	secret     []byte
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName overrides the cookie name. Empty names are ignored.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithSigning switches the manager to signed mode using secret.
func WithSigning(secret []byte) Option {
	return func(m *Manager) {
		m.mode = ModeSigned
		m.secret = secret
	}
}

// NewManager returns a plain-mode manager unless WithSigning is given.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		cookieName: DefaultCookieName,
		mode:       ModePlain,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.mode == ModeSigned && len(m.secret) == 0 {
		return nil, ErrMissingSecret
	}
	return m, nil
}

// Mode reports plain or signed.
func (m *Manager) Mode() string { return m.mode }

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string { return m.cookieName }

// Issue returns the cookie value for username. Plain mode never fails and
// leaves cookie-safe usernames unchanged.
func (m *Manager) Issue(username string) (string, error) {
	if m.mode == ModePlain {
		return url.PathEscape(username), nil
	}
	claims := jwt.MapClaims{
		"sub": username,
		"iat": m.now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Cookie wraps value in the session cookie. Only Path is set so the browser
// keeps it for the life of the session.
func (m *Manager) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:  m.cookieName,
		Value: value,
		Path:  "/",
	}
}

// Validate extracts the credential from r. Plain mode accepts any non-empty
// value and does not consult the credential store.
func (m *Manager) Validate(r *http.Request) (Credential, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return Credential{}, ErrUnauthenticated
	}
	if m.mode == ModePlain {
		username, err := url.PathUnescape(c.Value)
		if err != nil || username == "" {
			return Credential{}, ErrUnauthenticated
		}
		return Credential{Username: username}, nil
	}
	sub, err := m.verify(c.Value)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return Credential{Username: sub}, nil
}

func (m *Manager) verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", ErrMissingSubject
	}
	return sub, nil
}
