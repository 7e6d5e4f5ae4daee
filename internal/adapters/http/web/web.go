// Package web serves the HTML pages: registration, login, the prediction
// form and its result.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/inningscast/internal/adapters/http/api"
	service "github.com/okian/inningscast/internal/app"
	"github.com/okian/inningscast/internal/domain/features"
	"github.com/okian/inningscast/internal/domain/model"
	"github.com/okian/inningscast/internal/domain/password"
	"github.com/okian/inningscast/internal/domain/session"
	"github.com/okian/inningscast/pkg/logger"
)

// User-visible messages.
const (
	msgRegistered       = "User registered successfully"
	msgDuplicate        = "Username already registered"
	msgBadCredentials   = "Incorrect username or password"
	msgNotAuthenticated = "Not authenticated"
	msgInternal         = "Internal Server Error"
)

// Dependencies are the application operations the pages call.
type Dependencies interface {
	Register(ctx context.Context, username, plaintext string) (model.User, error)
	Login(ctx context.Context, username, plaintext string) (*http.Cookie, error)
	Authorize(r *http.Request) (session.Credential, error)
	Predict(ctx context.Context, state model.MatchState) (model.Prediction, error)
}

// Handler renders the HTML routes.
type Handler struct {
	deps   Dependencies
	pages  pages
	logger logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for internal errors.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler parses the embedded templates. It fails only if a template is
// broken.
func NewHandler(deps Dependencies, opts ...Option) (*Handler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	h := &Handler{deps: deps, pages: p}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("web")
	}
	return h, nil
}

// Register attaches the page routes to mux.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", api.MetricsMiddleware(h.HandleLoginForm, "login_form"))
	mux.HandleFunc("GET /register", api.MetricsMiddleware(h.HandleRegisterForm, "register_form"))
	mux.HandleFunc("POST /register", api.MetricsMiddleware(h.HandleRegister, "register"))
	mux.HandleFunc("POST /token", api.MetricsMiddleware(h.HandleToken, "token"))
	mux.HandleFunc("GET /predict", api.MetricsMiddleware(h.HandlePredictForm, "predict_form"))
	mux.HandleFunc("POST /predict", api.MetricsMiddleware(h.HandlePredict, "predict"))
	mux.HandleFunc("GET /about", api.MetricsMiddleware(h.HandleAbout, "about"))
}

// HandleLoginForm handles GET /.
func (h *Handler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, pageLogin, pageData{Title: "Log in"})
}

// HandleRegisterForm handles GET /register.
func (h *Handler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, pageRegister, pageData{Title: "Register"})
}

// HandlePredictForm handles GET /predict. The form itself needs no session.
func (h *Handler) HandlePredictForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, pagePredict, pageData{Title: "Predict", Teams: features.Teams})
}

// HandleAbout handles GET /about.
func (h *Handler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, pageAbout, pageData{Title: "About"})
}

// HandleRegister handles POST /register. On success the login page is shown
// with a confirmation.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "web.register"
	creds, err := parseCredentials(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if _, err := h.deps.Register(r.Context(), creds.Username, creds.Password); err != nil {
		h.fail(w, r, op, passwordFieldError(err))
		return
	}
	h.page(w, r, http.StatusOK, pageLogin, pageData{Title: "Log in", Message: msgRegistered})
}

// HandleToken handles POST /token: authenticate, set the session cookie and
// redirect to the prediction form.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	const op = "web.token"
	creds, err := parseCredentials(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	cookie, err := h.deps.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/predict", http.StatusFound)
}

// HandlePredict handles POST /predict. The session is checked before the
// form so a request without a cookie is 401 even when fields are bad.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "web.predict"
	if _, err := h.deps.Authorize(r); err != nil {
		h.fail(w, r, op, err)
		return
	}
	state, err := parseMatchState(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	p, err := h.deps.Predict(r.Context(), state)
	if err != nil {
		h.fail(w, r, op, api.WrapKind(op, api.ErrInternal, err))
		return
	}
	data := pageData{Title: "Prediction"}
	data.Range.Lower, data.Range.Upper = p.Lower, p.Upper
	h.page(w, r, http.StatusOK, pageResult, data)
}

// page renders name, falling back to a plain 500 if the template fails.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if err := h.pages.render(w, status, name, data); err != nil {
		h.logger.Error(r.Context(), "render failed", logger.String("page", name), logger.Error(err))
		http.Error(w, msgInternal, http.StatusInternalServerError)
	}
}

// fail maps err to a status and message and writes it as HTML, or as
// {"detail": ...} when the client asks for JSON.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	}
	if wantsJSON(r) {
		api.WriteDetail(w, status, msg)
		return
	}
	h.page(w, r, status, pageError, pageData{
		Title:      http.StatusText(status),
		Message:    msg,
		Status:     status,
		StatusText: http.StatusText(status),
	})
}

func classify(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Error()
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusBadRequest, msgDuplicate
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized, msgNotAuthenticated
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// passwordFieldError reports hasher input limits as a form error.
func passwordFieldError(err error) error {
	switch {
	case errors.Is(err, password.ErrEmptyPassword):
		return &ValidationError{Field: fieldPassword, Reason: reasonRequired}
	case errors.Is(err, password.ErrPasswordTooLong):
		return &ValidationError{Field: fieldPassword, Reason: "must be at most 72 bytes"}
	default:
		return err
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
