// Package service wires the credential store, password hasher, session
// manager and score model into the operations the HTTP layer calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/inningscast/internal/adapters/repository"
	"github.com/okian/inningscast/internal/domain/features"
	"github.com/okian/inningscast/internal/domain/model"
	"github.com/okian/inningscast/internal/domain/password"
	"github.com/okian/inningscast/internal/domain/scoring"
	"github.com/okian/inningscast/internal/domain/session"
	"github.com/okian/inningscast/pkg/logger"
	"github.com/okian/inningscast/pkg/metrics"
)

// Service is the application context shared by every request handler.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	hasher   *password.Hasher
	sessions *session.Manager
	scorer   scoring.Scorer

	modelName string

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the credential store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithHasher sets the password hasher.
func WithHasher(h *password.Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithSessions sets the session manager.
func WithSessions(m *session.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.sessions = m
		}
	}
}

// WithScorer sets the score model and the name reported in stats.
func WithScorer(scorer scoring.Scorer, name string) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
			s.modelName = name
		}
	}
}

// New constructs a Service. Missing components are filled in by Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in default components and marks the service ready. A scorer
// is required; everything else defaults to an in-memory store, a
// default-cost hasher and plain sessions.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.scorer == nil {
		return ErrMissingScorer
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory credential store")
	}
	if s.hasher == nil {
		s.hasher = password.NewHasher()
	}
	if s.sessions == nil {
		m, err := session.NewManager()
		if err != nil {
			return fmt.Errorf("session manager: %w", err)
		}
		s.sessions = m
	}

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateUsersTotal(n)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "inningscast service started",
		logger.String("model", s.modelName),
		logger.String("session_mode", s.sessions.Mode()),
	)
	return nil
}

// Stop closes the store. Calling Stop twice is safe.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping inningscast service...")
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "inningscast service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Register creates a user with a freshly hashed password. A taken username
// fails with ErrDuplicateUsername and leaves the stored record untouched.
func (s *Service) Register(ctx context.Context, username, plaintext string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}

	if _, err := s.store.Find(ctx, username); err == nil {
		metrics.RecordRegistration(metrics.ResultDuplicate)
		return model.User{}, fmt.Errorf("%w: %w", ErrDuplicateUsername, repository.ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		metrics.RecordRegistration(metrics.ResultError)
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	start := time.Now()
	hash, err := s.hasher.Hash(plaintext)
	metrics.RecordPasswordHashLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRegistration(metrics.ResultInvalid)
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	user, err := s.store.Create(ctx, username, hash)
	switch {
	case errors.Is(err, repository.ErrConflict):
		// lost a race with a concurrent registration of the same name
		metrics.RecordRegistration(metrics.ResultDuplicate)
		return model.User{}, fmt.Errorf("%w: %w", ErrDuplicateUsername, err)
	case err != nil:
		metrics.RecordRegistration(metrics.ResultError)
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	metrics.RecordRegistration(metrics.ResultSuccess)
	s.logger.Info(ctx, "user registered", logger.String("username", username))
	return user, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords are indistinguishable to the caller and take similar time.
func (s *Service) Authenticate(ctx context.Context, username, plaintext string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}

	user, err := s.store.Find(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Burn(plaintext)
		metrics.RecordLogin(metrics.ResultInvalid)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		metrics.RecordLogin(metrics.ResultError)
		return model.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		metrics.RecordLogin(metrics.ResultInvalid)
		return model.User{}, ErrInvalidCredentials
	}

	metrics.RecordLogin(metrics.ResultSuccess)
	return user, nil
}

// Login authenticates and returns the session cookie to set.
func (s *Service) Login(ctx context.Context, username, plaintext string) (*http.Cookie, error) {
	user, err := s.Authenticate(ctx, username, plaintext)
	if err != nil {
		return nil, err
	}
	value, err := s.sessions.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.sessions.Cookie(value), nil
}

// Authorize validates the session cookie on r.
func (s *Service) Authorize(r *http.Request) (session.Credential, error) {
	if err := s.ready(); err != nil {
		return session.Credential{}, err
	}
	cred, err := s.sessions.Validate(r)
	if err != nil {
		metrics.RecordSessionRejected()
		return session.Credential{}, err
	}
	return cred, nil
}

// Predict scores state and returns the raw score with its display range.
func (s *Service) Predict(ctx context.Context, state model.MatchState) (model.Prediction, error) {
	if err := s.ready(); err != nil {
		return model.Prediction{}, err
	}

	start := time.Now()
	res, err := s.scorer.Score(ctx, scoring.Input{Features: features.Build(state)})
	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordPredictionError()
		return model.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	r := scoring.ToDisplayRange(res.Score)
	metrics.RecordPrediction(res.Score)
	s.logger.Debug(ctx, "prediction",
		logger.String("batting_team", state.BattingTeam),
		logger.String("bowling_team", state.BowlingTeam),
		logger.Float64("score", res.Score),
	)
	return model.Prediction{Score: res.Score, Lower: r.Lower, Upper: r.Upper}, nil
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
		"model":   s.modelName,
	}
	if !s.started {
		return stats
	}

	stats["session_mode"] = s.sessions.Mode()
	stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	if n, err := s.store.Count(ctx); err == nil {
		stats["users"] = n
		metrics.UpdateUsersTotal(n)
	}
	return stats
}
