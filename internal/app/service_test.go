package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/inningscast/internal/adapters/repository"
	service "github.com/okian/inningscast/internal/app"
	"github.com/okian/inningscast/internal/domain/features"
	"github.com/okian/inningscast/internal/domain/model"
	"github.com/okian/inningscast/internal/domain/password"
	"github.com/okian/inningscast/internal/domain/scoring"
	"github.com/okian/inningscast/internal/domain/session"
	"github.com/okian/inningscast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// runsModel scores a state as its current run total plus intercept.
func runsModel(t *testing.T, intercept float64) *scoring.LinearModel {
	t.Helper()
	coef := make([]float64, features.Length)
	coef[0] = 1
	m, err := scoring.NewLinearModel(intercept, coef, scoring.WithName("runs-only"))
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, scoring.Input) (scoring.Result, error) {
	return scoring.Result{}, errors.New("model unavailable")
}

func newStarted(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithScorer(runsModel(t, 60), "runs-only"),
		service.WithHasher(password.NewHasher(password.WithCost(bcrypt.MinCost))),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without a scorer", t, func() {
		svc := service.New()

		Convey("Then Start should fail", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrMissingScorer), ShouldBeTrue)
		})

		Convey("And operations should report not started", func() {
			_, err := svc.Register(context.Background(), "alice", "pw")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newStarted(t)

		Convey("Then stats should describe it", func() {
			stats := svc.GetStats(context.Background())
			So(stats["started"], ShouldEqual, true)
			So(stats["model"], ShouldEqual, "runs-only")
			So(stats["session_mode"], ShouldEqual, session.ModePlain)
			So(stats["users"], ShouldEqual, 0)
		})

		Convey("When stopping twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats(context.Background())["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		svc := newStarted(t, service.WithStore(store))
		defer svc.Stop()

		Convey("When alice registers", func() {
			user, err := svc.Register(ctx, "alice", "pw1")
			So(err, ShouldBeNil)

			Convey("Then the stored hash should not be the plaintext", func() {
				stored, err := store.Find(ctx, "alice")
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, user.ID)
				So(stored.PasswordHash, ShouldNotEqual, "pw1")
				So(stored.PasswordHash, ShouldStartWith, "$2a$")
			})

			Convey("Then registering alice again should fail and keep the first password", func() {
				_, err := svc.Register(ctx, "alice", "pw2")
				So(errors.Is(err, service.ErrDuplicateUsername), ShouldBeTrue)
				So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)

				_, err = svc.Authenticate(ctx, "alice", "pw1")
				So(err, ShouldBeNil)
				_, err = svc.Authenticate(ctx, "alice", "pw2")
				So(errors.Is(err, service.ErrInvalidCredentials), ShouldBeTrue)
			})

			Convey("Then the right password should authenticate", func() {
				got, err := svc.Authenticate(ctx, "alice", "pw1")
				So(err, ShouldBeNil)
				So(got.Username, ShouldEqual, "alice")
			})

			Convey("Then a wrong password and an unknown user should look the same", func() {
				_, wrong := svc.Authenticate(ctx, "alice", "nope")
				_, unknown := svc.Authenticate(ctx, "bob", "pw1")
				So(errors.Is(wrong, service.ErrInvalidCredentials), ShouldBeTrue)
				So(errors.Is(unknown, service.ErrInvalidCredentials), ShouldBeTrue)
				So(wrong.Error(), ShouldEqual, unknown.Error())
			})

			Convey("Then lookups should be case-sensitive", func() {
				_, err := svc.Authenticate(ctx, "Alice", "pw1")
				So(errors.Is(err, service.ErrInvalidCredentials), ShouldBeTrue)
			})
		})

		Convey("When the password is over the hasher limit", func() {
			_, err := svc.Register(ctx, "long", strings.Repeat("p", 80))

			Convey("Then the hasher error should surface and nothing be stored", func() {
				So(errors.Is(err, password.ErrPasswordTooLong), ShouldBeTrue)
				_, err := store.Find(ctx, "long")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When many goroutines register the same name", func() {
			const n = 6
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				oks  int
				dups int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Register(ctx, "carol", "pw")
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						oks++
					} else if errors.Is(err, service.ErrDuplicateUsername) {
						dups++
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should succeed", func() {
				So(oks, ShouldEqual, 1)
				So(dups, ShouldEqual, n-1)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a registered user", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		defer svc.Stop()
		_, err := svc.Register(ctx, "alice", "pw1")
		So(err, ShouldBeNil)

		Convey("When logging in", func() {
			cookie, err := svc.Login(ctx, "alice", "pw1")
			So(err, ShouldBeNil)

			Convey("Then the cookie should carry the username", func() {
				So(cookie.Name, ShouldEqual, "access_token")
				So(cookie.Value, ShouldEqual, "alice")
				So(cookie.Path, ShouldEqual, "/")
			})

			Convey("Then Authorize should accept it", func() {
				r := httptest.NewRequest(http.MethodPost, "/predict", nil)
				r.AddCookie(cookie)
				cred, err := svc.Authorize(r)
				So(err, ShouldBeNil)
				So(cred.Username, ShouldEqual, "alice")
			})
		})

		Convey("When logging in with a wrong password", func() {
			cookie, err := svc.Login(ctx, "alice", "bad")

			Convey("Then no cookie should be issued", func() {
				So(cookie, ShouldBeNil)
				So(errors.Is(err, service.ErrInvalidCredentials), ShouldBeTrue)
			})
		})

		Convey("When a request carries no cookie", func() {
			_, err := svc.Authorize(httptest.NewRequest(http.MethodPost, "/predict", nil))
			So(errors.Is(err, session.ErrUnauthenticated), ShouldBeTrue)
		})
	})

	Convey("Given signed sessions", t, func() {
		ctx := context.Background()
		m, err := session.NewManager(session.WithSigning([]byte("k")))
		So(err, ShouldBeNil)
		svc := newStarted(t, service.WithSessions(m))
		defer svc.Stop()
		_, err = svc.Register(ctx, "alice", "pw1")
		So(err, ShouldBeNil)

		Convey("Then a forged plain cookie should be rejected", func() {
			r := httptest.NewRequest(http.MethodPost, "/predict", nil)
			r.AddCookie(&http.Cookie{Name: "access_token", Value: "alice"})
			_, err := svc.Authorize(r)
			So(errors.Is(err, session.ErrUnauthenticated), ShouldBeTrue)
		})

		Convey("Then the issued cookie should be accepted", func() {
			cookie, err := svc.Login(ctx, "alice", "pw1")
			So(err, ShouldBeNil)
			r := httptest.NewRequest(http.MethodPost, "/predict", nil)
			r.AddCookie(cookie)
			cred, err := svc.Authorize(r)
			So(err, ShouldBeNil)
			So(cred.Username, ShouldEqual, "alice")
		})
	})
}

func TestService_Predict(t *testing.T) {
	Convey("Given a runs-only model with intercept 60", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		defer svc.Stop()

		Convey("When predicting from 80 runs", func() {
			p, err := svc.Predict(ctx, model.MatchState{
				BattingTeam: "Mumbai Indians",
				BowlingTeam: "Chennai Super Kings",
				Runs:        80,
				Overs:       10,
			})

			Convey("Then the range should be floor(score)-10 .. floor(score)+5", func() {
				So(err, ShouldBeNil)
				So(p.Score, ShouldEqual, 140.0)
				So(p.Lower, ShouldEqual, 130)
				So(p.Upper, ShouldEqual, 145)
			})
		})

		Convey("When the teams are unknown", func() {
			p, err := svc.Predict(ctx, model.MatchState{BattingTeam: "Nowhere XI", Runs: 10})

			Convey("Then prediction should still succeed", func() {
				So(err, ShouldBeNil)
				So(p.Upper-p.Lower, ShouldEqual, 15)
			})
		})
	})

	Convey("Given a failing scorer", t, func() {
		svc := service.New(service.WithScorer(failingScorer{}, "broken"))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then Predict should return the error", func() {
			_, err := svc.Predict(context.Background(), model.MatchState{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "model unavailable")
		})
	})
}
