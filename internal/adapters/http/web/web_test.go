package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/okian/inningscast/internal/adapters/http/web"
	service "github.com/okian/inningscast/internal/app"
	"github.com/okian/inningscast/internal/domain/features"
	"github.com/okian/inningscast/internal/domain/model"
	"github.com/okian/inningscast/internal/domain/password"
	"github.com/okian/inningscast/internal/domain/scoring"
	"github.com/okian/inningscast/internal/domain/session"
	"github.com/okian/inningscast/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

const shippedModel = "../../../../model/first-innings-score-lr.yaml"

type fixture struct {
	mux *http.ServeMux
	svc *service.Service
}

func newFixture(t *testing.T, scorer scoring.Scorer, opts ...service.Option) *fixture {
	t.Helper()
	base := []service.Option{
		service.WithScorer(scorer, "test"),
		service.WithHasher(password.NewHasher(password.WithCost(bcrypt.MinCost))),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h, err := web.NewHandler(svc)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(context.Background(), mux)
	return &fixture{mux: mux, svc: svc}
}

func shipped(t *testing.T) *scoring.LinearModel {
	t.Helper()
	m, err := scoring.Load(shippedModel)
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	return m
}

func (f *fixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func postForm(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func creds(username, pw string) url.Values {
	return url.Values{"username": {username}, "password": {pw}}
}

func matchForm() url.Values {
	return url.Values{
		"batting_team":      {"Mumbai Indians"},
		"bowling_team":      {"Chennai Super Kings"},
		"overs":             {"10.0"},
		"runs":              {"80"},
		"wickets":           {"2"},
		"runs_in_prev_5":    {"40"},
		"wickets_in_prev_5": {"1"},
	}
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("not a detail body: %q", w.Body.String())
	}
	return body.Detail
}

func accessCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestPages(t *testing.T) {
	Convey("Given the page routes", t, func() {
		f := newFixture(t, shipped(t))
		defer f.svc.Stop()

		for _, page := range []struct {
			path    string
			hasForm bool
		}{
			{"/", true},
			{"/register", true},
			{"/predict", true},
			{"/about", false},
		} {
			page := page
			Convey("When getting "+page.path+" twice", func() {
				first := f.get(page.path)
				second := f.get(page.path)

				Convey("Then both renders should be identical HTML", func() {
					So(first.Code, ShouldEqual, http.StatusOK)
					So(first.Header().Get("Content-Type"), ShouldStartWith, "text/html")
					So(first.Body.String(), ShouldEqual, second.Body.String())
					if page.hasForm {
						So(first.Body.String(), ShouldContainSubstring, "<form")
					} else {
						So(first.Body.String(), ShouldNotContainSubstring, "<form")
					}
				})
			})
		}

		Convey("When getting the prediction form", func() {
			body := f.get("/predict").Body.String()

			Convey("Then every team should be offered", func() {
				for _, team := range features.Teams {
					So(body, ShouldContainSubstring, fmt.Sprintf(`<option value="%s">`, team))
				}
			})
		})

		Convey("When getting an unknown path", func() {
			So(f.get("/nope").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRegisterRoute(t *testing.T) {
	Convey("Given a fresh server", t, func() {
		f := newFixture(t, shipped(t))
		defer f.svc.Stop()

		Convey("When alice registers", func() {
			w := f.do(postForm("/register", creds("alice", "pw1")))

			Convey("Then the login page should confirm it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "User registered successfully")
				So(w.Body.String(), ShouldContainSubstring, `action="/token"`)
			})

			Convey("And registering alice again should be a 400", func() {
				again := f.do(postForm("/register", creds("alice", "pw2")))
				So(again.Code, ShouldEqual, http.StatusBadRequest)
				So(again.Body.String(), ShouldContainSubstring, "Username already registered")

				Convey("And the first password should still work", func() {
					So(f.do(postForm("/token", creds("alice", "pw1"))).Code, ShouldEqual, http.StatusFound)
					So(f.do(postForm("/token", creds("alice", "pw2"))).Code, ShouldEqual, http.StatusUnauthorized)
				})
			})
		})

		Convey("When the duplicate is requested as JSON", func() {
			f.do(postForm("/register", creds("bob", "pw")))
			r := postForm("/register", creds("bob", "pw"))
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then the body should be a detail object", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(detail(t, w), ShouldEqual, "Username already registered")
			})
		})

		Convey("When the password is missing", func() {
			r := postForm("/register", url.Values{"username": {"carol"}})
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then it should be a 422 naming the field", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(detail(t, w), ShouldStartWith, "password:")
			})
		})

		Convey("When the password is longer than bcrypt allows", func() {
			r := postForm("/register", creds("dave", strings.Repeat("x", 100)))
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then it should be a 422 on password", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(detail(t, w), ShouldStartWith, "password:")
			})
		})
	})
}

func TestTokenRoute(t *testing.T) {
	Convey("Given a registered user", t, func() {
		f := newFixture(t, shipped(t))
		defer f.svc.Stop()
		So(f.do(postForm("/register", creds("alice", "pw1"))).Code, ShouldEqual, http.StatusOK)

		Convey("When logging in with the right password", func() {
			w := f.do(postForm("/token", creds("alice", "pw1")))

			Convey("Then it should redirect to /predict with the session cookie", func() {
				So(w.Code, ShouldEqual, http.StatusFound)
				So(w.Header().Get("Location"), ShouldEqual, "/predict")
				c := accessCookie(w)
				So(c, ShouldNotBeNil)
				So(c.Value, ShouldEqual, "alice")
				So(c.Path, ShouldEqual, "/")
			})
		})

		Convey("When logging in with a wrong password", func() {
			w := f.do(postForm("/token", creds("alice", "nope")))

			Convey("Then it should be 401 without a cookie", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(accessCookie(w), ShouldBeNil)
				So(w.Body.String(), ShouldContainSubstring, "Incorrect username or password")
			})
		})

		Convey("When logging in as an unknown user", func() {
			r := postForm("/token", creds("mallory", "pw1"))
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then the message should match the wrong-password case", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(accessCookie(w), ShouldBeNil)
				So(detail(t, w), ShouldEqual, "Incorrect username or password")
			})
		})
	})
}

func TestPredictRoute(t *testing.T) {
	Convey("Given the shipped model", t, func() {
		m := shipped(t)
		f := newFixture(t, m)
		defer f.svc.Stop()

		res, err := m.Score(context.Background(), scoring.Input{Features: features.Build(model.MatchState{
			BattingTeam:     "Mumbai Indians",
			BowlingTeam:     "Chennai Super Kings",
			Overs:           10.0,
			Runs:            80,
			Wickets:         2,
			RunsLastFive:    40,
			WicketsLastFive: 1,
		})})
		So(err, ShouldBeNil)
		want := scoring.ToDisplayRange(res.Score)

		Convey("When posting the example match state with any cookie", func() {
			w := f.do(postForm("/predict", matchForm(), &http.Cookie{Name: "access_token", Value: "whoever"}))

			Convey("Then the page should show floor(score)-10 and floor(score)+5", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, fmt.Sprintf(`<strong id="lower-limit">%d</strong>`, want.Lower))
				So(body, ShouldContainSubstring, fmt.Sprintf(`<strong id="upper-limit">%d</strong>`, want.Upper))
				So(want.Upper-want.Lower, ShouldEqual, 15)
			})
		})

		Convey("When posting without a cookie", func() {
			w := f.do(postForm("/predict", matchForm()))

			Convey("Then it should be 401", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(w.Body.String(), ShouldContainSubstring, "Not authenticated")
			})
		})

		Convey("When posting bad fields without a cookie", func() {
			form := matchForm()
			form.Set("runs", "eighty")
			w := f.do(postForm("/predict", form))

			Convey("Then the session check should win", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When a field is malformed", func() {
			cookie := &http.Cookie{Name: "access_token", Value: "alice"}
			cases := []struct {
				field, value string
			}{
				{"runs", "eighty"},
				{"overs", "ten"},
				{"wickets", "2.5"},
				{"runs_in_prev_5", ""},
				{"wickets_in_prev_5", "NaN"},
				{"batting_team", ""},
			}
			for _, c := range cases {
				form := matchForm()
				form.Set(c.field, c.value)
				r := postForm("/predict", form, cookie)
				r.Header.Set("Accept", "application/json")
				w := f.do(r)

				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(detail(t, w), ShouldStartWith, c.field+":")
			}
		})

		Convey("When several fields are malformed", func() {
			form := matchForm()
			form.Set("overs", "x")
			form.Set("runs", "y")
			r := postForm("/predict", form, &http.Cookie{Name: "access_token", Value: "alice"})
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then the first one in form order should be reported", func() {
				So(detail(t, w), ShouldStartWith, "overs:")
			})
		})

		Convey("When the teams are not in the list", func() {
			form := matchForm()
			form.Set("batting_team", "Deccan Chargers")
			form.Set("bowling_team", "Kochi Tuskers Kerala")
			w := f.do(postForm("/predict", form, &http.Cookie{Name: "access_token", Value: "alice"}))

			Convey("Then prediction should still succeed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `id="lower-limit"`)
			})
		})
	})
}

func TestFullFlow(t *testing.T) {
	Convey("Given signed sessions", t, func() {
		m, err := session.NewManager(session.WithSigning([]byte("flow-secret")))
		So(err, ShouldBeNil)
		f := newFixture(t, shipped(t), service.WithSessions(m))
		defer f.svc.Stop()

		Convey("When a user registers, logs in and predicts with the issued cookie", func() {
			So(f.do(postForm("/register", creds("alice", "pw1"))).Code, ShouldEqual, http.StatusOK)
			login := f.do(postForm("/token", creds("alice", "pw1")))
			So(login.Code, ShouldEqual, http.StatusFound)
			cookie := accessCookie(login)
			So(cookie, ShouldNotBeNil)
			So(cookie.Value, ShouldNotEqual, "alice")

			w := f.do(postForm("/predict", matchForm(), cookie))

			Convey("Then the prediction should render", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `id="upper-limit"`)
			})
		})

		Convey("When a client forges a plain username cookie", func() {
			w := f.do(postForm("/predict", matchForm(), &http.Cookie{Name: "access_token", Value: "alice"}))

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})
	})
}

func TestPlainFlowWithAwkwardUsernames(t *testing.T) {
	Convey("Given plain sessions", t, func() {
		f := newFixture(t, shipped(t))
		defer f.svc.Stop()

		for _, name := range []string{"José", "ñ", "a;b", "ab", `q"uote`} {
			name := name
			Convey("When "+name+" registers, logs in and predicts with the issued cookie", func() {
				So(f.do(postForm("/register", creds(name, "pw1"))).Code, ShouldEqual, http.StatusOK)
				login := f.do(postForm("/token", creds(name, "pw1")))
				So(login.Code, ShouldEqual, http.StatusFound)
				cookie := accessCookie(login)
				So(cookie, ShouldNotBeNil)
				So(cookie.Value, ShouldNotBeEmpty)

				r := postForm("/predict", matchForm(), cookie)
				cred, err := f.svc.Authorize(r)

				Convey("Then the cookie should carry the exact username", func() {
					So(err, ShouldBeNil)
					So(cred.Username, ShouldEqual, name)
				})

				Convey("And the prediction should render", func() {
					w := f.do(r)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Body.String(), ShouldContainSubstring, `id="lower-limit"`)
				})
			})
		}
	})
}

type brokenScorer struct{}

func (brokenScorer) Score(context.Context, scoring.Input) (scoring.Result, error) {
	return scoring.Result{}, scoring.ErrShape
}

func TestPredictRouteInternalError(t *testing.T) {
	Convey("Given a scorer that fails", t, func() {
		f := newFixture(t, brokenScorer{})
		defer f.svc.Stop()

		Convey("When predicting", func() {
			r := postForm("/predict", matchForm(), &http.Cookie{Name: "access_token", Value: "alice"})
			r.Header.Set("Accept", "application/json")
			w := f.do(r)

			Convey("Then a generic 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(detail(t, w), ShouldEqual, "Internal Server Error")
			})
		})
	})
}
