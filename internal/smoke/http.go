package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient is one browser-like session: it keeps cookies and does not
// follow redirects so the login response can be inspected.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Get performs a GET request and returns the status and body.
func (c *HTTPClient) Get(ctx context.Context, path string) (int, string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// PostForm submits url-encoded values.
func (c *HTTPClient) PostForm(ctx context.Context, path string, values url.Values) (int, string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (int, string, *http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", resp, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, string(body), resp, nil
}

func credentialsForm(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func matchForm(s MatchState) url.Values {
	return url.Values{
		"batting_team":      {s.BattingTeam},
		"bowling_team":      {s.BowlingTeam},
		"overs":             {strconv.FormatFloat(s.Overs, 'f', 1, 64)},
		"runs":              {strconv.Itoa(s.Runs)},
		"wickets":           {strconv.Itoa(s.Wickets)},
		"runs_in_prev_5":    {strconv.Itoa(s.RunsInPrev5)},
		"wickets_in_prev_5": {strconv.Itoa(s.WicketsInPrev5)},
	}
}
