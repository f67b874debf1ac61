// Package client talks to the mindcheck backend over HTTP. It implements the
// session's TestProvider and ResultSink.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type Config struct {
	BaseURL string

	// Token is a bearer token (e.g. from Login). Ignored when TokenURL is set.
	Token string

	// Client-credentials flow for service callers.
	TokenURL     string
	ClientID     string
	ClientSecret string

	Timeout time.Duration
}

type Client struct {
	base string
	http *http.Client
}

func New(cfg Config) *Client {
	ctx := context.Background()
	var h *http.Client
	switch {
	case cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(ctx)
	case cfg.Token != "":
		h = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	default:
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	h := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	h.Timeout = c.http.Timeout
	return &Client{base: c.base, http: h}
}

// GetTest fetches GET /test/{id}. Any non-2xx status or an empty body is a
// *quiz.NotFoundError.
func (c *Client) GetTest(ctx context.Context, testID string) (quiz.Test, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/test/"+url.PathEscape(testID), nil)
	if err != nil {
		return quiz.Test{}, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: errors.Errorf("get test: %s", res.Status)}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: errors.New("empty body")}
	}
	var t quiz.Test
	if err := json.Unmarshal(body, &t); err != nil {
		return quiz.Test{}, &quiz.NotFoundError{TestID: testID, Err: errors.Wrap(err, "decode test")}
	}
	return t, nil
}

// SubmitResult posts the attempt to POST /test/submitUserTestResult.
func (c *Client) SubmitResult(ctx context.Context, p quiz.AttemptPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/test/submitUserTestResult", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "submit result")
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode/100 != 2 {
		return errors.Errorf("submit result: %s", res.Status)
	}
	return nil
}

// Session is the outcome of Login.
type Session struct {
	AccessToken string `json:"access_token"`
	Subject     string `json:"sub"`
	Role        string `json:"role"`
}

// Login exchanges credentials for a bearer token at POST /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return Session{}, errors.Wrap(err, "login")
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return Session{}, errors.Errorf("login: %s", res.Status)
	}
	var s Session
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return Session{}, errors.Wrap(err, "decode login response")
	}
	if s.AccessToken == "" {
		return Session{}, errors.New("login: no access token in response")
	}
	return s, nil
}

// ListTests fetches GET /tests.
func (c *Client) ListTests(ctx context.Context) ([]quiz.TestSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/tests", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "list tests")
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, errors.Errorf("list tests: %s", res.Status)
	}
	var out []quiz.TestSummary
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode tests")
	}
	return out, nil
}
