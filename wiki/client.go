package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/sniku/gowiki/metrics"
	"github.com/sniku/gowiki/tracing"
)

// Client handles communication with the MediaWiki API.
// A Client owns one cookie jar and is not safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
	fs         afero.Fs
	now        func() time.Time

	loggedIn bool
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is added if it has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFs sets the filesystem uploads are read from
func WithFs(fs afero.Fs) ClientOption {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithClock sets the time source used for log timestamps
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new MediaWiki API client
func NewClient(config *Config, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		config: config,
		logger: logger,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}
	}
	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}
	return c
}

// Config returns the client configuration
func (c *Client) Config() *Config {
	return c.config
}

// LoggedIn reports whether the login handshake completed
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// apiResponse is a raw API reply: HTTP status plus body
type apiResponse struct {
	status int
	body   []byte
}

func (r *apiResponse) ok() bool {
	return r.status == http.StatusOK
}

// decode unmarshals the body into target
func (r *apiResponse) decode(action string, target any) error {
	if err := json.Unmarshal(r.body, target); err != nil {
		return &ProtocolError{Action: action, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// apiErrorEnvelope is the {"error": {...}} object MediaWiki returns with HTTP 200
type apiErrorEnvelope struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// apiError returns the code and info of an error envelope, if the body carries one
func (r *apiResponse) apiError() (code, info string, found bool) {
	var env apiErrorEnvelope
	if err := json.Unmarshal(r.body, &env); err != nil || env.Error == nil {
		return "", "", false
	}
	return env.Error.Code, env.Error.Info, true
}

// endpoint builds the API URL with format=json and the given query parameters
func (c *Client) endpoint(query url.Values) (string, error) {
	u, err := url.Parse(c.config.APIURL)
	if err != nil {
		return "", &ConfigError{Field: "mediawiki_api_url", Reason: err.Error()}
	}
	q := u.Query()
	q.Set("format", "json")
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get issues a GET with all params in the query string
func (c *Client) get(ctx context.Context, action string, params url.Values) (*apiResponse, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	target, err := c.endpoint(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, action)
}

// post issues a form POST; query carries URL parameters, form the body
func (c *Client) post(ctx context.Context, action string, query, form url.Values) (*apiResponse, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("action", action)
	target, err := c.endpoint(query)
	if err != nil {
		return nil, err
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, action)
}

// do sends a prepared request with basic auth and user agent, reads the whole body
// and records metrics. It never retries.
func (c *Client) do(req *http.Request, action string) (*apiResponse, error) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.HasBasicAuth() {
		req.SetBasicAuth(c.config.HTTPUsername, c.config.HTTPPassword)
	}

	ctx, span := tracing.StartSpan(req.Context(), "wiki.api."+action)
	defer span.End()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false, "transport")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close() // Error ignored intentionally; body already read
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordAPICall(action, duration, false, "read")
		return nil, fmt.Errorf("failed to read %s response: %w", action, err)
	}

	r := &apiResponse{status: resp.StatusCode, body: body}
	tracing.AddHTTPAttributes(span, req.Method, resp.StatusCode, len(body))
	switch code, _, isErr := r.apiError(); {
	case !r.ok():
		metrics.RecordAPICall(action, duration, false, fmt.Sprintf("http_%d", resp.StatusCode))
	case isErr:
		metrics.RecordAPICall(action, duration, false, code)
	default:
		metrics.RecordAPICall(action, duration, true, "")
	}

	c.logger.Debug("API request",
		"action", action,
		"method", req.Method,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", int(duration*1000))
	return r, nil
}

// loginResponse is the shape of both login steps
type loginResponse struct {
	Login struct {
		Token  string `json:"token"`
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

// Login performs the two step handshake: request a login token with the username,
// then send username, password and token. Without configured credentials the
// session stays anonymous and Login returns nil.
func (c *Client) Login(ctx context.Context) error {
	if !c.config.HasCredentials() {
		c.logger.Debug("No wiki credentials configured, using anonymous session")
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.login")
	defer span.End()
	tracing.AddWikiAttributes(span, "login", "")

	resp, err := c.post(ctx, "login", nil, url.Values{"lgname": {c.config.Username}})
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}
	if !resp.ok() {
		metrics.AuthFailures.WithLabelValues("token_status").Inc()
		err := &AuthError{Step: 1, StatusCode: resp.status, Reason: truncate(string(resp.body), 200)}
		tracing.RecordError(span, err)
		return err
	}

	var step1 loginResponse
	if err := resp.decode("login", &step1); err != nil {
		metrics.AuthFailures.WithLabelValues("token_shape").Inc()
		return err
	}
	if step1.Login.Token == "" {
		metrics.AuthFailures.WithLabelValues("token_shape").Inc()
		return &ProtocolError{Action: "login", Reason: "no login token in response"}
	}

	resp, err = c.post(ctx, "login", nil, url.Values{
		"lgname":     {c.config.Username},
		"lgpassword": {c.config.Password},
		"lgtoken":    {step1.Login.Token},
	})
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}

	var step2 loginResponse
	if err := resp.decode("login", &step2); err != nil {
		metrics.AuthFailures.WithLabelValues("result_shape").Inc()
		return &AuthError{Step: 2, StatusCode: resp.status, Reason: err.Error()}
	}
	if step2.Login.Result != "Success" {
		metrics.AuthFailures.WithLabelValues("rejected").Inc()
		err := &AuthError{Step: 2, StatusCode: resp.status, Result: step2.Login.Result, Reason: step2.Login.Reason}
		tracing.RecordError(span, err)
		return err
	}

	c.loggedIn = true
	c.logger.Info("Successfully logged in", "username", c.config.Username)
	return nil
}
