package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"platewatch/internal/dto"
	"platewatch/internal/model"
)

// SessionCookie is the cookie the API reads the login session token from.
const SessionCookie = "session"

// Client talks to the platewatch REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiToken   string
	session    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIToken sets the X-API-Token header used by POST /api/plates.
func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// WithSession sets an existing session token for session-protected reads.
func WithSession(value string) Option {
	return func(c *Client) { c.session = value }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	c := &Client{baseURL: u, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login opens a session with username and password and uses its token for
// later requests. The returned token can be handed to other HTTP clients,
// such as the stream reader.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: login: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// the cookie arrives on the redirect itself
	hc := *c.httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: login as %s: status %d", ErrNetwork, username, resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookie && cookie.Value != "" {
			c.session = cookie.Value
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("%w: login as %s: no session cookie", ErrParse, username)
}

// Plates fetches the full detection list, ascending by timestamp.
func (c *Client) Plates(ctx context.Context) ([]model.Detection, error) {
	var plates []model.Detection
	if err := c.do(ctx, http.MethodGet, "/api/plates", nil, &plates); err != nil {
		return nil, err
	}
	if plates == nil {
		plates = []model.Detection{}
	}
	return plates, nil
}

// ActiveCameras lists the cameras currently streaming.
func (c *Client) ActiveCameras(ctx context.Context) ([]model.CameraRef, error) {
	var cams []model.CameraRef
	if err := c.do(ctx, http.MethodGet, "/api/active_cameras", nil, &cams); err != nil {
		return nil, err
	}
	return cams, nil
}

// PostPlate submits a detection.
func (c *Client) PostPlate(ctx context.Context, req dto.PlateRequest) (*dto.PlateResponse, error) {
	var resp dto.PlateResponse
	if err := c.do(ctx, http.MethodPost, "/api/plates", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamURL expands {id} in a stream path template against the base URL.
func (c *Client) StreamURL(template string, id model.CameraID) string {
	path := strings.ReplaceAll(template, "{id}", url.PathEscape(string(id)))
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("X-API-Token", c.apiToken)
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s: status %d", ErrNetwork, method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, ctx.Err())
		}
		return fmt.Errorf("%w: %s %s: %v", ErrParse, method, path, err)
	}
	return nil
}
