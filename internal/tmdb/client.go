package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoCredentials is returned by New when neither an API key nor a bearer
// token is configured.
var ErrNoCredentials = errors.New("tmdb api key or token required")

// Show models the fields of the TMDB TV details payload used for naming.
type Show struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	FirstAirDate string `json:"first_air_date"`
	NumSeasons   int    `json:"number_of_seasons"`
}

// Title returns the localized name, falling back to the original name.
func (s Show) Title() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return strings.TrimSpace(s.OriginalName)
}

// Credentials selects how requests authenticate. A bearer token takes
// precedence over an API key.
type Credentials struct {
	APIKey string
	Token  string
}

// Client provides access to the TMDB API.
type Client struct {
	creds      Credentials
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(creds Credentials, baseURL, language string, opts ...Option) (*Client, error) {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.Token = strings.TrimSpace(creds.Token)
	if creds.APIKey == "" && creds.Token == "" {
		return nil, ErrNoCredentials
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		creds:      creds,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetTVDetails fetches TV show details by TMDB ID.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Show, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/tv/%d", c.baseURL, showID))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	if c.creds.Token == "" {
		params.Set("api_key", c.creds.APIKey)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb tv details returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload Show
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tv details: %w", err)
	}
	return &payload, nil
}

// ShowName returns the display name of a TV show.
func (c *Client) ShowName(ctx context.Context, showID int64) (string, error) {
	show, err := c.GetTVDetails(ctx, showID)
	if err != nil {
		return "", err
	}
	title := show.Title()
	if title == "" {
		return "", fmt.Errorf("tmdb show %d has no name", showID)
	}
	return title, nil
}
