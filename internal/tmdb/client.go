package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultImageBaseURL is the root for poster and backdrop images; a size segment follows it
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/"
	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrTransient marks failures worth retrying: network errors, timeouts, 5xx and 429
	ErrTransient = errors.New("transient TMDB failure")
	// ErrMalformedResponse marks a response body that could not be decoded
	ErrMalformedResponse = errors.New("malformed TMDB response")
	// ErrRejected marks a 4xx response other than 429
	ErrRejected = errors.New("TMDB rejected request")
	// ErrMissingToken is returned when no API token is configured
	ErrMissingToken = errors.New("TMDB_API_TOKEN not set")
)

// Client is a minimal TMDB API client
type Client struct {
	BaseURL    string
	APIToken   string
	Language   string
	httpClient *http.Client
}

// Genre is one entry of a movie's genre list
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the subset of /movie/{id} the recommender reads.
// Pointer fields distinguish absent or null values from zero values.
type MovieDetails struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Overview     *string  `json:"overview"`
	PosterPath   *string  `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	VoteAverage  *float64 `json:"vote_average"`
	VoteCount    int      `json:"vote_count"`
	ReleaseDate  *string  `json:"release_date"`
	Runtime      *int     `json:"runtime"`
	Genres       []Genre  `json:"genres"`
	Tagline      string   `json:"tagline"`
	IMDbID       *string  `json:"imdb_id"`
}

// NewClient creates a new TMDB client with a 10 second request timeout
func NewClient(baseURL, apiToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIToken: apiToken,
		Language: "en-US",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient swaps the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// GetMovie fetches the details of one movie
func (c *Client) GetMovie(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if c.APIToken == "" {
		return nil, ErrMissingToken
	}

	reqURL := fmt.Sprintf("%s/movie/%d?language=%s", c.BaseURL, movieID, url.QueryEscape(c.Language))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create TMDB request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to fetch movie %d: %w", ErrTransient, movieID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		kind := ErrRejected
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			kind = ErrTransient
		}
		return nil, fmt.Errorf("%w: TMDB API returned status %d: %s", kind, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransient, err)
	}

	var details MovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("%w: failed to decode movie %d: %w", ErrMalformedResponse, movieID, err)
	}

	return &details, nil
}

// IsRetryable reports whether err is worth another attempt
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
