package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const inceptionJSON = `{
  "id": 27205,
  "title": "Inception",
  "overview": "Cobb, a skilled thief...",
  "poster_path": "/abc.jpg",
  "backdrop_path": null,
  "vote_average": 8.799,
  "vote_count": 35000,
  "release_date": "2010-07-16",
  "runtime": 148,
  "genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
  "tagline": "Your mind is the scene of the crime.",
  "imdb_id": "tt1375666"
}`

func TestGetMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/27205" {
			t.Errorf("Expected path /movie/27205, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("language"); got != "en-US" {
			t.Errorf("Expected language=en-US, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}
		if got := r.Header.Get("accept"); got != "application/json" {
			t.Errorf("Expected accept header application/json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(inceptionJSON))
	}))
	defer server.Close()

	details, err := NewClient(server.URL, "secret").GetMovie(context.Background(), 27205)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}

	if details.Title != "Inception" {
		t.Errorf("Expected title Inception, got %s", details.Title)
	}
	if details.PosterPath == nil || *details.PosterPath != "/abc.jpg" {
		t.Errorf("Expected poster path /abc.jpg, got %v", details.PosterPath)
	}
	if details.BackdropPath != nil {
		t.Errorf("Expected nil backdrop path for JSON null, got %v", *details.BackdropPath)
	}
	if details.Runtime == nil || *details.Runtime != 148 {
		t.Errorf("Expected runtime 148, got %v", details.Runtime)
	}
	if len(details.Genres) != 2 || details.Genres[1].Name != "Science Fiction" {
		t.Errorf("Unexpected genres: %+v", details.Genres)
	}
}

func TestGetMovieErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{name: "server error is transient", status: http.StatusBadGateway, body: "bad gateway", expected: ErrTransient},
		{name: "rate limited is transient", status: http.StatusTooManyRequests, body: "slow down", expected: ErrTransient},
		{name: "not found is rejected", status: http.StatusNotFound, body: `{"status_code":34}`, expected: ErrRejected},
		{name: "unauthorized is rejected", status: http.StatusUnauthorized, body: `{"status_code":7}`, expected: ErrRejected},
		{name: "invalid JSON is malformed", status: http.StatusOK, body: "<html>oops</html>", expected: ErrMalformedResponse},
		{name: "wrong shape is malformed", status: http.StatusOK, body: `{"genres": "Action"}`, expected: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "secret").GetMovie(context.Background(), 1)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			if IsRetryable(err) != errors.Is(tt.expected, ErrTransient) {
				t.Errorf("IsRetryable(%v) mismatch", err)
			}
		})
	}
}

func TestGetMovieConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, "secret").GetMovie(context.Background(), 1)
	if !errors.Is(err, ErrTransient) {
		t.Errorf("Expected ErrTransient for refused connection, got %v", err)
	}
}

func TestGetMovieTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret").WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond})
	_, err := client.GetMovie(context.Background(), 1)
	if !errors.Is(err, ErrTransient) {
		t.Errorf("Expected ErrTransient on timeout, got %v", err)
	}
}

func TestGetMovieMissingToken(t *testing.T) {
	_, err := NewClient("", "").GetMovie(context.Background(), 1)
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("Missing token must not be retryable")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "tok")
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, c.BaseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, c.httpClient.Timeout)
	}

	c = NewClient("http://example.test/3/", "tok")
	if c.BaseURL != "http://example.test/3" {
		t.Errorf("Expected trailing slash trimmed, got %s", c.BaseURL)
	}
}
