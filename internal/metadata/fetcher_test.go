package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codehack/movierec/internal/storage"
	"github.com/codehack/movierec/internal/tmdb"
)

// scriptedGetter returns queued errors first, then details
type scriptedGetter struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	details *tmdb.MovieDetails
	delay   time.Duration
}

func (s *scriptedGetter) GetMovie(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	d := *s.details
	d.ID = movieID
	return &d, nil
}

func (s *scriptedGetter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func strPtr(s string) *string { return &s }

func newTestFetcher(getter MovieGetter, cache *storage.MetadataCache) (*Fetcher, *[]time.Duration) {
	f := NewFetcher(getter, cache, Options{ImageBaseURL: "https://image.tmdb.org/t/p/"})
	var waits []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return f, &waits
}

func transient(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = fmt.Errorf("%w: attempt %d", tmdb.ErrTransient, i+1)
	}
	return errs
}

func TestFetchDetailsSuccess(t *testing.T) {
	getter := &scriptedGetter{details: &tmdb.MovieDetails{Title: "Inception", PosterPath: strPtr("/abc.jpg")}}
	f, _ := newTestFetcher(getter, storage.New(time.Hour))

	rec, err := f.FetchDetails(context.Background(), 27205)
	if err != nil {
		t.Fatalf("FetchDetails failed: %v", err)
	}
	if rec.Title != "Inception" {
		t.Errorf("Expected title Inception, got %s", rec.Title)
	}
	if rec.PosterURL == nil || *rec.PosterURL != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Errorf("Unexpected poster URL: %v", rec.PosterURL)
	}
}

func TestFetchDetailsMemoization(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := storage.New(time.Hour).WithClock(func() time.Time { return clock })
	getter := &scriptedGetter{details: &tmdb.MovieDetails{Title: "Inception"}}
	f, _ := newTestFetcher(getter, cache)

	for i := 0; i < 2; i++ {
		if _, err := f.FetchDetails(context.Background(), 27205); err != nil {
			t.Fatalf("FetchDetails failed: %v", err)
		}
	}
	if getter.Calls() != 1 {
		t.Errorf("Expected 1 network call within TTL, got %d", getter.Calls())
	}

	clock = clock.Add(time.Hour + time.Second)
	if _, err := f.FetchDetails(context.Background(), 27205); err != nil {
		t.Fatalf("FetchDetails failed: %v", err)
	}
	if getter.Calls() != 2 {
		t.Errorf("Expected a new network call after TTL expiry, got %d calls", getter.Calls())
	}
}

func TestFetchDetailsReturnsIndependentCopies(t *testing.T) {
	getter := &scriptedGetter{details: &tmdb.MovieDetails{
		Title:        "Inception",
		PosterPath:   strPtr("/abc.jpg"),
		BackdropPath: strPtr("/bg.jpg"),
	}}
	f, _ := newTestFetcher(getter, storage.New(time.Hour))

	first, err := f.FetchDetails(context.Background(), 27205)
	if err != nil {
		t.Fatalf("FetchDetails failed: %v", err)
	}
	wantPoster := *first.PosterURL
	wantBackdrop := *first.BackdropURL

	*first.PosterURL = "https://example.com/changed.jpg"
	*first.BackdropURL = "https://example.com/changed.jpg"

	second, err := f.FetchDetails(context.Background(), 27205)
	if err != nil {
		t.Fatalf("Second FetchDetails failed: %v", err)
	}
	if getter.Calls() != 1 {
		t.Fatalf("Expected second fetch to hit the cache, got %d calls", getter.Calls())
	}
	if *second.PosterURL != wantPoster {
		t.Errorf("Expected cached poster %q, got %q", wantPoster, *second.PosterURL)
	}
	if *second.BackdropURL != wantBackdrop {
		t.Errorf("Expected cached backdrop %q, got %q", wantBackdrop, *second.BackdropURL)
	}

	*second.PosterURL = "https://example.com/again.jpg"
	third, _ := f.FetchDetails(context.Background(), 27205)
	if *third.PosterURL != wantPoster {
		t.Errorf("Expected cached poster %q after cache hit edit, got %q", wantPoster, *third.PosterURL)
	}
}

func TestFetchDetailsRetriesWithLinearBackoff(t *testing.T) {
	getter := &scriptedGetter{errs: transient(2), details: &tmdb.MovieDetails{Title: "Heat"}}
	f, waits := newTestFetcher(getter, storage.New(time.Hour))

	rec, err := f.FetchDetails(context.Background(), 949)
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if rec.Title != "Heat" {
		t.Errorf("Expected title Heat, got %s", rec.Title)
	}
	if getter.Calls() != 3 {
		t.Errorf("Expected 3 attempts, got %d", getter.Calls())
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if fmt.Sprint(*waits) != fmt.Sprint(want) {
		t.Errorf("Expected waits %v, got %v", want, *waits)
	}
}

func TestFetchDetailsGivesUpAfterThreeAttempts(t *testing.T) {
	getter := &scriptedGetter{errs: transient(3), details: &tmdb.MovieDetails{}}
	f, waits := newTestFetcher(getter, storage.New(time.Hour))

	rec, err := f.FetchDetails(context.Background(), 1)
	if rec != nil {
		t.Errorf("Expected nil record, got %+v", rec)
	}
	if !errors.Is(err, tmdb.ErrTransient) {
		t.Errorf("Expected transient error, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fetchErr.Attempts != 3 || fetchErr.MovieID != 1 {
		t.Errorf("Unexpected FetchError: %+v", fetchErr)
	}
	if getter.Calls() != 3 {
		t.Errorf("Expected 3 network calls, got %d", getter.Calls())
	}
	if len(*waits) != 2 {
		t.Errorf("Expected 2 backoff waits, got %v", *waits)
	}
}

func TestFetchDetailsDoesNotRetryMalformed(t *testing.T) {
	getter := &scriptedGetter{
		errs:    []error{fmt.Errorf("%w: bad body", tmdb.ErrMalformedResponse)},
		details: &tmdb.MovieDetails{},
	}
	f, waits := newTestFetcher(getter, storage.New(time.Hour))

	rec, err := f.FetchDetails(context.Background(), 1)
	if rec != nil || !errors.Is(err, tmdb.ErrMalformedResponse) {
		t.Errorf("Expected nil record and malformed error, got %v, %v", rec, err)
	}
	if getter.Calls() != 1 || len(*waits) != 0 {
		t.Errorf("Expected a single attempt without backoff, got %d calls and waits %v", getter.Calls(), *waits)
	}
}

func TestFetchDetailsFailureNotCached(t *testing.T) {
	getter := &scriptedGetter{errs: transient(3), details: &tmdb.MovieDetails{Title: "Later"}}
	f, _ := newTestFetcher(getter, storage.New(time.Hour))

	if _, err := f.FetchDetails(context.Background(), 7); err == nil {
		t.Fatal("Expected first fetch to fail")
	}

	rec, err := f.FetchDetails(context.Background(), 7)
	if err != nil {
		t.Fatalf("Expected second fetch to succeed, got %v", err)
	}
	if rec.Title != "Later" {
		t.Errorf("Expected title Later, got %s", rec.Title)
	}
}

func TestFetchDetailsContextCanceledDuringBackoff(t *testing.T) {
	getter := &scriptedGetter{errs: transient(3), details: &tmdb.MovieDetails{}}
	f := NewFetcher(getter, storage.New(time.Hour), Options{BackoffUnit: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchDetails(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if getter.Calls() != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", getter.Calls())
	}
}

func TestFetchDetailsCoalescesConcurrentCalls(t *testing.T) {
	getter := &scriptedGetter{details: &tmdb.MovieDetails{Title: "Alien"}, delay: 50 * time.Millisecond}
	f, _ := newTestFetcher(getter, storage.New(time.Hour))

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.FetchDetails(context.Background(), 348); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("Expected no failures, got %d", failures.Load())
	}
	if getter.Calls() != 1 {
		t.Errorf("Expected 1 network call for concurrent requests, got %d", getter.Calls())
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	getter := &scriptedGetter{errs: transient(100), details: &tmdb.MovieDetails{}}
	f := NewFetcher(getter, storage.New(time.Hour), Options{MaxAttempts: 1, BreakerThreshold: 2, BreakerTimeout: time.Hour})

	for id := int64(1); id <= 2; id++ {
		if _, err := f.FetchDetails(context.Background(), id); err == nil {
			t.Fatal("Expected failure")
		}
	}
	callsBefore := getter.Calls()

	_, err := f.FetchDetails(context.Background(), 3)
	if !errors.Is(err, tmdb.ErrTransient) {
		t.Errorf("Expected open circuit to surface as transient, got %v", err)
	}
	if getter.Calls() != callsBefore {
		t.Errorf("Expected no network call while circuit is open, got %d extra", getter.Calls()-callsBefore)
	}
}

func TestFetchDetailsAgainstHTTPServer(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":27205,"title":"Inception","poster_path":"/abc.jpg","release_date":"2010-07-16","runtime":148,"vote_average":8.799}`))
	}))
	defer server.Close()

	f, _ := newTestFetcher(tmdb.NewClient(server.URL, "secret"), storage.New(time.Hour))

	rec, err := f.FetchDetails(context.Background(), 27205)
	if err != nil {
		t.Fatalf("FetchDetails failed: %v", err)
	}
	if rec.RatingAverage != 8.8 || rec.RuntimeDisplay != "148 min" || rec.ReleaseYear != "2010" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 HTTP requests (one retry), got %d", hits.Load())
	}
}
