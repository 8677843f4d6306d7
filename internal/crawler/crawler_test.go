package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/productscraper/internal/product"
)

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(Page), args.Error(1)
}

// MockExtractor is a mock implementation of the Extractor interface.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(body []byte) ([]product.Record, error) {
	args := m.Called(body)
	records, _ := args.Get(0).([]product.Record)
	return records, args.Error(1)
}

// MockCache is a mock implementation of the Cache interface.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	body, _ := args.Get(0).([]byte)
	return body, args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// scriptedFetcher replays a fixed sequence of results and counts calls.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   []string
}

type scriptedResult struct {
	page Page
	err  error
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.calls)
	f.calls = append(f.calls, url)
	if idx >= len(f.results) {
		return Page{URL: url, StatusCode: 200}, nil
	}
	r := f.results[idx]
	if r.page.URL == "" {
		r.page.URL = url
	}
	return r.page, r.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func mustRecord(title string, price int, image string) product.Record {
	rec, err := product.New(title, price, image)
	if err != nil {
		panic(err)
	}
	return rec
}

// MockLimiter is a mock implementation of the Limiter interface.
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Wait(ctx context.Context, rawURL string) error {
	args := m.Called(ctx, rawURL)
	return args.Error(0)
}
