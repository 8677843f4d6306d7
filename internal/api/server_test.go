package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/product"
	"github.com/JakeFAU/productscraper/internal/storage/jsonfile"
)

type fakeReader struct {
	products []product.Record
	err      error
}

func (f fakeReader) Load(context.Context) ([]product.Record, error) {
	return f.products, f.err
}

type panicReader struct{}

func (panicReader) Load(context.Context) ([]product.Record, error) {
	panic("boom")
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServer_Root(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(fakeReader{}, nil, zap.NewNop()), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the Products API", decode(t, rec)["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ListProducts(t *testing.T) {
	t.Parallel()

	reader := fakeReader{products: []product.Record{
		{Title: "A", Price: 12, ImagePath: "https://x/a.jpg"},
		{Title: "B", Price: 5, ImagePath: "https://x/b.jpg"},
	}}
	rec := serve(t, NewServer(reader, nil, zap.NewNop()), "/products")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[
		{"product_title":"A","product_price":12,"path_to_image":"https://x/a.jpg"},
		{"product_title":"B","product_price":5,"path_to_image":"https://x/b.jpg"}
	]}`, rec.Body.String())
}

func TestServer_ListProductsStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		reader fakeReader
		code   int
	}{
		{"missing store", fakeReader{err: jsonfile.ErrStoreMissing}, http.StatusNotFound},
		{"empty store", fakeReader{err: jsonfile.ErrStoreEmpty}, http.StatusNotFound},
		{"empty list", fakeReader{products: []product.Record{}}, http.StatusNotFound},
		{"corrupt store", fakeReader{err: &jsonfile.StoreCorruption{Path: "p", Reason: "not a list"}}, http.StatusInternalServerError},
		{"io failure", fakeReader{err: errors.New("permission denied")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, NewServer(tc.reader, nil, zap.NewNop()), "/products")
			require.Equal(t, tc.code, rec.Code)
			body := decode(t, rec)
			if tc.code == http.StatusNotFound {
				assert.Equal(t, "No products found.", body["error"])
			} else {
				assert.Contains(t, body["error"], "Error retrieving products")
			}
		})
	}
}

func TestServer_ListProductsFromJSONFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.json")
	store, err := jsonfile.New(path, nil)
	require.NoError(t, err)
	s := NewServer(store, nil, zap.NewNop())

	require.Equal(t, http.StatusNotFound, serve(t, s, "/products").Code)

	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o600))
	require.Equal(t, http.StatusInternalServerError, serve(t, s, "/products").Code)

	_, err = store.WriteAll(context.Background(), []product.Record{{Title: "A", Price: 1, ImagePath: "https://x/a.jpg"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, serve(t, s, "/products").Code)
}

func TestServer_HealthAndReady(t *testing.T) {
	t.Parallel()

	ok := NewServer(fakeReader{}, []ReadinessCheck{{Name: "cache", Check: func(context.Context) error { return nil }}}, nil)
	require.Equal(t, http.StatusOK, serve(t, ok, "/healthz").Code)
	require.Equal(t, http.StatusOK, serve(t, ok, "/readyz").Code)

	down := NewServer(fakeReader{}, []ReadinessCheck{{Name: "cache", Check: func(context.Context) error {
		return errors.New("connection refused")
	}}}, nil)
	rec := serve(t, down, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	s := NewServer(fakeReader{}, nil, nil)
	_ = serve(t, s, "/")
	rec := serve(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(panicReader{}, nil, zap.NewNop()), "/products")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	s := NewServer(fakeReader{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
