package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReverseComposesAddress(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		require.Equal(t, "mowercal-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"address":{"road":"Slottsskogen","house_number":"12","town":"Gothenburg"}}`))
	}))
	defer srv.Close()

	res := NewResolver(srv.URL, "mowercal-test", t.TempDir())
	addr := res.Reverse(context.Background(), 57.70887, 11.97456)
	require.Equal(t, "Slottsskogen 12, Gothenburg", addr)

	// Second lookup for the same coordinate is served from the disk cache.
	addr = res.Reverse(context.Background(), 57.70887, 11.97456)
	require.Equal(t, "Slottsskogen 12, Gothenburg", addr)
	require.Equal(t, 1, calls)
}

func TestReverseIncompleteAddressIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"road":"Somewhere"}}`))
	}))
	defer srv.Close()

	res := NewResolver(srv.URL, "", t.TempDir())
	require.Empty(t, res.Reverse(context.Background(), 1, 2))
}

func TestReverseServerErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := NewResolver(srv.URL, "", t.TempDir())
	require.Empty(t, res.Reverse(context.Background(), 1, 2))
}

func TestReverseUnreachableHostIsEmpty(t *testing.T) {
	res := NewResolver("http://127.0.0.1:1", "", t.TempDir())
	require.Empty(t, res.Reverse(context.Background(), 1, 2))
}
