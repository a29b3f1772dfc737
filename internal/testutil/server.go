package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// NewCountingServer starts a server that answers every request with status
// and counts the requests it has seen. It is closed when the test ends.
func NewCountingServer(tb testing.TB, status int) (*httptest.Server, *atomic.Int64) {
	tb.Helper()
	var count atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		count.Add(1)
		w.WriteHeader(status)
	}))
	tb.Cleanup(server.Close)
	return server, &count
}
