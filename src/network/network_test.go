package network

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/logger"
	"trend-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func testManager(t *testing.T, maxRetries int) *NetworkManager {
	t.Helper()

	cfg := &models.MConfig{Name: "test", LogLevel: "ERROR"}
	cfg.Network.RequestTimeout = 5
	cfg.Network.MaxRetries = maxRetries

	nm := NewNetworkManager(cfg, logger.NewLogger(cfg.LogLevel, cfg.Name))
	nm.RetryBaseDelay = time.Millisecond
	return nm
}

// -----------------------------------------------------------------------------

func TestGetRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"OK"}`))
	}))
	defer srv.Close()

	nm := testManager(t, 2)
	body, err := nm.Get(srv.URL, map[string]string{"q": "acme"})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"OK"}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetExhaustedRetriesIsNetworkError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	nm := testManager(t, 1)
	_, err := nm.Get(srv.URL, nil)
	require.Error(t, err)

	var netErr *helpers.NetworkError
	assert.ErrorAs(t, err, &netErr)
	// MaxRetries 1 means two attempts total.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetAppendsQueryAndUserAgent(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("apikey")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	nm := testManager(t, 0)
	_, err := nm.Get(srv.URL, map[string]string{"apikey": "secret"})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotQuery)
	assert.NotEmpty(t, gotAgent)
}
