package esindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestGet(t *testing.T) {
	pings := atomic.NewInt32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pings.Inc()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"node-1","cluster_name":"test","version":{"number":"7.17.0"},"tagline":"You Know, for Search"}`))
	}))
	t.Cleanup(server.Close)

	clientInstance = nil
	t.Cleanup(func() { clientInstance = nil })

	cfg := Config{URL: server.URL, HealthcheckInterval: -1}

	first, err := Get(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := Get(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), pings.Load())
}
