package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewESClient_RequiresAddresses(t *testing.T) {
	_, err := NewESClient(nil, "", "")
	assert.Error(t, err)
}

func TestPingES(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	assert.NoError(t, PingES(context.Background(), es))

	status.Store(http.StatusUnauthorized)
	assert.Error(t, PingES(context.Background(), es))
}
