package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	addr  net.Addr
	count int
}

func (f *fakeStats) LocalAddr() net.Addr    { return f.addr }
func (f *fakeStats) ActiveConnections() int { return f.count }

func get(hs *HealthServer, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	hs.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadinessFlips(t *testing.T) {
	hs := NewHealthServer(":0", nil)

	assert.Equal(t, http.StatusOK, get(hs, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(hs, "/ready").Code)

	hs.SetReady(true)
	assert.Equal(t, http.StatusOK, get(hs, "/ready").Code)
}

func TestStatsReportsSource(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4242}
	hs := NewHealthServer(":0", &fakeStats{addr: addr, count: 3})

	rec := get(hs, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Addr        string `json:"addr"`
		Connections int    `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "127.0.0.1:4242", stats.Addr)
	assert.Equal(t, 3, stats.Connections)
}
