package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faftonnage/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.GeocodeConfig{
		BaseURL:           srv.URL + "/",
		UserAgent:         "faftonnage-test",
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
	}, nil)
}

func TestClient_Lookup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Birmingham, AL", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "faftonnage-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"33.5206824","lon":"-86.8024326","display_name":"Birmingham, Jefferson County, Alabama"}]`))
	})

	loc, err := client.Lookup(context.Background(), "  Birmingham, AL ")
	require.NoError(t, err)
	assert.Equal(t, "Birmingham, AL", loc.Query)
	assert.Equal(t, "Birmingham, Jefferson County, Alabama", loc.DisplayName)
	assert.InDelta(t, -86.8024326, loc.Lon(), 1e-9)
	assert.InDelta(t, 33.5206824, loc.Lat(), 1e-9)
}

func TestClient_Geocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"1.5","lon":"2.5","display_name":"x"}]`))
	})

	p, err := client.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{2.5, 1.5}, p)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		status  int
		body    string
		wantErr error
	}{
		{name: "no results", query: "nowhere", status: http.StatusOK, body: `[]`, wantErr: ErrNoResults},
		{name: "empty query", query: "  ", status: http.StatusOK, body: `[]`, wantErr: ErrNoResults},
		{name: "server error", query: "x", status: http.StatusServiceUnavailable, body: "busy"},
		{name: "bad json", query: "x", status: http.StatusOK, body: `{`},
		{name: "bad latitude", query: "x", status: http.StatusOK, body: `[{"lat":"north","lon":"1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Lookup(context.Background(), tt.query)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClient_RateLimited(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[{"lat":"0","lon":"0"}]`))
	}))
	defer srv.Close()

	client := NewClient(config.GeocodeConfig{
		BaseURL:           srv.URL,
		UserAgent:         "faftonnage-test",
		RequestsPerSecond: 0.001,
		Timeout:           time.Second,
	}, nil)

	_, err := client.Lookup(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Lookup(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second request must wait for the limiter")
}
