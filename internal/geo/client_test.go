package geo

import (
	"Shortr-Backend/internal/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(endpoint string) *Client {
	return NewClient(&config.Geo{Endpoint: endpoint, Timeout: 2 * time.Second}, zap.NewNop())
}

func TestClient_Lookup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/203.0.113.10", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"success": true,
				"continent": "Europe",
				"country_code": "DE",
				"country": "Germany",
				"region_code": "BE",
				"region": "Berlin",
				"city": "Berlin",
				"latitude": 52.52,
				"longitude": 13.405,
				"flag": {"emoji": "🇩🇪"}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		location, err := client.Lookup(context.Background(), "203.0.113.10")

		require.NoError(t, err)
		assert.Equal(t, "Europe", location.Continent)
		assert.Equal(t, "DE", location.CountryCode)
		assert.Equal(t, "Germany", location.CountryName)
		assert.Equal(t, "Berlin", location.City)
		assert.Equal(t, 52.52, location.Latitude)
		assert.Equal(t, 13.405, location.Longitude)
		assert.Equal(t, "🇩🇪", location.CountryEmoji)
	})

	t.Run("provider_rejects_lookup", func(t *testing.T) {
		// ipwho.is reports failures inside a 200 response.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": false, "message": "Reserved range"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		location, err := client.Lookup(context.Background(), "192.168.1.1")

		assert.Nil(t, location)
		assert.ErrorContains(t, err, "Reserved range")
	})

	t.Run("non_200_status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Lookup(context.Background(), "203.0.113.10")
		assert.Error(t, err)
	})

	t.Run("empty_ip", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		_, err := client.Lookup(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyIP)
	})

	t.Run("context_cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := client.Lookup(ctx, "203.0.113.10")
		assert.Error(t, err)
	})
}
