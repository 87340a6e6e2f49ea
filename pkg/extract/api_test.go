package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/config"
)

func newStoreServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/prod/number_stores", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"number_stores": 3}`)
	})
	mux.HandleFunc("/prod/store_details/", func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimPrefix(r.URL.Path, "/prod/store_details/")
		if number == "2" {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"index": %s, "store_code": "ST-%s", "locality": "Town %s"}`, number, number, number)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newStoreClient(t *testing.T, server *httptest.Server) *StoreAPIClient {
	t.Helper()
	cfg := &config.APIConfig{
		Key:             "test-key",
		StoreCountURL:   server.URL + "/prod/number_stores",
		StoreDetailsURL: server.URL + "/prod/store_details/{store_number}",
	}
	client, err := NewStoreAPIClient(cfg, zap.NewNop(), 1, time.Millisecond)
	require.NoError(t, err)
	return client
}

func TestNumberOfStores(t *testing.T) {
	client := newStoreClient(t, newStoreServer(t))

	n, err := client.NumberOfStores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNumberOfStoresBadKey(t *testing.T) {
	server := newStoreServer(t)
	cfg := &config.APIConfig{
		Key:             "wrong-key",
		StoreCountURL:   server.URL + "/prod/number_stores",
		StoreDetailsURL: server.URL + "/prod/store_details/{store_number}",
	}
	client, err := NewStoreAPIClient(cfg, zap.NewNop(), 1, time.Millisecond)
	require.NoError(t, err)

	_, err = client.NumberOfStores(context.Background())
	require.Error(t, err)
}

func TestRetrieveStoresSkipsFailedPages(t *testing.T) {
	client := newStoreClient(t, newStoreServer(t))

	batch, err := client.RetrieveStores(context.Background(), 3)
	require.NoError(t, err)

	// Store 2 fails server-side and is skipped, not fatal.
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, []string{"index", "locality", "store_code"}, batch.Columns)
	assert.Equal(t, "ST-1", batch.Rows[0]["store_code"])
	assert.Equal(t, "ST-3", batch.Rows[1]["store_code"])
}

func TestRetrieveStoresRejectsZeroCount(t *testing.T) {
	client := newStoreClient(t, newStoreServer(t))

	_, err := client.RetrieveStores(context.Background(), 0)
	require.Error(t, err)
}
