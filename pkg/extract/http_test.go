package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPFetcherFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"month": {"0": "7", "1": "12"}, "year": {"0": "1992", "1": "2008"}}`)
	}))
	t.Cleanup(server.Close)

	fetcher, err := NewHTTPFetcher(zap.NewNop(), 1, time.Millisecond)
	require.NoError(t, err)

	batch, err := fetcher.FetchJSON(context.Background(), server.URL+"/date_details.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"month", "year"}, batch.Columns)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, "7", batch.Rows[0]["month"])
	assert.Equal(t, "2008", batch.Rows[1]["year"])
}

func TestHTTPFetcherServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	fetcher, err := NewHTTPFetcher(zap.NewNop(), 1, time.Millisecond)
	require.NoError(t, err)

	_, err = fetcher.FetchJSON(context.Background(), server.URL)
	require.Error(t, err)
}
