// pkg/extract/http.go
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// HTTPFetcher downloads JSON documents exposed over plain HTTP(S), such as
// the public object-store link carrying the date-details export.
type HTTPFetcher struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates a fetcher with a bounded fixed-delay retry on every
// request.
func NewHTTPFetcher(logger *zap.Logger, attempts int, delay time.Duration) (*HTTPFetcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client := resty.New().
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(delay).
		SetRetryMaxWaitTime(delay)

	return &HTTPFetcher{
		client: client,
		logger: logger,
	}, nil
}

// FetchJSON downloads the document at url and decodes it as a
// column-oriented JSON document.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, url string) (*model.Batch, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JSON document: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("JSON endpoint returned %s", resp.Status())
	}

	batch, err := DecodeJSONColumns(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON document: %w", err)
	}

	f.logger.Info("Fetched JSON document",
		zap.String("url", url),
		zap.Int("rows", batch.Len()))
	return batch, nil
}
