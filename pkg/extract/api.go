// pkg/extract/api.go
package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/config"
	"github.com/northstar-data/retail-ingress/pkg/model"
)

// StoreAPIClient pages over the store-details API. Pure plumbing with a
// bounded fixed-delay retry on every request.
type StoreAPIClient struct {
	client *resty.Client
	cfg    *config.APIConfig
	logger *zap.Logger
}

// NewStoreAPIClient creates a client for the store API.
func NewStoreAPIClient(cfg *config.APIConfig, logger *zap.Logger, attempts int, delay time.Duration) (*StoreAPIClient, error) {
	if cfg == nil {
		return nil, errors.New("API configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client := resty.New().
		SetHeader("x-api-key", cfg.Key).
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(delay).
		SetRetryMaxWaitTime(delay)

	return &StoreAPIClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// NumberOfStores fetches the total store count.
func (c *StoreAPIClient) NumberOfStores(ctx context.Context) (int, error) {
	var body struct {
		NumberStores int `json:"number_stores"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.cfg.StoreCountURL)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve the number of stores: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("store count endpoint returned %s", resp.Status())
	}

	c.logger.Info("Retrieved store count", zap.Int("number_stores", body.NumberStores))
	return body.NumberStores, nil
}

// RetrieveStores fetches every store detail page from 1 to numStores and
// assembles them into one batch. A store whose request ultimately fails is
// logged and skipped; the remaining stores still extract.
func (c *StoreAPIClient) RetrieveStores(ctx context.Context, numStores int) (*model.Batch, error) {
	if numStores < 1 {
		return nil, errors.New("store count must be positive")
	}

	var columns []string
	batch := model.NewBatch(nil, numStores)

	for storeNumber := 1; storeNumber <= numStores; storeNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url := strings.ReplaceAll(c.cfg.StoreDetailsURL, "{store_number}", strconv.Itoa(storeNumber))

		var store map[string]interface{}
		resp, err := c.client.R().
			SetContext(ctx).
			SetResult(&store).
			Get(url)
		if err != nil || resp.IsError() {
			c.logger.Error("Failed to retrieve store",
				zap.Int("store_number", storeNumber),
				zap.Error(err))
			continue
		}

		if columns == nil {
			for k := range store {
				columns = append(columns, k)
			}
		}
		batch.Rows = append(batch.Rows, model.Record(store))
	}

	sort.Strings(columns)
	batch.Columns = columns
	c.logger.Info("Retrieved stores",
		zap.Int("requested", numStores),
		zap.Int("received", batch.Len()))
	return batch, nil
}
