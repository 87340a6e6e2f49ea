// pkg/extract/s3.go
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// S3Fetcher extracts CSV and JSON objects from object storage into tabular
// batches.
type S3Fetcher struct {
	client   *s3.Client
	logger   *zap.Logger
	attempts int
	delay    time.Duration
}

// NewS3Fetcher builds a fetcher from the ambient AWS configuration
// (environment, shared credentials file, instance role).
func NewS3Fetcher(ctx context.Context, logger *zap.Logger, attempts int, delay time.Duration) (*S3Fetcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if attempts < 1 {
		attempts = 1
	}

	return &S3Fetcher{
		client:   s3.NewFromConfig(awsCfg),
		logger:   logger,
		attempts: attempts,
		delay:    delay,
	}, nil
}

// FetchCSV downloads an s3://bucket/key object and decodes it as CSV.
func (f *S3Fetcher) FetchCSV(ctx context.Context, address string) (*model.Batch, error) {
	bucket, key, err := parseS3Address(address)
	if err != nil {
		return nil, err
	}

	var batch *model.Batch
	err = withRetry(ctx, f.logger, "fetch "+address, f.attempts, f.delay, func() error {
		obj, getErr := f.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if getErr != nil {
			return getErr
		}
		defer obj.Body.Close()

		batch, getErr = DecodeCSV(obj.Body)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract data from S3: %w", err)
	}

	f.logger.Info("Extracted object from S3",
		zap.String("address", address),
		zap.Int("rows", batch.Len()))
	return batch, nil
}

// FetchJSON downloads an s3://bucket/key object and decodes it as a
// column-oriented JSON document.
func (f *S3Fetcher) FetchJSON(ctx context.Context, address string) (*model.Batch, error) {
	bucket, key, err := parseS3Address(address)
	if err != nil {
		return nil, err
	}

	var batch *model.Batch
	err = withRetry(ctx, f.logger, "fetch "+address, f.attempts, f.delay, func() error {
		obj, getErr := f.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if getErr != nil {
			return getErr
		}
		defer obj.Body.Close()

		batch, getErr = DecodeJSONColumns(obj.Body)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract data from S3: %w", err)
	}

	f.logger.Info("Extracted object from S3",
		zap.String("address", address),
		zap.Int("rows", batch.Len()))
	return batch, nil
}

// parseS3Address splits an s3://bucket/key address into bucket and key.
func parseS3Address(address string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(address, "s3://")
	if trimmed == address {
		return "", "", fmt.Errorf("not an s3:// address: %q", address)
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 address: %q", address)
	}
	return parts[0], parts[1], nil
}
