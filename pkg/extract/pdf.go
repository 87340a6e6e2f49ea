// pkg/extract/pdf.go
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// cardColumns is the column layout of the card-details PDF table.
var cardColumns = []string{"card_number", "expiry_date", "card_provider", "date_payment_confirmed"}

// PDFExtractor pulls the card-details table out of a remote PDF. Pure
// plumbing: download, extract text rows, return raw strings; all
// validation happens downstream in the cleaner.
type PDFExtractor struct {
	client *resty.Client
	logger *zap.Logger
}

// NewPDFExtractor creates an extractor with a bounded fixed-delay retry on
// the download.
func NewPDFExtractor(logger *zap.Logger, attempts int, delay time.Duration) (*PDFExtractor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client := resty.New().
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(delay).
		SetRetryMaxWaitTime(delay)

	return &PDFExtractor{
		client: client,
		logger: logger,
	}, nil
}

// RetrieveCardTable downloads the PDF at link and extracts its table rows
// across all pages.
func (e *PDFExtractor) RetrieveCardTable(ctx context.Context, link string) (*model.Batch, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("card_details_%d.pdf", time.Now().UnixNano()))
	defer os.Remove(tmp)

	resp, err := e.client.R().
		SetContext(ctx).
		SetOutput(tmp).
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve data from PDF: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("PDF download returned %s", resp.Status())
	}

	batch, err := e.parseCardPDF(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve data from PDF: %w", err)
	}

	e.logger.Info("Extracted card details from PDF",
		zap.String("link", link),
		zap.Int("rows", batch.Len()))
	return batch, nil
}

// parseCardPDF reads every text row of every page and maps it onto the
// fixed card-details column layout: first token is the card number, second
// the expiry date, last the confirmation date, anything between is the
// provider name.
func (e *PDFExtractor) parseCardPDF(path string) (*model.Batch, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	batch := model.NewBatch(cardColumns, 0)

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			e.logger.Warn("Failed to read PDF page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		for _, row := range rows {
			var sb strings.Builder
			for _, text := range row.Content {
				sb.WriteString(text.S)
				sb.WriteString(" ")
			}

			tokens := strings.Fields(sb.String())
			if len(tokens) < 4 || tokens[0] == "card_number" {
				continue // header or ruled line
			}

			batch.Rows = append(batch.Rows, model.Record{
				"card_number":            tokens[0],
				"expiry_date":            tokens[1],
				"card_provider":          strings.Join(tokens[2:len(tokens)-1], " "),
				"date_payment_confirmed": tokens[len(tokens)-1],
			})
		}
	}

	return batch, nil
}
