package cleaner

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/schema"
)

func validUserRow() model.Record {
	return model.Record{
		"index":         "1",
		"first_name":    "John",
		"last_name":     "Doe",
		"date_of_birth": "1990-01-01",
		"company":       "OpenAI",
		"email_address": "john.doe@example.com",
		"address":       "123 Main St.\nApt 4B",
		"country":       "United States",
		"country_code":  "US",
		"phone_number":  "+49(0)123456789",
		"join_date":     "2022-01-01",
		"user_uuid":     "83dc0a69-f96f-4c34-bcb7-928acae19a94",
	}
}

func userBatch(rows ...model.Record) *model.Batch {
	columns := []string{
		"index", "first_name", "last_name", "date_of_birth", "company",
		"email_address", "address", "country", "country_code",
		"phone_number", "join_date", "user_uuid",
	}
	b := model.NewBatch(columns, len(rows))
	b.Rows = append(b.Rows, rows...)
	return b
}

func newTestCleaner(t *testing.T) *BatchCleaner {
	t.Helper()
	c, err := NewBatchCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewBatchCleanerRequiresLogger(t *testing.T) {
	_, err := NewBatchCleaner(nil)
	require.Error(t, err)
}

func TestCleanPartitionsEveryRowExactlyOnce(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	bad := validUserRow()
	bad["first_name"] = ""
	bad["email_address"] = "bad email"

	batch := userBatch(validUserRow(), bad, validUserRow())

	result, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, batch.Len(), result.ValidCount()+result.InvalidCount())
	assert.Equal(t, 2, result.ValidCount())
	assert.Equal(t, 1, result.InvalidCount())
}

func TestCleanCapturesAllFieldErrorsInOnePass(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	bad := validUserRow()
	bad["first_name"] = ""
	bad["email_address"] = "bad email"
	bad["user_uuid"] = "invalid_uuid"

	result, err := newTestCleaner(t).Clean(context.Background(), userBatch(bad), s)
	require.NoError(t, err)
	require.Equal(t, 1, result.InvalidCount())

	failure := result.Invalid[0]
	assert.Equal(t, 0, failure.RowID)

	fields := make([]string, 0, len(failure.Errors))
	for _, fe := range failure.Errors {
		fields = append(fields, fe.Field)
	}
	// Evaluation continues past the first failure; errors arrive in schema order.
	assert.Equal(t, []string{"first_name", "email_address", "user_uuid"}, fields)
	assert.Equal(t, "", failure.Errors[0].Raw)
	assert.Equal(t, "no letters", failure.Errors[0].Reason)
}

func TestCleanNormalizesFields(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	result, err := newTestCleaner(t).Clean(context.Background(), userBatch(validUserRow()), s)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidCount())

	record := result.Valid[0]
	assert.Equal(t, int64(1), record["index"])
	assert.Equal(t, "0123456789", record["phone_number"])
	assert.Equal(t, "123 Main Street, Apt 4B", record["address"])
	assert.Equal(t, "83dc0a69-f96f-4c34-bcb7-928acae19a94", record["user_uuid"])
}

func TestCleanCountryCodeCorrectionIsSchemaAware(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	ukRow := validUserRow()
	ukRow["country"] = "United Kingdom"
	ukRow["country_code"] = "GGB"

	germanRow := validUserRow()
	germanRow["country"] = "Germany"
	germanRow["country_code"] = "GGB"

	result, err := newTestCleaner(t).Clean(context.Background(), userBatch(ukRow, germanRow), s)
	require.NoError(t, err)

	require.Equal(t, 1, result.ValidCount())
	assert.Equal(t, "GB", result.Valid[0]["country_code"])

	require.Equal(t, 1, result.InvalidCount())
	assert.Equal(t, 1, result.Invalid[0].RowID)
	require.Len(t, result.Invalid[0].Errors, 1)
	assert.Equal(t, "country_code", result.Invalid[0].Errors[0].Field)
}

func TestCleanMissingRequiredColumnIsFatal(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	batch := model.NewBatch([]string{"first_name"}, 1)
	batch.Rows = append(batch.Rows, model.Record{"first_name": "John"})

	result, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, model.IsSchemaConfiguration(err))
}

func TestCleanIgnoresUnknownColumns(t *testing.T) {
	s := schema.Payment()

	batch := model.NewBatch([]string{
		"card_number", "expiry_date", "card_provider", "date_payment_confirmed", "mystery",
	}, 1)
	batch.Rows = append(batch.Rows, model.Record{
		"card_number":            "4971858637664481",
		"expiry_date":            "09/26",
		"card_provider":          "VISA 16 digit",
		"date_payment_confirmed": "2015-11-25",
		"mystery":                "ignored",
	})

	result, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidCount())

	_, present := result.Valid[0]["mystery"]
	assert.False(t, present)
}

func TestCleanPreservesRowOrder(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	rows := make([]model.Record, 0, 10)
	for i := 0; i < 10; i++ {
		row := validUserRow()
		if i%3 == 0 {
			row["user_uuid"] = "invalid_uuid"
		}
		rows = append(rows, row)
	}

	result, err := newTestCleaner(t).Clean(context.Background(), userBatch(rows...), s)
	require.NoError(t, err)

	var invalidIDs []int
	for _, f := range result.Invalid {
		invalidIDs = append(invalidIDs, f.RowID)
	}
	assert.Equal(t, []int{0, 3, 6, 9}, invalidIDs)
}

func TestCleanIsIdempotent(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	bad := validUserRow()
	bad["country_code"] = "invalid"
	batch := userBatch(validUserRow(), bad)

	c := newTestCleaner(t)
	first, err := c.Clean(context.Background(), batch, s)
	require.NoError(t, err)
	second, err := c.Clean(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCleanParallelMatchesSequential(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	rows := make([]model.Record, 0, 50)
	for i := 0; i < 50; i++ {
		row := validUserRow()
		if i%7 == 0 {
			row["email_address"] = "bad email"
		}
		rows = append(rows, row)
	}
	batch := userBatch(rows...)

	sequential, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.NoError(t, err)

	parallel, err := newTestCleaner(t).WithWorkers(4).Clean(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestCleanPermutationInvariance(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	rows := make([]model.Record, 0, 6)
	for i := 0; i < 6; i++ {
		row := validUserRow()
		row["index"] = strconv.Itoa(i)
		if i%2 == 1 {
			row["email_address"] = "bad email"
			row["user_uuid"] = "invalid_uuid"
		}
		rows = append(rows, row)
	}

	permuted := make([]model.Record, len(rows))
	for i, row := range rows {
		permuted[len(rows)-1-i] = row
	}

	direct, err := newTestCleaner(t).Clean(context.Background(), userBatch(rows...), s)
	require.NoError(t, err)
	reordered, err := newTestCleaner(t).Clean(context.Background(), userBatch(permuted...), s)
	require.NoError(t, err)

	assert.Equal(t, direct.ValidCount(), reordered.ValidCount())
	assert.Equal(t, direct.InvalidCount(), reordered.InvalidCount())

	// Each row's outcome depends on its content alone, so keying by the
	// row's index field must yield identical records and error lists.
	validByIndex := func(result *model.BatchResult) map[int64]model.NormalizedRecord {
		m := make(map[int64]model.NormalizedRecord, len(result.Valid))
		for _, rec := range result.Valid {
			m[rec["index"].(int64)] = rec
		}
		return m
	}
	assert.Equal(t, validByIndex(direct), validByIndex(reordered))

	errorsByIndex := func(result *model.BatchResult) map[string][]model.FieldError {
		m := make(map[string][]model.FieldError, len(result.Invalid))
		for _, f := range result.Invalid {
			m[f.Raw["index"].(string)] = f.Errors
		}
		return m
	}
	assert.Equal(t, errorsByIndex(direct), errorsByIndex(reordered))
}

func TestCleanCancelledContextDiscardsBatch(t *testing.T) {
	s := schema.User(schema.DefaultCountryCodes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestCleaner(t).Clean(ctx, userBatch(validUserRow()), s)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestOrderQuantityCrossRule(t *testing.T) {
	s := schema.Order()

	columns := []string{"date_uuid", "user_uuid", "card_number", "store_code", "product_code", "product_quantity"}
	good := model.Record{
		"date_uuid":        "83dc0a69-f96f-4c34-bcb7-928acae19a94",
		"user_uuid":        "11e2f063-7e83-4bfa-a464-d57a5fb1b126",
		"card_number":      "4971858637664481",
		"store_code":       "WEB-1388012W",
		"product_code":     "R7-3126933h",
		"product_quantity": "3",
	}
	zeroQty := model.Record{}
	for k, v := range good {
		zeroQty[k] = v
	}
	zeroQty["product_quantity"] = "0"

	batch := model.NewBatch(columns, 2)
	batch.Rows = append(batch.Rows, good, zeroQty)

	result, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ValidCount())
	require.Equal(t, 1, result.InvalidCount())
	assert.Equal(t, "product_quantity", result.Invalid[0].Errors[0].Field)
}

func TestDateDimensionCalendarCrossRule(t *testing.T) {
	s := schema.DateDimension()

	columns := []string{"timestamp", "month", "year", "day", "time_period", "date_uuid"}
	row := func(day, month string) model.Record {
		return model.Record{
			"timestamp":   "22:00:10",
			"month":       month,
			"year":        "2022",
			"day":         day,
			"time_period": "Evening",
			"date_uuid":   "83dc0a69-f96f-4c34-bcb7-928acae19a94",
		}
	}

	batch := model.NewBatch(columns, 2)
	batch.Rows = append(batch.Rows, row("28", "2"), row("30", "2"))

	result, err := newTestCleaner(t).Clean(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ValidCount())
	require.Equal(t, 1, result.InvalidCount())
	assert.Equal(t, "day", result.Invalid[0].Errors[0].Field)
}
