package cleaner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/normalize"
	"github.com/northstar-data/retail-ingress/pkg/schema"
)

func TestCleanColumnReturnsNewColumnAndFailures(t *testing.T) {
	batch := model.NewBatch([]string{"weight"}, 3)
	batch.Rows = append(batch.Rows,
		model.Record{"weight": "1kg"},
		model.Record{"weight": "1lb"},
		model.Record{"weight": "500g"},
	)

	values, failed, err := CleanColumn(batch, "weight", normalize.Lift(normalize.Weight))
	require.NoError(t, err)

	require.Len(t, values, 3)
	assert.InDelta(t, 1000.0, values[0].(float64), 0.0001)
	assert.Nil(t, values[1])
	assert.InDelta(t, 500.0, values[2].(float64), 0.0001)
	assert.Equal(t, []int{1}, failed)

	// Source batch stays untouched.
	assert.Equal(t, "1kg", batch.Rows[0]["weight"])
}

func TestCleanColumnUnknownColumn(t *testing.T) {
	batch := model.NewBatch([]string{"weight"}, 0)

	_, _, err := CleanColumn(batch, "height", normalize.Lift(normalize.Weight))
	require.Error(t, err)
}

func TestCleanColumnsDropsRowsWithAnyFailure(t *testing.T) {
	s := schema.Payment()

	columns := []string{"card_number", "expiry_date", "card_provider", "date_payment_confirmed"}
	batch := model.NewBatch(columns, 3)
	batch.Rows = append(batch.Rows,
		model.Record{
			"card_number":            "4971858637664481",
			"expiry_date":            "09/26",
			"card_provider":          "VISA 16 digit",
			"date_payment_confirmed": "2015-11-25",
		},
		model.Record{
			"card_number":            "12345", // too short
			"expiry_date":            "01/27",
			"card_provider":          "Maestro",
			"date_payment_confirmed": "2018-03-02",
		},
		model.Record{
			"card_number":            "344132437598598",
			"expiry_date":            "11/28",
			"card_provider":          "American Express",
			"date_payment_confirmed": "2020-06-14",
		},
	)

	cleaner := newTestCleaner(t)
	out, dropped, err := cleaner.CleanColumns(context.Background(), batch, s)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, dropped)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "4971858637664481", out.Rows[0]["card_number"])
	assert.Equal(t, "344132437598598", out.Rows[1]["card_number"])
}

func TestCleanColumnsPassesUntargetedColumnsThrough(t *testing.T) {
	s := schema.Payment()

	columns := []string{"card_number", "expiry_date", "card_provider", "date_payment_confirmed", "extra"}
	batch := model.NewBatch(columns, 1)
	batch.Rows = append(batch.Rows, model.Record{
		"card_number":            "4971858637664481",
		"expiry_date":            "09/26",
		"card_provider":          "VISA 16 digit",
		"date_payment_confirmed": "2015-11-25",
		"extra":                  "untouched",
	})

	out, dropped, err := newTestCleaner(t).CleanColumns(context.Background(), batch, s)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "untouched", out.Rows[0]["extra"])
}

func TestCleanColumnsMissingRequiredColumnIsFatal(t *testing.T) {
	s := schema.Payment()

	batch := model.NewBatch([]string{"card_number"}, 1)
	batch.Rows = append(batch.Rows, model.Record{"card_number": "4971858637664481"})

	_, _, err := newTestCleaner(t).CleanColumns(context.Background(), batch, s)
	require.Error(t, err)
	assert.True(t, model.IsSchemaConfiguration(err))
}
