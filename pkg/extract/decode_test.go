package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	input := "index,first_name,last_name\n1,John,Doe\n2,Jane,Smith\n"

	batch, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"index", "first_name", "last_name"}, batch.Columns)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, "John", batch.Rows[0]["first_name"])
	assert.Equal(t, "Smith", batch.Rows[1]["last_name"])
}

func TestDecodeCSVShortRow(t *testing.T) {
	input := "a,b,c\n1,2\n"

	batch, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, batch.Len())

	_, present := batch.Rows[0]["c"]
	assert.False(t, present)
}

func TestDecodeCSVEmptyInput(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestDecodeJSONColumns(t *testing.T) {
	input := `{
		"month": {"0": "7", "1": "12", "10": "3"},
		"year": {"0": "1992", "1": "2008", "10": "2015"}
	}`

	batch, err := DecodeJSONColumns(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"month", "year"}, batch.Columns)
	require.Equal(t, 3, batch.Len())

	// Positional keys sort numerically: 0, 1, 10.
	assert.Equal(t, "7", batch.Rows[0]["month"])
	assert.Equal(t, "12", batch.Rows[1]["month"])
	assert.Equal(t, "3", batch.Rows[2]["month"])
	assert.Equal(t, "2015", batch.Rows[2]["year"])
}

func TestDecodeJSONRows(t *testing.T) {
	input := `[
		{"store_code": "WEB-1388012W", "staff_numbers": "325"},
		{"store_code": "CH-01D85C8C", "staff_numbers": "92", "locality": "Chapletown"}
	]`

	batch, err := DecodeJSONRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"locality", "staff_numbers", "store_code"}, batch.Columns)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, "WEB-1388012W", batch.Rows[0]["store_code"])
	assert.Equal(t, "Chapletown", batch.Rows[1]["locality"])
}

func TestDecodeJSONColumnsMalformed(t *testing.T) {
	_, err := DecodeJSONColumns(strings.NewReader(`{"month": ["not", "an", "object"]}`))
	require.Error(t, err)
}
