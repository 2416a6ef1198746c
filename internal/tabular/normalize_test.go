package tabular_test

import (
	"fmt"
	"testing"

	"github.com/aqueduct-geo/geocoder/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressTable(addresses ...string) tabular.Table {
	table := tabular.Table{Columns: []string{"address"}}
	for _, addr := range addresses {
		table.Rows = append(table.Rows, []string{addr})
	}
	return table
}

func TestNormalize(t *testing.T) {
	t.Run("missing address column", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"name", "city"},
			Rows:    [][]string{{"shop", "Dublin"}},
		}

		records, err := tabular.Normalize(table)

		require.ErrorIs(t, err, tabular.ErrMissingAddressColumn)
		assert.Nil(t, records)
	})

	t.Run("empty table", func(t *testing.T) {
		records, err := tabular.Normalize(addressTable())

		require.ErrorIs(t, err, tabular.ErrEmptyTable)
		assert.Nil(t, records)
	})

	t.Run("exactly the row ceiling succeeds", func(t *testing.T) {
		addresses := make([]string, tabular.MaxRows)
		for i := range addresses {
			addresses[i] = fmt.Sprintf("%d Main Street", i+1)
		}

		records, err := tabular.Normalize(addressTable(addresses...))

		require.NoError(t, err)
		assert.Len(t, records, tabular.MaxRows)
	})

	t.Run("one row over the ceiling fails", func(t *testing.T) {
		addresses := make([]string, tabular.MaxRows+1)
		for i := range addresses {
			addresses[i] = fmt.Sprintf("%d Main Street", i+1)
		}

		records, err := tabular.Normalize(addressTable(addresses...))

		require.ErrorIs(t, err, tabular.ErrTooManyRows)
		assert.Nil(t, records)
	})

	t.Run("column names are case folded", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"Address"},
			Rows:    [][]string{{"18 Grafton Street, Dublin, Ireland"}},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "18 Grafton Street, Dublin, Ireland", records[0].Address)
		assert.True(t, records[0].HasAddress)
	})

	t.Run("row identifiers synthesized in table order", func(t *testing.T) {
		records, err := tabular.Normalize(addressTable("a", "b", "c"))

		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, record := range records {
			assert.Equal(t, i+1, record.RowID)
		}
	})

	t.Run("existing row column is used verbatim", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"row", "address"},
			Rows: [][]string{
				{"7", "a"},
				{"3", "b"},
			},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		assert.Equal(t, 7, records[0].RowID)
		assert.Equal(t, 3, records[1].RowID)
	})

	t.Run("unnamed index column is recognized as row", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"Unnamed: 0", "address"},
			Rows: [][]string{
				{"5", "a"},
				{"6", "b"},
			},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		assert.Equal(t, 5, records[0].RowID)
		assert.Equal(t, 6, records[1].RowID)
	})

	t.Run("unusable row values fall back to positions", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"row", "address"},
			Rows: [][]string{
				{"4", "a"},
				{"four", "b"},
			},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		assert.Equal(t, 1, records[0].RowID)
		assert.Equal(t, 2, records[1].RowID)
	})

	t.Run("duplicated row values fall back to positions", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"row", "address"},
			Rows: [][]string{
				{"2", "a"},
				{"2", "b"},
			},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		assert.Equal(t, 1, records[0].RowID)
		assert.Equal(t, 2, records[1].RowID)
	})

	t.Run("blank address cells are marked", func(t *testing.T) {
		records, err := tabular.Normalize(addressTable("a", "  ", ""))

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[0].HasAddress)
		assert.False(t, records[1].HasAddress)
		assert.Empty(t, records[1].Address)
		assert.False(t, records[2].HasAddress)
	})

	t.Run("short rows read as blank cells", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"name", "address"},
			Rows: [][]string{
				{"shop", "a"},
				{"kiosk"},
			},
		}

		records, err := tabular.Normalize(table)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].HasAddress)
		assert.False(t, records[1].HasAddress)
	})

	t.Run("entirely empty address column counts as missing", func(t *testing.T) {
		table := tabular.Table{
			Columns: []string{"name", "address"},
			Rows: [][]string{
				{"shop", ""},
				{"kiosk", " "},
			},
		}

		_, err := tabular.Normalize(table)

		require.ErrorIs(t, err, tabular.ErrMissingAddressColumn)
	})

	t.Run("address values are kept verbatim", func(t *testing.T) {
		records, err := tabular.Normalize(addressTable("  18 Grafton Street  "))

		require.NoError(t, err)
		assert.Equal(t, "  18 Grafton Street  ", records[0].Address)
	})
}
