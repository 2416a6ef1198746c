package tabular_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aqueduct-geo/geocoder/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestDecode_CSV(t *testing.T) {
	t.Run("header and rows", func(t *testing.T) {
		input := "row,address\n1,18 Grafton Street\n2,Unresolvable Nonsense\n"

		table, err := tabular.Decode(strings.NewReader(input), tabular.ExtCSV)

		require.NoError(t, err)
		assert.Equal(t, []string{"row", "address"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "18 Grafton Street", table.Cell(0, "address"))
		assert.Equal(t, "2", table.Cell(1, "row"))
	})

	t.Run("variable field counts are tolerated", func(t *testing.T) {
		input := "row,address\n1,somewhere\n2\n"

		table, err := tabular.Decode(strings.NewReader(input), tabular.ExtCSV)

		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "", table.Cell(1, "address"))
	})

	t.Run("header only", func(t *testing.T) {
		table, err := tabular.Decode(strings.NewReader("address\n"), tabular.ExtCSV)

		require.NoError(t, err)
		assert.Equal(t, []string{"address"}, table.Columns)
		assert.Empty(t, table.Rows)
	})

	t.Run("malformed quoting fails", func(t *testing.T) {
		input := "address\n\"unterminated\n"

		_, err := tabular.Decode(strings.NewReader(input), tabular.ExtCSV)

		require.Error(t, err)
	})
}

func TestDecode_XLSX(t *testing.T) {
	buildWorkbook := func(t *testing.T, rows [][]string) *bytes.Buffer {
		t.Helper()
		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Sheet1")
		require.NoError(t, err)
		for _, cells := range rows {
			row := sheet.AddRow()
			for _, value := range cells {
				row.AddCell().Value = value
			}
		}
		var buf bytes.Buffer
		require.NoError(t, file.Write(&buf))
		return &buf
	}

	t.Run("first sheet decoded", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"row", "address"},
			{"1", "18 Grafton Street"},
		})

		table, err := tabular.Decode(buf, tabular.ExtXLSX)

		require.NoError(t, err)
		assert.Equal(t, []string{"row", "address"}, table.Columns)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "18 Grafton Street", table.Cell(0, "address"))
	})

	t.Run("garbage upload fails", func(t *testing.T) {
		_, err := tabular.Decode(strings.NewReader("not a zip archive"), tabular.ExtXLSX)

		require.Error(t, err)
	})
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	_, err := tabular.Decode(strings.NewReader(""), "txt")

	require.ErrorIs(t, err, tabular.ErrUnsupportedExtension)
}
