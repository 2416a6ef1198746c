package tabular

import (
	"strconv"
	"strings"

	"github.com/aqueduct-geo/geocoder/internal/models"
	"github.com/rotisserie/eris"
)

// MaxRows is the row-count ceiling for a single upload. It is enforced by the
// transport layer and re-validated here as a defense-in-depth invariant.
const MaxRows = 1000

// Validation errors reported before any network activity. They reflect a
// malformed request, never a transient condition, and are not retried.
var (
	ErrMissingAddressColumn = eris.New("address column missing")
	ErrEmptyTable           = eris.New("the file is empty")
	ErrTooManyRows          = eris.New("row number should be less or equal to 1000")
)

// Recognized spellings of the row-identifier column. Spreadsheet exports of
// an unnamed index column arrive as "Unnamed: 0".
var rowColumnAliases = map[string]string{
	"row":        "row",
	"unnamed: 0": "row",
}

// Normalize validates and reshapes an arbitrary uploaded table into an
// ordered sequence of address records. It is a pure transform:
//
//  1. Column names are case-folded to lowercase; known row-identifier
//     aliases are canonicalized to "row".
//  2. Columns that are blank across every row are dropped.
//  3. The table must have an address column, at least one row and at most
//     MaxRows rows.
//  4. A record with a blank or absent address cell is marked so the
//     orchestrator can short-circuit it without a network call.
//
// Row identifiers come from the "row" column when every value parses as a
// unique positive integer; otherwise they are synthesized as 1..N in table
// order so that the identifiers entering the orchestrator are always unique.
func Normalize(table Table) ([]models.AddressRecord, error) {
	folded := foldColumns(table)
	folded = dropEmptyColumns(folded)

	if !folded.HasColumn("address") {
		return nil, ErrMissingAddressColumn
	}
	if len(folded.Rows) == 0 {
		return nil, ErrEmptyTable
	}
	if len(folded.Rows) > MaxRows {
		return nil, eris.Wrapf(ErrTooManyRows, "got %d rows", len(folded.Rows))
	}

	rowIDs := rowIdentifiers(folded)

	records := make([]models.AddressRecord, len(folded.Rows))
	for i := range folded.Rows {
		address := folded.Cell(i, "address")
		records[i] = models.AddressRecord{
			RowID:      rowIDs[i],
			Address:    address,
			HasAddress: strings.TrimSpace(address) != "",
		}
		if !records[i].HasAddress {
			records[i].Address = ""
		}
	}

	return records, nil
}

// foldColumns lowercases column names and canonicalizes row-column aliases.
func foldColumns(table Table) Table {
	columns := make([]string, len(table.Columns))
	for i, name := range table.Columns {
		name = strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := rowColumnAliases[name]; ok {
			name = canonical
		}
		columns[i] = name
	}
	return Table{Columns: columns, Rows: table.Rows}
}

// dropEmptyColumns removes columns whose cells are blank in every row. A
// table without rows is left alone so that it reports as empty rather than
// as missing its columns.
func dropEmptyColumns(table Table) Table {
	if len(table.Rows) == 0 {
		return table
	}

	keep := make([]int, 0, len(table.Columns))
	for i := range table.Columns {
		for _, row := range table.Rows {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				keep = append(keep, i)
				break
			}
		}
	}

	if len(keep) == len(table.Columns) {
		return table
	}

	out := Table{Columns: make([]string, len(keep)), Rows: make([][]string, len(table.Rows))}
	for j, i := range keep {
		out.Columns[j] = table.Columns[i]
	}
	for r, row := range table.Rows {
		cells := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				cells[j] = row[i]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

// rowIdentifiers returns the identifier for every row, preferring the values
// of an existing row column and falling back to positional 1..N whenever any
// value is unusable or duplicated.
func rowIdentifiers(table Table) []int {
	ids := make([]int, len(table.Rows))

	if table.HasColumn("row") {
		seen := make(map[int]bool, len(table.Rows))
		ok := true
		for i := range table.Rows {
			id, err := strconv.Atoi(strings.TrimSpace(table.Cell(i, "row")))
			if err != nil || id <= 0 || seen[id] {
				ok = false
				break
			}
			seen[id] = true
			ids[i] = id
		}
		if ok {
			return ids
		}
	}

	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}
