package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Extensions accepted for uploaded tables.
const (
	ExtCSV  = "csv"
	ExtXLSX = "xlsx"
)

// ErrUnsupportedExtension is returned when the upload has a file extension
// the decoder does not handle.
var ErrUnsupportedExtension = eris.New("tabular: unsupported file extension")

// Decode reads an uploaded file into a Table. The extension selects the
// decoder and must be one of ExtCSV or ExtXLSX (lowercase, without the dot).
// The first row of the file is taken as the column header.
func Decode(r io.Reader, extension string) (Table, error) {
	switch extension {
	case ExtCSV:
		return decodeCSV(r)
	case ExtXLSX:
		return decodeXLSX(r)
	default:
		return Table{}, eris.Wrapf(ErrUnsupportedExtension, "%q", extension)
	}
}

func decodeCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	var table Table
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return Table{}, eris.Wrap(err, "csv: read row")
		}

		if first {
			first = false
			for _, name := range record {
				table.Columns = append(table.Columns, strings.TrimSpace(name))
			}
			continue
		}

		table.Rows = append(table.Rows, record)
	}
}

func decodeXLSX(r io.Reader) (Table, error) {
	// tealeg needs random access, so buffer the upload first. Uploads are
	// bounded to well under the 1000-row ceiling in practice.
	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{}, eris.Wrap(err, "xlsx: read upload")
	}

	f, err := xlsx.OpenReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Table{}, eris.Wrap(err, "xlsx: open file")
	}

	if len(f.Sheets) == 0 {
		return Table{}, eris.New("xlsx: file has no sheets")
	}
	sheet := f.Sheets[0]

	var table Table
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}

		if i == 0 {
			for _, name := range cells {
				table.Columns = append(table.Columns, strings.TrimSpace(name))
			}
			continue
		}

		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}
