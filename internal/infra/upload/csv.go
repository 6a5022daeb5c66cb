package upload

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// MaxRows caps one upload; anything bigger should be split client-side.
const MaxRows = 500

// LocationRow is one parsed spreadsheet line.
type LocationRow struct {
	RowNumber     int // 1-based, excluding the header
	StreetAddress string
	City          string
	State         string
	ZipCode       string
}

// RowError points at a specific bad line so the user can fix the file.
type RowError struct {
	RowNumber int
	Message   string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.RowNumber, e.Message)
}

// ParseLocations reads the bulk-upload CSV. Expected header:
// street_address,city,state,zip_code (order-insensitive, case-insensitive).
// Blank lines are skipped; any malformed row fails the whole upload so a
// batch never starts with silently dropped locations.
func ParseLocations(r io.Reader) ([]LocationRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[normalizeHeader(col)] = i
	}
	for _, required := range []string{"street_address", "city", "state", "zip_code"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q in header", required)
		}
	}

	var rows []LocationRow
	rowNum := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if isBlank(record) {
			continue
		}
		rowNum++

		if rowNum > MaxRows {
			return nil, fmt.Errorf("too many rows (max %d)", MaxRows)
		}

		row := LocationRow{
			RowNumber:     rowNum,
			StreetAddress: field(record, idx["street_address"]),
			City:          field(record, idx["city"]),
			State:         field(record, idx["state"]),
			ZipCode:       field(record, idx["zip_code"]),
		}

		if row.StreetAddress == "" {
			return nil, RowError{rowNum, "street_address is required"}
		}
		if row.City == "" {
			return nil, RowError{rowNum, "city is required"}
		}
		if row.State == "" {
			return nil, RowError{rowNum, "state is required"}
		}
		if row.ZipCode == "" {
			return nil, RowError{rowNum, "zip_code is required"}
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no location rows found")
	}

	return rows, nil
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.TrimPrefix(s, "\ufeff") // Excel loves BOMs
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
