package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// record is one data row of a CSV file. Row numbers are 1-based and count
// the header.
type record struct {
	row    int
	fields []string
}

// readCSV reads the data rows of a file whose rows have between minFields and
// maxFields fields.
func (l *Loader) readCSV(path string, minFields, maxFields int) ([]record, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedInputError{File: path, Reason: "missing header"}
		}

		return nil, csvError(path, err)
	}

	var records []record
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, csvError(path, err)
		}

		row, _ := r.FieldPos(0)

		if len(fields) < minFields || len(fields) > maxFields {
			return nil, &MalformedInputError{
				File:   path,
				Row:    row,
				Reason: fieldCountReason(minFields, maxFields, len(fields)),
			}
		}

		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		records = append(records, record{row: row, fields: fields})
	}

	return records, nil
}

func fieldCountReason(minFields, maxFields, got int) string {
	if minFields == maxFields {
		return fmt.Sprintf("expected %d fields, got %d", minFields, got)
	}

	return fmt.Sprintf("expected %d to %d fields, got %d", minFields, maxFields, got)
}

func csvError(path string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &MalformedInputError{
			File:   path,
			Row:    perr.Line,
			Reason: perr.Err.Error(),
		}
	}

	return fmt.Errorf("loader: reading %s: %w", path, err)
}

func parseFloat(path string, rec record, i int, what string) (float64, error) {
	v, err := strconv.ParseFloat(rec.fields[i], 64)
	if err != nil {
		return 0, &MalformedInputError{
			File:   path,
			Row:    rec.row,
			Reason: fmt.Sprintf("invalid %s %q", what, rec.fields[i]),
		}
	}

	return v, nil
}

// parseFinite is parseFloat that also rejects NaN and infinities.
func parseFinite(path string, rec record, i int, what string) (float64, error) {
	v, err := parseFloat(path, rec, i, what)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &MalformedInputError{
			File:   path,
			Row:    rec.row,
			Reason: fmt.Sprintf("%s %q is not finite", what, rec.fields[i]),
		}
	}

	return v, nil
}

// parseAmount parses a finite value that must not be negative, such as a
// time or a size.
func parseAmount(path string, rec record, i int, what string) (float64, error) {
	v, err := parseFinite(path, rec, i, what)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		return 0, &MalformedInputError{
			File:   path,
			Row:    rec.row,
			Reason: fmt.Sprintf("%s %q is negative", what, rec.fields[i]),
		}
	}

	return v, nil
}
