package eurlex

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

const (
	ColWorkID = "work-id"
	ColExprID = "celex-expr-id"
	ColManID  = "celex-man-id"
	ColCsID   = "celex-cs-id"
)

type Field struct {
	Name  string
	Value string
}

// Row is one line of the metadata CSV with its columns in header order.
type Row struct {
	Index  int
	Fields []Field
}

func (r Row) Get(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func (r Row) WorkID() string {
	return r.Get(ColWorkID)
}

// ReadRows reads a CSV with a header row. The work-id column is mandatory.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("metadata csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata header: %w", err)
	}
	hasWorkID := false
	for _, h := range header {
		if h == ColWorkID {
			hasWorkID = true
		}
	}
	if !hasWorkID {
		return nil, fmt.Errorf("metadata csv has no %q column", ColWorkID)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata row %d: %w", len(rows), err)
		}
		row := Row{Index: len(rows), Fields: make([]Field, len(header))}
		for i, h := range header {
			row.Fields[i].Name = h
			if i < len(rec) {
				row.Fields[i].Value = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
