package legalacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
)

const (
	colWorkID = "work-id"
	colFormat = "format"
	colDoc    = "doc"
	colCelex  = "celex"
	colMT     = "MT"
	colTerms  = "TERMS (PT-NPT)"
)

// Row is one line of the legal-act metadata file. A document may span several
// rows, one per eurovoc term.
type Row struct {
	Index  int
	WorkID string
	Format string
	Doc    string
	Celex  string
	MT     string
	Terms  string
}

// Key locates the document relative to the HTML root.
func (r Row) Key() string {
	return path.Join(r.WorkID, r.Format, r.Doc)
}

func (r Row) docKey() string {
	return r.WorkID + "\x00" + r.Doc
}

func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("legal act metadata is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legal act header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[h] = i
	}
	for _, required := range []string{colWorkID, colFormat, colDoc} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("legal act metadata has no %q column", required)
		}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read legal act row %d: %w", len(rows), err)
		}
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		rows = append(rows, Row{
			Index:  len(rows),
			WorkID: get(colWorkID),
			Format: get(colFormat),
			Doc:    get(colDoc),
			Celex:  get(colCelex),
			MT:     get(colMT),
			Terms:  get(colTerms),
		})
	}
	return rows, nil
}
