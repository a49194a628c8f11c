package eurlex

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/akolanti/RegGuru/internal/eu/rdfgraph"
)

type Variant string

const (
	VariantWorkMetadata Variant = "work-metadata"
	VariantEurovoc      Variant = "eurovoc"
	VariantCelex        Variant = "celex"
)

// Extractor turns one parsed work into output records. ok is false when the
// row must be skipped without output.
type Extractor interface {
	Variant() Variant
	Extract(row Row, g *rdfgraph.Graph) (records []any, ok bool)
}

func NewExtractor(v Variant) (Extractor, error) {
	switch v {
	case VariantWorkMetadata:
		return workMetadataExtractor{}, nil
	case VariantEurovoc:
		return eurovocExtractor{}, nil
	case VariantCelex:
		return celexExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extraction variant %q", v)
	}
}

// WorkMetadataRecord is the input row followed by the resolved metadata.
// Resolved keys win over input columns of the same name.
type WorkMetadataRecord struct {
	Row                []Field
	CelexNumber        *string
	CellarURI          *string
	EurovocCodes       []string
	DatePublication    *string
	DateEntryIntoForce *string
	DateExpiration     *string
	CreatedAgent       *string
	AuthoredAgent      *string
	ContributedAgent   *string
}

func (w WorkMetadataRecord) resolved() []struct {
	key   string
	value any
} {
	codes := w.EurovocCodes
	if codes == nil {
		codes = []string{}
	}
	return []struct {
		key   string
		value any
	}{
		{"celex-number", w.CelexNumber},
		{"cellar-uri", w.CellarURI},
		{"eurovoc-codes", codes},
		{"date-publication", w.DatePublication},
		{"date-entry-into-force", w.DateEntryIntoForce},
		{"date-expiration", w.DateExpiration},
		{"created-agent", w.CreatedAgent},
		{"authored-agent", w.AuthoredAgent},
		{"contributed-agent", w.ContributedAgent},
	}
}

// MarshalJSON keeps the column order of the input row.
func (w WorkMetadataRecord) MarshalJSON() ([]byte, error) {
	resolved := w.resolved()
	overridden := make(map[string]bool, len(resolved))
	for _, kv := range resolved {
		overridden[kv.key] = true
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	for _, f := range w.Row {
		if overridden[f.Name] {
			continue
		}
		if err := write(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	for _, kv := range resolved {
		if err := write(kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type EurovocMapping struct {
	WorkID      string `json:"work-id"`
	EurovocCode string `json:"eurovoc-code"`
}

type CelexMapping struct {
	WorkID string  `json:"work-id"`
	Celex  *string `json:"celex"`
}

type workMetadataExtractor struct{}

func (workMetadataExtractor) Variant() Variant { return VariantWorkMetadata }

// Extract skips works whose cellar URI cannot be resolved, which includes works without a CELEX number.
func (workMetadataExtractor) Extract(row Row, g *rdfgraph.Graph) ([]any, bool) {
	r := NewResolver(g)
	celex, ok := r.Celex()
	if !ok {
		return nil, false
	}
	cellar, ok := r.CellarURI(celex, row.Get(ColExprID), row.Get(ColManID), row.Get(ColCsID))
	if !ok {
		return nil, false
	}

	rec := WorkMetadataRecord{
		Row:                row.Fields,
		CelexNumber:        &celex,
		CellarURI:          &cellar,
		EurovocCodes:       r.EurovocCodes(),
		DatePublication:    r.First(PredDatePublication),
		DateEntryIntoForce: r.First(PredDateEntryIntoForce),
		DateExpiration:     r.First(PredDateExpiration),
		CreatedAgent:       r.Agent(PredCreatedBy),
		AuthoredAgent:      r.Agent(PredAuthoredBy),
		ContributedAgent:   r.Agent(PredContributedBy),
	}
	return []any{rec}, true
}

type eurovocExtractor struct{}

func (eurovocExtractor) Variant() Variant { return VariantEurovoc }

func (eurovocExtractor) Extract(row Row, g *rdfgraph.Graph) ([]any, bool) {
	codes := NewResolver(g).EurovocCodes()
	out := make([]any, 0, len(codes))
	for _, c := range codes {
		out = append(out, EurovocMapping{WorkID: row.WorkID(), EurovocCode: c})
	}
	return out, true
}

type celexExtractor struct{}

func (celexExtractor) Variant() Variant { return VariantCelex }

func (celexExtractor) Extract(row Row, g *rdfgraph.Graph) ([]any, bool) {
	m := CelexMapping{WorkID: row.WorkID()}
	if celex, ok := NewResolver(g).Celex(); ok {
		m.Celex = &celex
	}
	return []any{m}, true
}
