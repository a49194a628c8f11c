// Package legalacts indexes EUR-Lex legal act HTML documents together with
// their eurovoc and CELEX metadata.
package legalacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/RegGuru/internal/data/blobStore"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/pipeline"
	"github.com/akolanti/RegGuru/internal/rag/embedding"
	"github.com/akolanti/RegGuru/internal/rag/ingest"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var logger = logger_i.NewLogger("legalacts")

const (
	MetaTitle        = "title"
	MetaEurovocTerms = "eurovoc-terms"
	MetaEurovocMT    = "eurovoc-mt"
	MetaCelex        = "celex"
	MetaCelexSector  = "celex-sector"
	MetaCelexYear    = "celex-year"
)

const (
	termSeparator  = ";"
	celexYearStart = 1
	celexYearEnd   = 5
	pipelineName   = "legal_acts"
)

// Document is one fetched legal act ready for chunking.
type Document struct {
	Row      Row
	Key      string
	DocPath  string
	Text     string
	Metadata map[string]string
}

// Summary reports what a run did with every distinct document.
type Summary struct {
	Rows          int
	Documents     int
	FetchFailures int
	EmbedFailures int
	Chunks        int
}

type Pipeline struct {
	rowsFile string
	htmlRoot string
	store    blobStore.Store
	embedder embedding.Embedder
	uploader *ingest.Uploader
	now      func() time.Time
	summary  Summary
}

var _ pipeline.Pipeline[[]Row, []Document] = (*Pipeline)(nil)

// New builds the pipeline. store resolves keys of the form <work-id>/<format>/<doc>
// below htmlRoot; htmlRoot itself only shows up in the recorded document path.
func New(rowsFile, htmlRoot string, store blobStore.Store, embedder embedding.Embedder, uploader *ingest.Uploader) *Pipeline {
	return &Pipeline{
		rowsFile: rowsFile,
		htmlRoot: htmlRoot,
		store:    store,
		embedder: embedder,
		uploader: uploader,
		now:      time.Now,
	}
}

// Run executes the three stages and returns the counts of the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.summary = Summary{}
	err := pipeline.Run[[]Row, []Document](ctx, pipelineName, p)
	return p.summary, err
}

func (p *Pipeline) Ingest(ctx context.Context) ([]Row, error) {
	f, err := os.Open(p.rowsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open legal act metadata: %w", err)
	}
	defer f.Close()
	rows, err := ReadRows(f)
	if err != nil {
		return nil, err
	}
	p.summary.Rows = len(rows)
	logger.WithTrace(ctx).Info("Read legal act rows", "rows", len(rows), "file", p.rowsFile)
	return rows, nil
}

type termSet struct {
	terms []string
	mts   []string
}

func addUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// Process fetches every distinct document once. A fetch failure drops that
// document only; a metadata failure keeps the document with what was gathered.
func (p *Pipeline) Process(ctx context.Context, rows []Row) ([]Document, error) {
	log := logger.WithTrace(ctx)

	terms := map[string]*termSet{}
	for _, r := range rows {
		ts, ok := terms[r.docKey()]
		if !ok {
			ts = &termSet{}
			terms[r.docKey()] = ts
		}
		ts.terms = addUnique(ts.terms, r.Terms)
		ts.mts = addUnique(ts.mts, r.MT)
	}

	seen := map[string]bool{}
	var docs []Document
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		key := r.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		docPath := path.Join(p.htmlRoot, key)
		parsed, err := p.fetch(ctx, key)
		if err != nil {
			log.Error("Error fetching document", "row", r.Index, "doc-path", docPath, "error", err)
			p.summary.FetchFailures++
			continue
		}
		if parsed.text == "" {
			log.Warn("Document has no text", "row", r.Index, "doc-path", docPath)
			p.summary.FetchFailures++
			continue
		}

		meta, err := buildMetadata(r, parsed, terms[r.docKey()])
		if err != nil {
			log.Error("Error extracting metadata", "row", r.Index, "doc-path", docPath, "error", err)
		}
		docs = append(docs, Document{Row: r, Key: key, DocPath: docPath, Text: parsed.text, Metadata: meta})
	}
	p.summary.Documents = len(docs)
	log.Info("Processed legal acts", "documents", len(docs), "fetch failures", p.summary.FetchFailures)
	return docs, nil
}

func (p *Pipeline) fetch(ctx context.Context, key string) (parsedHTML, error) {
	rc, err := p.store.Open(ctx, key)
	if err != nil {
		return parsedHTML{}, err
	}
	defer rc.Close()
	return parseHTML(rc)
}

// buildMetadata returns whatever it could gather even when it also returns an error.
func buildMetadata(r Row, parsed parsedHTML, ts *termSet) (map[string]string, error) {
	meta := map[string]string{}
	if parsed.title != "" {
		meta[MetaTitle] = parsed.title
	}
	for k, v := range parsed.metas {
		meta[k] = v
	}
	if ts != nil {
		meta[MetaEurovocTerms] = strings.Join(ts.terms, termSeparator)
		meta[MetaEurovocMT] = strings.Join(ts.mts, termSeparator)
	}

	if r.Celex == "" {
		return meta, errors.New("row has no celex number")
	}
	meta[MetaCelex] = r.Celex
	meta[MetaCelexSector] = r.Celex[:1]
	if len(r.Celex) < celexYearEnd {
		return meta, fmt.Errorf("celex %q is too short for a year", r.Celex)
	}
	year, err := strconv.Atoi(r.Celex[celexYearStart:celexYearEnd])
	if err != nil {
		return meta, fmt.Errorf("celex %q has no numeric year: %w", r.Celex, err)
	}
	meta[MetaCelexYear] = strconv.Itoa(year)
	return meta, nil
}

// Embed chunks every document, embeds it and adds all records to the index in one write.
func (p *Pipeline) Embed(ctx context.Context, docs []Document) error {
	log := logger.WithTrace(ctx)
	var records []commonModels.ChunkRecord

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := commonModels.Document{
			Id:                  ingest.MakeID(ingest.CanonicalRef(d.DocPath, p.htmlRoot)),
			Name:                d.Row.Doc,
			Path:                d.DocPath,
			LastIngestTimestamp: p.now(),
			ContentType:         commonModels.HTML,
		}
		chunks := ingest.PrepareChunks([]commonModels.RawPage{{Number: 1, Content: d.Text}}, doc)
		meta := d.Metadata
		docRecords, err := ingest.EmbedChunks(ctx, chunks, p.embedder, func(c commonModels.DocChunk) map[string]string {
			m := map[string]string{}
			for k, v := range meta {
				m[k] = v
			}
			for k, v := range ingest.ChunkMetadata(c) {
				m[k] = v
			}
			return m
		})
		if err != nil {
			log.Error("Error embedding document", "row", d.Row.Index, "doc-path", d.DocPath, "error", err)
			p.summary.EmbedFailures++
			continue
		}
		records = append(records, docRecords...)
	}

	if len(records) == 0 {
		return fmt.Errorf("%w: no legal act produced chunks", ragErrors.ErrEmptyInput)
	}
	if err := p.uploader.AddRecords(ctx, records); err != nil {
		return err
	}
	p.summary.Chunks = len(records)
	log.Info("Indexed legal acts", "documents", len(docs)-p.summary.EmbedFailures, "chunks", len(records))
	return nil
}
