package commonModels

import "time"

type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	Path                string    `json:"source"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

// RawPage is one ordered text segment of a document: a PDF page or the whole blob.
type RawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type DocChunk struct {
	Doc            Document
	ChunkId        string `json:"chunk_id"`
	Chunk          string `json:"content"`
	PageNum        int    `json:"page_num"`
	ChunkPageOrder int    `json:"chunk_order"`
	Position       int    `json:"position"`
}

// ChunkRecord is what the vector index stores for one chunk.
type ChunkRecord struct {
	Id       string            `json:"id"`
	Text     string            `json:"text"`
	Vector   []float32         `json:"-"`
	Metadata map[string]string `json:"metadata"`
}

type ScoredChunk struct {
	Record ChunkRecord
	Score  float32
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var HTML DocType = "HTML"
var ERR DocType = "ERROR"

// metadata keys written on every chunk record
const (
	MetaSource   = "source"
	MetaDocName  = "doc_name"
	MetaPage     = "page"
	MetaPosition = "position"
	MetaIngested = "ingested_at"
)
