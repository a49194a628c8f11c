package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
)

// Separators ordered from "best" to "worst" for semantic meaning.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// SplitText splits text recursively: the first separator present in the text splits it,
// pieces still too long are split again with the remaining separators, then neighbouring
// pieces are merged back up to chunkSize runes. Consecutive chunks share up to overlap
// runes of whole pieces.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = config.ChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	s := splitter{size: chunkSize, overlap: overlap}
	return s.split(text, separators)
}

type splitter struct {
	size    int
	overlap int
}

func (s splitter) split(text string, seps []string) []string {
	separator := seps[len(seps)-1]
	var next []string
	for i, sep := range seps {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = seps[i+1:]
			break
		}
	}

	var chunks []string
	var good []string
	for _, piece := range splitOn(text, separator) {
		if runeLen(piece) < s.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good, separator)...)
	}
	return chunks
}

// merge joins pieces greedily up to size, then drops pieces from the front of the
// window until it is within overlap before starting the next chunk.
func (s splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	var chunks []string
	var window []string
	total := 0

	joinLen := func() int {
		if len(window) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		pLen := runeLen(p)
		if total+pLen+joinLen() > s.size && len(window) > 0 {
			if chunk := joinTrimmed(window, separator); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total > 0 && total+pLen+joinLen() > s.size) {
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		window = append(window, p)
		if len(window) > 1 {
			total += sepLen
		}
		total += pLen
	}
	if chunk := joinTrimmed(window, separator); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitOn(text, separator string) []string {
	parts := strings.Split(text, separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinTrimmed(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// PrepareChunks splits every page and numbers the chunks with a running position
// across the whole document. Chunk ids derive from the document id and that position.
func PrepareChunks(pages []commonModels.RawPage, doc commonModels.Document) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk
	position := 0

	for _, page := range pages {
		for i, text := range SplitText(page.Content, config.ChunkSize, config.ChunkOverlap) {
			allChunks = append(allChunks, commonModels.DocChunk{
				Doc:            doc,
				ChunkId:        ChunkID(doc.Id, position),
				Chunk:          text,
				PageNum:        page.Number,
				ChunkPageOrder: i,
				Position:       position,
			})
			position++
		}
	}

	return allChunks
}
