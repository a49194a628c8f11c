package ragErrors

import (
	"errors"
	"net/http"
)

var (
	ErrEmptyInput          = errors.New("no content to index")
	ErrCorruptIndex        = errors.New("persisted index is unreadable")
	ErrIndexNotFound       = errors.New("no index found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmbedding           = errors.New("embedding provider failed")
	ErrGeneration          = errors.New("text generation failed")
	ErrRdfParse            = errors.New("rdf graph failed to parse")
	ErrMissingResource     = errors.New("resource not found")
	ErrEmptyQuery          = errors.New("empty question")
	ErrDuplicateDocument   = errors.New("document already uploaded")
)

// UserMessage maps a pipeline error to the status code and message shown at the API boundary.
func UserMessage(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrEmptyQuery):
		return http.StatusBadRequest, "Empty message"
	case errors.Is(err, ErrIndexNotFound):
		return http.StatusNotFound, "No documents uploaded yet"
	case errors.Is(err, ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, "Unsupported file type"
	case errors.Is(err, ErrDuplicateDocument):
		return http.StatusConflict, "File already exists in database"
	case errors.Is(err, ErrEmptyInput):
		return http.StatusUnprocessableEntity, "Document has no extractable text"
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrGeneration):
		return http.StatusBadGateway, "Upstream model provider failed"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
