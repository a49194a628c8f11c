// Package mcpserver exposes question answering and document upload as MCP tools.
package mcpserver

import (
	"context"
	"errors"

	"github.com/akolanti/RegGuru/internal/rag/ingest"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "0.1.0"

var ErrMissingService = errors.New("rag service is required")

var logger = logger_i.NewLogger("MCP Server")

// Service is the part of the RAG service the tools call.
type Service interface {
	Answer(ctx context.Context, question string) (string, error)
	Upload(ctx context.Context, paths []string) ingest.UploadResult
}

type Server struct {
	rag    Service
	server *mcp.Server
}

func NewServer(rag Service) (*Server, error) {
	if rag == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		rag: rag,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "regguru",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
