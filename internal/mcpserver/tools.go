package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"the question about the indexed regulations"`
}

type AskOutput struct {
	Answer string `json:"answer"`
}

type UploadInput struct {
	Paths []string `json:"paths" jsonschema:"local paths of PDF, DOCX or TXT files to index"`
}

type UploadFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type UploadOutput struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []UploadFailure `json:"failures,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_regulation",
		Description: "Answer a question using the indexed regulatory documents",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_documents",
		Description: "Index local documents so later questions can use them",
	}, s.handleUpload)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.rag.Answer(ctx, input.Question)
	if err != nil {
		logger.WithTrace(ctx).Warn("ask_regulation failed", "error", err)
		_, msg := ragErrors.UserMessage(err)
		return nil, AskOutput{}, errors.New(msg)
	}
	return nil, AskOutput{Answer: answer}, nil
}

func (s *Server) handleUpload(ctx context.Context, _ *mcp.CallToolRequest, input UploadInput) (*mcp.CallToolResult, UploadOutput, error) {
	paths := make([]string, 0, len(input.Paths))
	for _, p := range input.Paths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, UploadOutput{}, errors.New("no paths given")
	}

	result := s.rag.Upload(ctx, paths)
	out := UploadOutput{Succeeded: result.Succeeded, Failed: result.Failed}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, UploadFailure{Path: f.Path, Error: f.Err.Error()})
	}
	return nil, out, nil
}
