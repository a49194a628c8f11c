// Package cli holds the batch commands of the regguru binary.
package cli

import (
	"context"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/spf13/cobra"
)

var logger = logger_i.NewLogger("cli")

var rootCmd = &cobra.Command{
	Use:   "regguru",
	Short: "Index regulations and ask questions about them",
	Long: `regguru indexes PDF, DOCX and TXT regulations into a local vector index,
answers questions over it and prepares EU legal metadata from Cellar RDF dumps.

Settings are read from the environment and an optional .env file.`,
	SilenceUsage: true,
	// stdout carries answers and MCP frames, so logs go to stderr
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger_i.InitTo(cmd.ErrOrStderr())
	},
}

// newService builds the RAG service from the process settings.
var newService = func(ctx context.Context) (rag.Service, error) {
	svc, _, err := rag.Build(ctx, config.Get())
	return svc, err
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
