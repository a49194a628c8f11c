package cli

import (
	"fmt"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/blobStore"
	"github.com/akolanti/RegGuru/internal/eu/legalacts"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/internal/rag/ingest"
	"github.com/spf13/cobra"
)

var ingestEUCmd = &cobra.Command{
	Use:   "ingest-eu",
	Short: "Index EU legal acts listed in the legal act metadata file",
	Long: `Reads EU_LEGAL_ACT_METADATA_FILE, fetches every <work-id>/<format>/<doc> HTML page
from EU_HTML_ROOT (or the S3 bucket when use_object_store is set), attaches EuroVoc
and CELEX metadata and adds the chunks to the local vector index.`,
	RunE: runIngestEU,
}

func init() {
	rootCmd.AddCommand(ingestEUCmd)
}

func runIngestEU(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ps, err := config.LoadPipelineSettings(pipelineConfig)
	if err != nil {
		return fmt.Errorf("pipeline settings: %w", err)
	}
	if ps.RowsFile == "" {
		return fmt.Errorf("EU_LEGAL_ACT_METADATA_FILE is not set")
	}

	settings := config.Get()
	var store blobStore.Store
	if ps.UseObjectStore {
		s3, err := blobStore.NewMinioStore(settings, ps.Bucket, ps.ObjectPrefix)
		if err != nil {
			return err
		}
		store = s3
	} else {
		if ps.HTMLRoot == "" {
			return fmt.Errorf("EU_HTML_ROOT is not set")
		}
		store = blobStore.NewFileStore(ps.HTMLRoot)
	}

	providers, err := rag.NewProviders(ctx, settings)
	if err != nil {
		return err
	}
	index, err := rag.NewIndexStore(settings)
	if err != nil {
		return err
	}
	uploader := ingest.NewUploader(index, providers.Embedder, ps.HTMLRoot)

	summary, err := legalacts.New(ps.RowsFile, ps.HTMLRoot, store, providers.Embedder, uploader).Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Rows: %d, documents: %d, fetch failures: %d, embed failures: %d, chunks: %d\n",
		summary.Rows, summary.Documents, summary.FetchFailures, summary.EmbedFailures, summary.Chunks)
	return err
}
