package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/jobModel"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/eu/eurlex"
	"github.com/akolanti/RegGuru/internal/rag"
	"github.com/akolanti/RegGuru/internal/rag/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	OnAnswer func(ctx context.Context, question string) (string, error)
	OnUpload func(ctx context.Context, paths []string) ingest.UploadResult
}

func (s *stubService) ProcessRequest(_ context.Context, j jobModel.Job) jobModel.Job { return j }
func (s *stubService) IngestDocument(_ context.Context, j jobModel.Job) jobModel.Job { return j }
func (s *stubService) Answer(ctx context.Context, q string) (string, error) {
	return s.OnAnswer(ctx, q)
}
func (s *stubService) Upload(ctx context.Context, paths []string) ingest.UploadResult {
	return s.OnUpload(ctx, paths)
}

func useService(t *testing.T, svc rag.Service) {
	t.Helper()
	prev := newService
	newService = func(context.Context) (rag.Service, error) { return svc, nil }
	t.Cleanup(func() { newService = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskCmd(t *testing.T) {
	useService(t, &stubService{OnAnswer: func(_ context.Context, q string) (string, error) {
		return "Article 17 covers " + q, nil
	}})

	out, err := execute(t, "ask", "erasure")
	require.NoError(t, err)
	assert.Equal(t, "Article 17 covers erasure\n", out)

	_, err = execute(t, "ask")
	assert.Error(t, err)
}

func TestAskCmd_MapsErrors(t *testing.T) {
	useService(t, &stubService{OnAnswer: func(context.Context, string) (string, error) {
		return "", fmt.Errorf("load: %w", ragErrors.ErrIndexNotFound)
	}})

	_, err := execute(t, "ask", "anything")
	assert.EqualError(t, err, "No documents uploaded yet")
}

func TestUploadCmd(t *testing.T) {
	useService(t, &stubService{OnUpload: func(_ context.Context, paths []string) ingest.UploadResult {
		return ingest.UploadResult{
			Succeeded: 1,
			Failed:    1,
			Failures:  []ingest.FileFailure{{Path: paths[1], Err: ragErrors.ErrUnsupportedFileType}},
		}
	}})

	out, err := execute(t, "upload", "a.pdf", "b.xlsx")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded: 1, failed: 1")
	assert.Contains(t, out, "b.xlsx")
}

func TestUploadCmd_AllFailed(t *testing.T) {
	useService(t, &stubService{OnUpload: func(_ context.Context, paths []string) ingest.UploadResult {
		return ingest.UploadResult{Failed: len(paths)}
	}})

	_, err := execute(t, "upload", "a.pdf")
	assert.Error(t, err)
}

const celexRDF = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:cdm="http://publications.europa.eu/ontology/cdm#">
  <rdf:Description rdf:about="http://publications.europa.eu/resource/cellar/abc">
    <cdm:resource_legal_id_celex>32016R0679</cdm:resource_legal_id_celex>
  </rdf:Description>
</rdf:RDF>`

func TestExtractMetadataCmd(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "meta", "gdpr"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "meta", "gdpr", "tree_non_inferred.rdf"), []byte(celexRDF), 0o644))
	rows := filepath.Join(root, "works.csv")
	require.NoError(t, os.WriteFile(rows, []byte("work-id\ngdpr\nmissing\n"), 0o644))
	cfg := filepath.Join(root, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("metadata_root: "+filepath.Join(root, "meta")+"\nworkers: 2\n"), 0o644))
	outDir := filepath.Join(root, "out")

	out, err := execute(t, "extract-metadata", "--config", cfg, "--rows", rows, "--variant", "celex", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 2, extracted: 1, skipped: 1")

	files, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "gdpr", records[0]["work-id"])
	assert.Equal(t, "32016R0679", records[0]["celex"])
}

func TestVariantOutputDir(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output_dir: /data/batches\n"), 0o644))
	ps, err := config.LoadPipelineSettings(cfg)
	require.NoError(t, err)
	require.Equal(t, "/data/batches", ps.OutputDir)

	onlyWorkMetadata := config.Settings{EUWorkMetadataMapping: "/env/work-metadata"}
	allSet := config.Settings{
		EUWorkMetadataMapping: "/env/work-metadata",
		EUWorkEurovocMapping:  "/env/eurovoc",
		EUWorkCelexMapping:    "/env/celex",
	}

	tests := []struct {
		variant  eurlex.Variant
		settings config.Settings
		want     string
	}{
		{eurlex.VariantWorkMetadata, onlyWorkMetadata, "/env/work-metadata"},
		{eurlex.VariantEurovoc, onlyWorkMetadata, "/data/batches"},
		{eurlex.VariantCelex, onlyWorkMetadata, "/data/batches"},
		{eurlex.VariantWorkMetadata, config.Settings{}, "/data/batches"},
		{eurlex.VariantEurovoc, allSet, "/env/eurovoc"},
		{eurlex.VariantCelex, allSet, "/env/celex"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, variantOutputDir(tt.variant, tt.settings, ps), "variant %s", tt.variant)
	}
}

func TestExtractMetadataCmd_UnknownVariant(t *testing.T) {
	_, err := execute(t, "extract-metadata", "--rows", "works.csv", "--variant", "nope")
	assert.ErrorContains(t, err, "unknown extraction variant")
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"ask", "upload", "extract-metadata", "ingest-eu", "mcp"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
