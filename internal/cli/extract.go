package cli

import (
	"fmt"
	"os"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/blobStore"
	"github.com/akolanti/RegGuru/internal/eu/eurlex"
	"github.com/spf13/cobra"
)

var (
	extractVariant string
	extractRows    string
	extractOut     string
	pipelineConfig string
)

var extractCmd = &cobra.Command{
	Use:   "extract-metadata",
	Short: "Extract work metadata from Cellar RDF files",
	Long: `Reads a work table (CSV with a work-id column), parses
<metadata root>/<work-id>/tree_non_inferred.rdf for every row and writes JSON batches.

Variants:
  work-metadata  row columns plus CELEX, Cellar URI, EuroVoc codes, dates and agents
  eurovoc        one work-id/eurovoc-code pair per code
  celex          one work-id/celex pair per work`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractVariant, "variant", string(eurlex.VariantWorkMetadata), "work-metadata, eurovoc or celex")
	extractCmd.Flags().StringVar(&extractRows, "rows", "", "CSV file with the works to process")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output directory (defaults to the variant's EU_WORK_*_MAPPING_PATH)")
	rootCmd.PersistentFlags().StringVar(&pipelineConfig, "config", "pipeline.yaml", "YAML settings for the EU batch jobs")
	_ = extractCmd.MarkFlagRequired("rows")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	extractor, err := eurlex.NewExtractor(eurlex.Variant(extractVariant))
	if err != nil {
		return err
	}
	ps, err := config.LoadPipelineSettings(pipelineConfig)
	if err != nil {
		return fmt.Errorf("pipeline settings: %w", err)
	}

	outDir := extractOut
	if outDir == "" {
		outDir = variantOutputDir(extractor.Variant(), config.Get(), ps)
	}
	if outDir == "" {
		return fmt.Errorf("no output directory for variant %s", extractor.Variant())
	}

	source, err := metadataSource(ps)
	if err != nil {
		return err
	}

	f, err := os.Open(extractRows)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := eurlex.ReadRows(f)
	if err != nil {
		return err
	}

	runner := eurlex.NewRunner(source, extractor, eurlex.Options{
		OutDir:        outDir,
		Workers:       ps.Workers,
		PartitionSize: ps.PartitionSize,
		FlushEvery:    ps.FlushEvery,
	})
	summary, err := runner.Run(cmd.Context(), rows)
	fmt.Fprintf(cmd.OutOrStdout(), "Rows: %d, extracted: %d, skipped: %d, parse failures: %d, records: %d, files: %d\n",
		summary.Rows, summary.Extracted, summary.Skipped, summary.ParseFailures, summary.Records, summary.Files)
	return err
}

// variantOutputDir prefers the variant's own mapping path and falls back to output_dir.
func variantOutputDir(v eurlex.Variant, s config.Settings, ps config.PipelineSettings) string {
	var fromEnv string
	switch v {
	case eurlex.VariantWorkMetadata:
		fromEnv = s.EUWorkMetadataMapping
	case eurlex.VariantEurovoc:
		fromEnv = s.EUWorkEurovocMapping
	case eurlex.VariantCelex:
		fromEnv = s.EUWorkCelexMapping
	}
	if fromEnv != "" {
		return fromEnv
	}
	return ps.OutputDir
}

func metadataSource(ps config.PipelineSettings) (eurlex.Source, error) {
	if ps.UseObjectStore {
		store, err := blobStore.NewMinioStore(config.Get(), ps.Bucket, ps.ObjectPrefix)
		if err != nil {
			return nil, err
		}
		return eurlex.NewObjectSource(store), nil
	}
	if ps.MetadataRoot == "" {
		return nil, fmt.Errorf("EU_METADATA_PATH is not set")
	}
	return eurlex.NewDirSource(ps.MetadataRoot), nil
}
