package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineSettings configures the EU batch jobs. Values are layered:
// constants < YAML file < environment. OutputDir is the shared fallback for every
// extraction variant, the per-variant EU_WORK_*_MAPPING_PATH variables take precedence.
type PipelineSettings struct {
	MetadataRoot   string `yaml:"metadata_root"`
	OutputDir      string `yaml:"output_dir"`
	RowsFile       string `yaml:"rows_file"`
	HTMLRoot       string `yaml:"html_root"`
	Workers        int    `yaml:"workers"`
	PartitionSize  int    `yaml:"partition_size"`
	FlushEvery     int    `yaml:"flush_every"`
	UseObjectStore bool   `yaml:"use_object_store"`
	Bucket         string `yaml:"bucket"`
	ObjectPrefix   string `yaml:"object_prefix"`
}

// LoadPipelineSettings reads path when it exists and applies defaults and env overrides.
// A missing file is not an error.
func LoadPipelineSettings(path string) (PipelineSettings, error) {
	var ps PipelineSettings
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return ps, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &ps); err != nil {
				return ps, err
			}
		}
	}
	applyPipelineEnv(&ps, Get())
	applyPipelineDefaults(&ps)
	return ps, nil
}

func applyPipelineEnv(ps *PipelineSettings, s Settings) {
	if s.EUMetadataPath != "" {
		ps.MetadataRoot = s.EUMetadataPath
	}
	if s.EULegalActMetadata != "" {
		ps.RowsFile = s.EULegalActMetadata
	}
	if s.EUHTMLRoot != "" {
		ps.HTMLRoot = s.EUHTMLRoot
	}
	if os.Getenv("EU_WORKERS") != "" {
		ps.Workers = s.Workers
	}
	if os.Getenv("S3_BUCKET") != "" {
		ps.Bucket = s.S3Bucket
	}
}

func applyPipelineDefaults(ps *PipelineSettings) {
	if ps.Workers <= 0 {
		ps.Workers = Get().Workers
	}
	if ps.PartitionSize <= 0 {
		ps.PartitionSize = MetadataPartitionLen
	}
	if ps.FlushEvery <= 0 {
		ps.FlushEvery = MetadataFlushEvery
	}
	if ps.Bucket == "" {
		ps.Bucket = EUDocumentBucket
	}
}
