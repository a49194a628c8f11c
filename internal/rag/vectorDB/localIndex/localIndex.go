package localIndex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

const (
	// a loader that races a writer can find its generation removed under it
	loadAttempts = 3

	currentFile      = "CURRENT"
	generationPrefix = "gen-"
	persistPrefix    = ".persist-"
)

// Store keeps every persisted index in its own directory gen-<generation>/ holding
// index.vec (vectors, binary) and index.meta.json (ids, texts, metadata).
// The CURRENT file names the live generation and is replaced with a single rename,
// so a crash at any point leaves either the old or the new index readable.
type Store struct {
	dir    string
	logger *logger_i.Logger
}

func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving index directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Store{dir: abs, logger: logger_i.NewLogger("LocalIndex").With("dir", abs)}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// CurrentDir returns the directory of the live generation.
func (s *Store) CurrentDir() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ragErrors.ErrIndexNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", currentFile, err)
	}
	name := strings.TrimSpace(string(data))
	if !strings.HasPrefix(name, generationPrefix) || filepath.Base(name) != name {
		return "", corrupt("%s points at %q", currentFile, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) Exists() bool {
	dir, err := s.CurrentDir()
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, config.IndexFileName))
	return err == nil && !info.IsDir()
}

func (s *Store) Create(records []commonModels.ChunkRecord) (*vectorDB.Index, error) {
	if len(records) == 0 {
		return nil, ragErrors.ErrEmptyInput
	}
	idx := vectorDB.NewIndex(0)
	if err := idx.Add(records...); err != nil {
		return nil, err
	}
	s.logger.Debug("Created index", "records", idx.Len(), "dimension", idx.Dimension())
	return idx, nil
}

func (s *Store) Merge(idx *vectorDB.Index, records []commonModels.ChunkRecord) (*vectorDB.Index, error) {
	if idx == nil {
		return s.Create(records)
	}
	before := idx.Len()
	if err := idx.Add(records...); err != nil {
		return nil, err
	}
	s.logger.Debug("Merged into index", "before", before, "after", idx.Len())
	return idx, nil
}

func (s *Store) Load() (*vectorDB.Index, error) {
	dir, err := s.CurrentDir()
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		idx, err := s.load(dir)
		if err == nil {
			return idx, nil
		}
		lastErr = err
		// only a generation swapped out during the read is worth another attempt
		now, cerr := s.CurrentDir()
		if cerr != nil || now == dir {
			break
		}
		s.logger.Warn("Index generation changed during load, retrying", "attempt", attempt)
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		dir = now
	}
	return nil, lastErr
}

func (s *Store) load(dir string) (*vectorDB.Index, error) {
	vf, err := readVectorFile(filepath.Join(dir, config.IndexFileName))
	if err != nil {
		return nil, err
	}
	sc, err := readSidecar(filepath.Join(dir, config.IndexSidecarName))
	if err != nil {
		return nil, err
	}
	if sc.Generation != vf.generation {
		return nil, generationMismatch(vf.generation, sc.Generation)
	}
	if len(sc.Records) != len(vf.vectors) || sc.Dimension != vf.dimension {
		return nil, fmt.Errorf("%w: sidecar has %d records of dimension %d, vector file %d of dimension %d",
			ragErrors.ErrCorruptIndex, len(sc.Records), sc.Dimension, len(vf.vectors), vf.dimension)
	}

	idx := vectorDB.NewIndex(vf.dimension)
	records := make([]commonModels.ChunkRecord, len(sc.Records))
	for i, r := range sc.Records {
		records[i] = commonModels.ChunkRecord{Id: r.Id, Text: r.Text, Metadata: r.Metadata, Vector: vf.vectors[i]}
	}
	if len(records) > 0 {
		if err := idx.Add(records...); err != nil {
			return nil, fmt.Errorf("%w: %v", ragErrors.ErrCorruptIndex, err)
		}
	}
	idx.SetGeneration(vf.generation)
	return idx, nil
}

// Persist writes both files into a private temp directory, renames it to gen-<generation>
// and then swaps CURRENT. Older generations are removed once the swap is durable.
func (s *Store) Persist(idx *vectorDB.Index) error {
	if idx == nil || idx.Len() == 0 {
		return ragErrors.ErrEmptyInput
	}
	tmpDir, err := os.MkdirTemp(s.dir, persistPrefix)
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	generation := newGeneration()
	if err := writeSidecar(filepath.Join(tmpDir, config.IndexSidecarName), generation, idx); err != nil {
		return err
	}
	if err := writeVectorFile(filepath.Join(tmpDir, config.IndexFileName), generation, idx); err != nil {
		return err
	}
	syncDir(tmpDir)

	genName := generationPrefix + generation
	genDir := filepath.Join(s.dir, genName)
	if err := os.Rename(tmpDir, genDir); err != nil {
		return fmt.Errorf("moving generation into place: %w", err)
	}
	if err := s.swapCurrent(genName); err != nil {
		_ = os.RemoveAll(genDir)
		return err
	}
	syncDir(s.dir)
	idx.SetGeneration(generation)
	s.removeStaleGenerations(genName)

	metrics.SetIndexSize(idx.Len())
	s.logger.Info("Persisted index", "records", idx.Len(), "generation", generation)
	return nil
}

func (s *Store) swapCurrent(genName string) error {
	tmp, err := os.CreateTemp(s.dir, persistPrefix+currentFile+"-")
	if err != nil {
		return fmt.Errorf("creating %s: %w", currentFile, err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpName)

	if err := writeSynced(tmpName, func(w io.Writer) error {
		_, err := io.WriteString(w, genName+"\n")
		return err
	}); err != nil {
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, currentFile)); err != nil {
		return fmt.Errorf("swapping %s: %w", currentFile, err)
	}
	return nil
}

// removeStaleGenerations deletes every generation except keep, including ones left by
// a writer that stopped before its swap.
func (s *Store) removeStaleGenerations(keep string) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Could not list index directory", "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep || !strings.HasPrefix(e.Name(), generationPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Warn("Could not remove old generation", "generation", e.Name(), "error", err)
		}
	}
}

func (s *Store) Query(idx *vectorDB.Index, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if idx == nil {
		return nil, ragErrors.ErrIndexNotFound
	}
	return idx.Search(vector, k)
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
