package localIndex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/rag/vectorDB"
	"github.com/google/uuid"
)

const (
	vectorMagic   = "RGIX"
	formatVersion = uint32(1)
	// magic + version + dimension + count + generation
	headerSize = 4 + 4 + 4 + 8 + 16
)

var errGenerationMismatch = errors.New("index generation mismatch")

type sidecarRecord struct {
	Id       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type sidecar struct {
	Version    uint32          `json:"version"`
	Generation string          `json:"generation"`
	Dimension  int             `json:"dimension"`
	Records    []sidecarRecord `json:"records"`
}

type vectorFile struct {
	generation string
	dimension  int
	vectors    [][]float32
}

func newGeneration() string {
	return uuid.NewString()
}

func generationMismatch(vec, meta string) error {
	return fmt.Errorf("%w: %w (vector file %s, sidecar %s)", ragErrors.ErrCorruptIndex, errGenerationMismatch, vec, meta)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ragErrors.ErrCorruptIndex}, args...)...)
}

func writeSidecar(path, generation string, idx *vectorDB.Index) error {
	sc := sidecar{
		Version:    formatVersion,
		Generation: generation,
		Dimension:  idx.Dimension(),
		Records:    make([]sidecarRecord, idx.Len()),
	}
	for i, r := range idx.Records() {
		sc.Records[i] = sidecarRecord{Id: r.Id, Text: r.Text, Metadata: r.Metadata}
	}

	return writeSynced(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(sc)
	})
}

func writeVectorFile(path, generation string, idx *vectorDB.Index) error {
	gen, err := uuid.Parse(generation)
	if err != nil {
		return fmt.Errorf("invalid generation %q: %w", generation, err)
	}

	return writeSynced(path, func(w io.Writer) error {
		header := make([]byte, headerSize)
		copy(header[0:4], vectorMagic)
		binary.LittleEndian.PutUint32(header[4:8], formatVersion)
		binary.LittleEndian.PutUint32(header[8:12], uint32(idx.Dimension()))
		binary.LittleEndian.PutUint64(header[12:20], uint64(idx.Len()))
		copy(header[20:36], gen[:])
		if _, err := w.Write(header); err != nil {
			return err
		}

		buf := make([]byte, 4*idx.Dimension())
		for _, r := range idx.Records() {
			for j, x := range r.Vector {
				binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(x))
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSynced(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return f.Close()
}

func readSidecar(path string) (*sidecar, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, corrupt("sidecar %s is missing", path)
		}
		return nil, fmt.Errorf("opening sidecar: %w", err)
	}
	defer f.Close()

	var sc sidecar
	if err := json.NewDecoder(f).Decode(&sc); err != nil {
		return nil, corrupt("decoding sidecar: %v", err)
	}
	if sc.Version != formatVersion {
		return nil, corrupt("sidecar version %d not supported", sc.Version)
	}
	return &sc, nil
}

func readVectorFile(path string) (*vectorFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ragErrors.ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, corrupt("reading header: %v", err)
	}
	if string(header[0:4]) != vectorMagic {
		return nil, corrupt("bad magic %q", header[0:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != formatVersion {
		return nil, corrupt("vector file version %d not supported", v)
	}
	dim := int(binary.LittleEndian.Uint32(header[8:12]))
	count := binary.LittleEndian.Uint64(header[12:20])
	gen, err := uuid.FromBytes(header[20:36])
	if err != nil {
		return nil, corrupt("bad generation: %v", err)
	}
	if count > 0 && dim == 0 {
		return nil, corrupt("%d vectors of dimension 0", count)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vector file: %w", err)
	}
	if want := uint64(headerSize) + count*uint64(dim)*4; uint64(info.Size()) != want {
		return nil, corrupt("vector file is %d bytes, header describes %d", info.Size(), want)
	}

	vf := &vectorFile{generation: gen.String(), dimension: dim, vectors: make([][]float32, 0, count)}
	buf := make([]byte, 4*dim)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, corrupt("vector %d of %d truncated: %v", i, count, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		vf.vectors = append(vf.vectors, vec)
	}
	return vf, nil
}
