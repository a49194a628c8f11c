package eurlex

import (
	"context"
	"fmt"
	"path"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/data/blobStore"
	"github.com/akolanti/RegGuru/internal/eu/rdfgraph"
)

// Source locates and parses the RDF tree of a work. A work without one
// returns ragErrors.ErrMissingResource.
type Source interface {
	Graph(ctx context.Context, workID string) (*rdfgraph.Graph, error)
}

type storeSource struct {
	store blobStore.Store
}

// NewDirSource reads <root>/<work-id>/tree_non_inferred.rdf.
func NewDirSource(root string) Source {
	return storeSource{store: blobStore.NewFileStore(root)}
}

// NewObjectSource reads the same layout from a bucket.
func NewObjectSource(store *blobStore.MinioStore) Source {
	return storeSource{store: store}
}

func (s storeSource) Graph(ctx context.Context, workID string) (*rdfgraph.Graph, error) {
	rc, err := s.store.Open(ctx, path.Join(workID, config.RdfFileName))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	g, err := rdfgraph.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("work %s: %w", workID, err)
	}
	return g, nil
}
