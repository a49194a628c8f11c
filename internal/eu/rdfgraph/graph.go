// Package rdfgraph holds one parsed RDF document in memory and answers the
// subject/predicate/object lookups the EU metadata extraction needs.
package rdfgraph

import (
	"errors"
	"fmt"
	"io"

	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/knakk/rdf"
)

const (
	SkosPrefLabel = "http://www.w3.org/2004/02/skos/core#prefLabel"
	RdfsLabel     = "http://www.w3.org/2000/01/rdf-schema#label"
	OwlSameAs     = "http://www.w3.org/2002/07/owl#sameAs"
)

type Kind int

const (
	IRI Kind = iota
	Literal
	Blank
)

// Term is a node of the graph. Value is the IRI, the lexical form or the blank node id.
type Term struct {
	Value string
	Kind  Kind
	Lang  string
}

func NewIRI(iri string) Term {
	return Term{Value: iri, Kind: IRI}
}

func (t Term) String() string {
	return t.Value
}

type Triple struct {
	Subject   Term
	Predicate string
	Object    Term
}

type spKey struct {
	subject   Term
	predicate string
}

type poKey struct {
	predicate string
	object    Term
}

// Graph keeps triples in document order. Lookups return matches in that order,
// which is what makes first-match resolution deterministic.
type Graph struct {
	triples     []Triple
	byPredicate map[string][]int
	bySP        map[spKey][]int
	byPO        map[poKey][]int
}

func New() *Graph {
	return &Graph{
		byPredicate: map[string][]int{},
		bySP:        map[spKey][]int{},
		byPO:        map[poKey][]int{},
	}
}

// Parse decodes an RDF/XML document.
func Parse(r io.Reader) (*Graph, error) {
	dec := rdf.NewTripleDecoder(r, rdf.RDFXML)
	g := New()
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ragErrors.ErrRdfParse, err)
		}
		g.Add(Triple{
			Subject:   convert(tr.Subj),
			Predicate: tr.Pred.String(),
			Object:    convert(tr.Obj),
		})
	}
	return g, nil
}

func convert(t rdf.Term) Term {
	switch v := t.(type) {
	case rdf.Literal:
		return Term{Value: v.String(), Kind: Literal, Lang: v.Lang()}
	case rdf.Blank:
		return Term{Value: v.String(), Kind: Blank}
	default:
		return Term{Value: t.String(), Kind: IRI}
	}
}

func (g *Graph) Add(t Triple) {
	i := len(g.triples)
	g.triples = append(g.triples, t)
	g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], i)
	sp := spKey{t.Subject, t.Predicate}
	g.bySP[sp] = append(g.bySP[sp], i)
	po := poKey{t.Predicate, t.Object}
	g.byPO[po] = append(g.byPO[po], i)
}

func (g *Graph) Len() int {
	return len(g.triples)
}

func (g *Graph) Triples() []Triple {
	return g.triples
}

// Objects returns the objects of predicate for any subject.
func (g *Graph) Objects(predicate string) []Term {
	return g.objects(g.byPredicate[predicate])
}

// ObjectsOf returns the objects of predicate for one subject.
func (g *Graph) ObjectsOf(subject Term, predicate string) []Term {
	return g.objects(g.bySP[spKey{subject, predicate}])
}

func (g *Graph) objects(idx []int) []Term {
	out := make([]Term, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i].Object)
	}
	return out
}

// FirstObject returns the first object of the first predicate that has one.
func (g *Graph) FirstObject(predicates ...string) (Term, bool) {
	for _, p := range predicates {
		if idx := g.byPredicate[p]; len(idx) > 0 {
			return g.triples[idx[0]].Object, true
		}
	}
	return Term{}, false
}

// Subjects returns every subject linked to object by predicate.
func (g *Graph) Subjects(predicate string, object Term) []Term {
	idx := g.byPO[poKey{predicate, object}]
	out := make([]Term, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i].Subject)
	}
	return out
}

// PrefLabel resolves a display label: skos:prefLabel, then rdfs:label, then the term itself.
func (g *Graph) PrefLabel(t Term) string {
	if t.Kind == Literal {
		return t.Value
	}
	for _, p := range []string{SkosPrefLabel, RdfsLabel} {
		if labels := g.ObjectsOf(t, p); len(labels) > 0 {
			return labels[0].Value
		}
	}
	return t.Value
}
