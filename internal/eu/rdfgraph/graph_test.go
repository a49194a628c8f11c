package rdfgraph

import (
	"strings"
	"testing"

	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:skos="http://www.w3.org/2004/02/skos/core#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:ex="http://example.org/ns#">
  <rdf:Description rdf:about="http://example.org/work/1">
    <ex:about rdf:resource="http://eurovoc.europa.eu/100"/>
    <ex:about rdf:resource="http://eurovoc.europa.eu/200"/>
    <ex:code>32016R0679</ex:code>
    <ex:agent rdf:resource="http://example.org/agent/EP"/>
    <ex:agent rdf:resource="http://example.org/agent/COUNCIL"/>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/agent/EP">
    <rdfs:label>EP label</rdfs:label>
    <skos:prefLabel xml:lang="en">European Parliament</skos:prefLabel>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/agent/COUNCIL">
    <rdfs:label>Council</rdfs:label>
  </rdf:Description>
</rdf:RDF>`

func parseSample(t *testing.T) *Graph {
	t.Helper()
	g, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return g
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	g := parseSample(t)

	about := g.Objects("http://example.org/ns#about")
	require.Len(t, about, 2)
	assert.Equal(t, "http://eurovoc.europa.eu/100", about[0].Value)
	assert.Equal(t, "http://eurovoc.europa.eu/200", about[1].Value)
	assert.Equal(t, IRI, about[0].Kind)

	code, ok := g.FirstObject("http://example.org/ns#missing", "http://example.org/ns#code")
	require.True(t, ok)
	assert.Equal(t, "32016R0679", code.Value)
	assert.Equal(t, Literal, code.Kind)
}

func TestSubjects(t *testing.T) {
	g := parseSample(t)

	subjects := g.Subjects("http://example.org/ns#agent", NewIRI("http://example.org/agent/EP"))
	require.Len(t, subjects, 1)
	assert.Equal(t, "http://example.org/work/1", subjects[0].Value)

	assert.Empty(t, g.Subjects("http://example.org/ns#agent", NewIRI("http://example.org/agent/NOBODY")))
}

func TestPrefLabelFallbacks(t *testing.T) {
	g := parseSample(t)

	assert.Equal(t, "European Parliament", g.PrefLabel(NewIRI("http://example.org/agent/EP")))
	assert.Equal(t, "Council", g.PrefLabel(NewIRI("http://example.org/agent/COUNCIL")))
	assert.Equal(t, "http://example.org/agent/OTHER", g.PrefLabel(NewIRI("http://example.org/agent/OTHER")))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description`))
	assert.ErrorIs(t, err, ragErrors.ErrRdfParse)
}

func TestFirstObjectMissing(t *testing.T) {
	g := New()
	_, ok := g.FirstObject("http://example.org/ns#code")
	assert.False(t, ok)
}
