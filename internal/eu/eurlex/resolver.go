package eurlex

import (
	"fmt"
	"strings"

	"github.com/akolanti/RegGuru/internal/eu/rdfgraph"
)

const cdm = "http://publications.europa.eu/ontology/cdm#"

const (
	PredEurovoc            = cdm + "work_is_about_concept_eurovoc"
	PredLegalIDCelex       = cdm + "resource_legal_id_celex"
	PredCelexNumber        = cdm + "celex_number"
	PredDatePublication    = cdm + "work_date_publication"
	PredDateEntryIntoForce = cdm + "date_entry-into-force"
	PredDateExpiration     = cdm + "date_expiration"
	PredCreatedBy          = cdm + "work_created_by_agent"
	PredAuthoredBy         = cdm + "work_authored_by_agent"
	PredContributedBy      = cdm + "work_contributed_to_by_agent"
)

const celexResourceBase = "http://publications.europa.eu/resource/celex/"

// Resolver answers the metadata questions asked of one work's graph.
type Resolver struct {
	g *rdfgraph.Graph
}

func NewResolver(g *rdfgraph.Graph) Resolver {
	return Resolver{g: g}
}

// EurovocCodes returns the last path segment of every eurovoc concept, in document order.
func (r Resolver) EurovocCodes() []string {
	objs := r.g.Objects(PredEurovoc)
	codes := make([]string, 0, len(objs))
	for _, o := range objs {
		codes = append(codes, lastSegment(o.Value))
	}
	return codes
}

// Celex prefers resource_legal_id_celex over celex_number.
func (r Resolver) Celex() (string, bool) {
	t, ok := r.g.FirstObject(PredLegalIDCelex, PredCelexNumber)
	if !ok {
		return "", false
	}
	return t.Value, true
}

// CellarURI finds the subject declared owl:sameAs the CELEX expression resource.
func (r Resolver) CellarURI(celex, expr, man, cs string) (string, bool) {
	target := rdfgraph.NewIRI(fmt.Sprintf("%s%s.%s.%s.%s", celexResourceBase, celex, expr, man, cs))
	subjects := r.g.Subjects(rdfgraph.OwlSameAs, target)
	if len(subjects) == 0 {
		return "", false
	}
	return subjects[0].Value, true
}

// First returns the first object of predicate as a string.
func (r Resolver) First(predicate string) *string {
	t, ok := r.g.FirstObject(predicate)
	if !ok {
		return nil
	}
	return &t.Value
}

// Agent returns the display label of the first agent linked by predicate.
func (r Resolver) Agent(predicate string) *string {
	t, ok := r.g.FirstObject(predicate)
	if !ok {
		return nil
	}
	label := r.g.PrefLabel(t)
	return &label
}

func lastSegment(iri string) string {
	return iri[strings.LastIndex(iri, "/")+1:]
}
