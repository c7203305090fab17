// Package collection builds the SPARQL queries behind instance listing and
// assembles their result rows into collection documents.
package collection

import (
	"sort"
	"strconv"

	"github.com/ontogate/ontogate/internal/params"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// Variables shared by every list query
const (
	VarSubject    = "?subject"
	VarLabel      = "?label"
	VarSortObject = "?sort_object"
	VarTotal      = "?total"
	VarGraph      = "?g"
)

// Plan is the intermediate form of a list query. The list and count queries
// are both rendered from the same Where block.
type Plan struct {
	Where      *sparql.Block
	Projection []string
	Order      *sparql.OrderCondition
	// Keys maps projected variable names (without "?") to the full URI of the
	// predicate they hold a value of. The subject and label are not listed.
	Keys map[string]string
}

// ListQueryBuilder synthesizes instance listing queries
type ListQueryBuilder struct {
	registry   *prefixes.Registry
	rulesetURI string
}

// NewListQueryBuilder creates a builder. An empty rulesetURI disables the
// inference preamble.
func NewListQueryBuilder(registry *prefixes.Registry, rulesetURI string) *ListQueryBuilder {
	return &ListQueryBuilder{registry: registry, rulesetURI: rulesetURI}
}

// Plan resolves slots, sorting and language filters into a query plan
func (b *ListQueryBuilder) Plan(p *params.QueryParams) *Plan {
	where := &sparql.Block{Graph: VarGraph}
	where.Add(
		sparql.Triple{Subject: VarSubject, Predicate: "a", Object: sparql.IRI(p.ClassURI)},
		sparql.Triple{Subject: VarSubject, Predicate: sparql.IRI(prefixes.RDFSLabel), Object: VarLabel},
	)
	where.Filter(sparql.Equals(VarGraph, sparql.IRI(p.GraphURI)))

	plan := &Plan{Where: where, Keys: make(map[string]string)}
	projected := map[string]bool{VarLabel: true, VarSubject: true}
	literalVars := []string{VarLabel}
	var literalFilters []sparql.Filter
	literals := 0

	for _, slot := range p.Slots {
		if !b.emits(slot) {
			continue
		}
		predKind := sparql.Classify(slot.Predicate, b.registry)
		pred := sparql.Render(slot.Predicate, b.registry)
		predURI := sparql.ExpandTerm(slot.Predicate, b.registry)
		if predKind == sparql.KindVariable {
			projected[slot.Predicate] = true
		}

		var object string
		switch sparql.Classify(slot.Object, b.registry) {
		case sparql.KindVariable:
			object = slot.Object
			projected[object] = true
			if predKind != sparql.KindVariable {
				plan.Keys[object[1:]] = predURI
			}
		case sparql.KindURI, sparql.KindCURIE:
			object = sparql.IRI(sparql.ExpandTerm(slot.Object, b.registry))
		default:
			literals++
			object = "?literal" + strconv.Itoa(literals)
			projected[object] = true
			literalVars = append(literalVars, object)
			literalFilters = append(literalFilters, sparql.StrEquals(object, slot.Object))
			if predKind != sparql.KindVariable {
				plan.Keys[object[1:]] = predURI
			}
		}
		where.Add(sparql.Triple{Subject: VarSubject, Predicate: pred, Object: object})
	}

	if sortVar := b.sortVariable(p, where, plan); sortVar != "" {
		projected[sortVar] = true
		plan.Order = &sparql.OrderCondition{Variable: sortVar, Descending: p.SortOrder == params.SortDesc}
	}

	for _, f := range literalFilters {
		where.Filter(f)
	}
	if p.Lang != "" {
		for _, v := range literalVars {
			where.Filter(sparql.LangMatches(v, p.Lang))
		}
	}

	for v := range projected {
		plan.Projection = append(plan.Projection, v)
	}
	sort.Strings(plan.Projection)
	return plan
}

// emits reports whether a slot contributes a triple. A slot whose predicate
// and object are both variables matches everything, and rdfs:label with a
// variable object repeats the mandatory label triple.
func (b *ListQueryBuilder) emits(slot params.Slot) bool {
	objectIsVar := sparql.Classify(slot.Object, b.registry) == sparql.KindVariable
	if !objectIsVar {
		return true
	}
	if sparql.Classify(slot.Predicate, b.registry) == sparql.KindVariable {
		return false
	}
	return sparql.ExpandTerm(slot.Predicate, b.registry) != prefixes.RDFSLabel
}

func (b *ListQueryBuilder) sortVariable(p *params.QueryParams, where *sparql.Block, plan *Plan) string {
	if p.SortBy == "" {
		return ""
	}
	kind := sparql.Classify(p.SortBy, b.registry)
	if kind != sparql.KindURI && kind != sparql.KindCURIE {
		return ""
	}
	sortURI := sparql.ExpandTerm(p.SortBy, b.registry)
	if sortURI == prefixes.RDFSLabel {
		return VarLabel
	}

	for _, slot := range p.Slots {
		if !b.emits(slot) {
			continue
		}
		if sparql.ExpandTerm(slot.Predicate, b.registry) == sortURI &&
			sparql.Classify(slot.Object, b.registry) == sparql.KindVariable {
			return slot.Object
		}
	}

	triple := sparql.Triple{Subject: VarSubject, Predicate: sparql.IRI(sortURI), Object: VarSortObject}
	if p.SortIncludeEmpty {
		where.Add(sparql.Optional{Patterns: []sparql.Pattern{triple}})
	} else {
		where.Add(triple)
	}
	plan.Keys[VarSortObject[1:]] = sortURI
	return VarSortObject
}

func (b *ListQueryBuilder) prologue() []string {
	if b.rulesetURI == "" {
		return nil
	}
	return []string{sparql.InferencePrologue(b.rulesetURI)}
}

// Build renders the paginated listing query
func (b *ListQueryBuilder) Build(p *params.QueryParams) string {
	return b.selectQuery(b.Plan(p), p).String()
}

// BuildCount renders the COUNT counterpart of Build. Its WHERE body is
// identical to the listing query's.
func (b *ListQueryBuilder) BuildCount(p *params.QueryParams) string {
	return b.countQuery(b.Plan(p)).String()
}

func (b *ListQueryBuilder) selectQuery(plan *Plan, p *params.QueryParams) *sparql.Select {
	q := &sparql.Select{
		Prologue:   b.prologue(),
		Distinct:   true,
		Projection: plan.Projection,
		Where:      plan.Where,
		Limit:      p.PerPage,
		Offset:     p.Offset(),
	}
	if plan.Order != nil {
		q.OrderBy = []sparql.OrderCondition{*plan.Order}
	}
	return q
}

func (b *ListQueryBuilder) countQuery(plan *Plan) *sparql.Select {
	return &sparql.Select{
		Prologue:   b.prologue(),
		Projection: []string{"(count(DISTINCT " + VarSubject + ") AS " + VarTotal + ")"},
		Where:      plan.Where,
	}
}

// ClassExistsQuery renders an ASK checking that the class is declared in
// the graph.
func (b *ListQueryBuilder) ClassExistsQuery(p *params.QueryParams) string {
	where := &sparql.Block{Graph: sparql.IRI(p.GraphURI)}
	where.Add(sparql.Triple{Subject: sparql.IRI(p.ClassURI), Predicate: "a", Object: sparql.IRI(prefixes.OWL + "Class")})
	return (&sparql.Ask{Where: where}).String()
}
