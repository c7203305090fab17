package schema

import (
	"reflect"

	"github.com/ontogate/ontogate/internal/datatype"
	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// OWL property types
const (
	OWLObjectProperty     = prefixes.OWL + "ObjectProperty"
	OWLDatatypeProperty   = prefixes.OWL + "DatatypeProperty"
	OWLAnnotationProperty = prefixes.OWL + "AnnotationProperty"
)

type predicateRow struct {
	predicate     string
	title         string
	graph         string
	comment       string
	hasComment    bool
	typ           string
	rangeURI      string
	rangeGraph    string
	rangeLabel    string
	superProperty string
	domainClass   string
	uniqueValue   bool
}

func parsePredicateRow(b sparql.Binding) predicateRow {
	uv := b.Value("unique_value")
	return predicateRow{
		predicate:     b.Value("predicate"),
		title:         b.Value("title"),
		graph:         b.Value("predicate_graph"),
		comment:       b.Value("predicate_comment"),
		hasComment:    b.Has("predicate_comment"),
		typ:           b.Value("type"),
		rangeURI:      b.Value("range"),
		rangeGraph:    b.Value("range_graph"),
		rangeLabel:    b.Value("range_label"),
		superProperty: b.Value("super_property"),
		domainClass:   b.Value("domain_class"),
		uniqueValue:   uv == "1" || uv == "true",
	}
}

// signature identifies a declaration regardless of which super-property the
// row was fanned out over.
func (r predicateRow) signature() predicateRow {
	r.superProperty = ""
	return r
}

// DeclaredRanges returns the first declared range of every predicate in rows
func DeclaredRanges(rows []sparql.Binding) map[string]string {
	out := make(map[string]string)
	for _, b := range rows {
		p, r := b.Value("predicate"), b.Value("range")
		if p == "" || r == "" {
			continue
		}
		if _, ok := out[p]; !ok {
			out[p] = r
		}
	}
	return out
}

// suppressedSuperProperties returns every predicate B for which some A
// declares subPropertyOf B with a range that B declares too.
func suppressedSuperProperties(rows []predicateRow) map[string]bool {
	ranges := make(map[string]map[string]bool)
	for _, r := range rows {
		if ranges[r.predicate] == nil {
			ranges[r.predicate] = make(map[string]bool)
		}
		ranges[r.predicate][r.rangeURI] = true
	}
	out := make(map[string]bool)
	for _, r := range rows {
		if r.superProperty == "" || r.superProperty == r.predicate {
			continue
		}
		if ranges[r.superProperty][r.rangeURI] {
			out[r.superProperty] = true
		}
	}
	return out
}

// ResolvePredicates turns predicate rows into the properties of a class
// schema. closure orders the class and its superclasses from most to least
// specialized. Object properties are registered on uctx and keys are
// normalized through it.
func ResolvePredicates(bindings []sparql.Binding, card Cardinalities, closure []string, uctx *prefixes.Context) (map[string]*PredicateDescriptor, error) {
	rows := make([]predicateRow, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, parsePredicateRow(b))
	}
	suppressed := suppressedSuperProperties(rows)

	assembled := make(map[string]*PredicateDescriptor)
	order := make([]string, 0)
	seen := make(map[predicateRow]map[string]bool)

	for _, row := range rows {
		if suppressed[row.predicate] {
			continue
		}
		sig := row.signature()
		if supers, ok := seen[sig]; ok && !supers[row.superProperty] {
			supers[row.superProperty] = true
			continue
		}
		if seen[sig] == nil {
			seen[sig] = map[string]bool{row.superProperty: true}
		}

		d, err := assemblePredicate(row, card, uctx)
		if err != nil {
			return nil, err
		}

		existing, ok := assembled[row.predicate]
		switch {
		case !ok:
			assembled[row.predicate] = d
			order = append(order, row.predicate)
		case existing.Kind == DatatypeProperty && d.Kind == DatatypeProperty && existing.Class != d.Class:
			assembled[row.predicate] = mostSpecialized(closure, existing, d)
		case reflect.DeepEqual(existing, d):
			return nil, gwerrors.InvalidSchemaData("the property %s seems to be duplicated in class %s", row.predicate, d.Class)
		default:
			assembled[row.predicate] = joinPredicates(existing, d)
		}

		if row.uniqueValue {
			assembled[row.predicate].UniqueValue = true
		}
	}

	out := make(map[string]*PredicateDescriptor, len(assembled))
	for _, uri := range order {
		out[uctx.NormalizeKey(uri)] = assembled[uri]
	}
	return out, nil
}

func assemblePredicate(row predicateRow, card Cardinalities, uctx *prefixes.Context) (*PredicateDescriptor, error) {
	d := &PredicateDescriptor{
		Class: row.domainClass,
		Graph: row.graph,
		Title: row.title,
	}
	if row.hasComment {
		d.Description = row.comment
	}
	c := card.Get(row.predicate, row.rangeURI)

	switch row.typ {
	case OWLObjectProperty:
		d.Kind = ObjectProperty
		uctx.AddObjectProperty(row.predicate, row.rangeURI)
		rng := SingleRange(RangeDescriptor{
			ID:     row.rangeURI,
			Graph:  row.rangeGraph,
			Title:  row.rangeLabel,
			Type:   datatype.TypeString,
			Format: "uri",
		})
		d.Range = &rng
		if c.Multiple() || c.Unbounded() {
			d.Type = datatype.TypeArray
			d.Items = &Items{Type: datatype.TypeString, Format: "uri"}
		} else {
			d.Type = datatype.TypeString
			d.Format = "uri"
		}
	case OWLDatatypeProperty:
		d.Kind = DatatypeProperty
		d.Datatype = row.rangeURI
		m := datatype.Lookup(row.rangeURI)
		if c.Multiple() {
			d.Type = datatype.TypeArray
			d.Items = &Items{Type: m.Type, Format: m.Format}
		} else {
			d.Type = m.Type
			d.Format = m.Format
		}
	default:
		return nil, gwerrors.InvalidSchemaData("predicates of type %s are not supported yet (%s)", row.typ, row.predicate)
	}

	if c != nil {
		if d.Type == datatype.TypeArray {
			d.MinItems = c.MinItems
			d.MaxItems = c.MaxItems
		}
		d.Required = c.Required
		d.Enum = c.Enum
	}
	return d, nil
}

func mostSpecialized(closure []string, a, b *PredicateDescriptor) *PredicateDescriptor {
	if closureIndex(closure, b.Class) < closureIndex(closure, a.Class) {
		return b
	}
	return a
}

func closureIndex(closure []string, class string) int {
	for i, c := range closure {
		if c == class {
			return i
		}
	}
	return len(closure)
}

// normalizedRange returns the range of d, deriving one from its type and
// format when d has none.
func normalizedRange(d *PredicateDescriptor) Range {
	if d.Range != nil {
		return *d.Range
	}
	if d.Items != nil {
		return SingleRange(RangeDescriptor{Type: d.Items.Type, Format: d.Items.Format})
	}
	return SingleRange(RangeDescriptor{Type: d.Type, Format: d.Format})
}

// joinPredicates merges two declarations of the same predicate. Ranges are
// united, and type and format keep their common value or degrade to "".
func joinPredicates(old, d *PredicateDescriptor) *PredicateDescriptor {
	merged := *old
	rng := normalizedRange(old).Join(normalizedRange(d))
	merged.Range = &rng
	if old.Datatype != d.Datatype {
		merged.Datatype = ""
	}

	descs := rng.Descriptors()
	typ := commonValue(descs, func(r RangeDescriptor) string { return r.Type })
	format := commonValue(descs, func(r RangeDescriptor) string { return r.Format })

	if old.Type == datatype.TypeArray || d.Type == datatype.TypeArray {
		merged.Type = datatype.TypeArray
		merged.Format = ""
		merged.Items = &Items{Type: typ, Format: format}
		if merged.MinItems == nil {
			merged.MinItems = d.MinItems
		}
		if merged.MaxItems == nil {
			merged.MaxItems = d.MaxItems
		}
	} else {
		merged.Type = typ
		merged.Format = format
		merged.Items = nil
	}
	merged.Required = old.Required || d.Required
	return &merged
}

func commonValue(descs []RangeDescriptor, field func(RangeDescriptor) string) string {
	if len(descs) == 0 {
		return ""
	}
	first := field(descs[0])
	for _, d := range descs[1:] {
		if field(d) != first {
			return ""
		}
	}
	return first
}
