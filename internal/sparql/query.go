package sparql

import (
	"fmt"
	"strings"
)

// Pattern is an element of a graph pattern block
type Pattern interface {
	write(b *strings.Builder, indent string)
}

// Triple is a subject/predicate/object pattern of already rendered terms
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

func (t Triple) write(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%s%s %s %s .\n", indent, t.Subject, t.Predicate, t.Object)
}

// Optional wraps patterns in OPTIONAL { ... }
type Optional struct {
	Patterns []Pattern
}

func (o Optional) write(b *strings.Builder, indent string) {
	b.WriteString(indent + "OPTIONAL {\n")
	for _, p := range o.Patterns {
		p.write(b, indent+"  ")
	}
	b.WriteString(indent + "}\n")
}

// Filter is a FILTER(...) constraint
type Filter string

// Equals builds FILTER(left = right)
func Equals(left, right string) Filter {
	return Filter(fmt.Sprintf("%s = %s", left, right))
}

// StrEquals builds FILTER(str(?v) = "value")
func StrEquals(variable, value string) Filter {
	return Filter(fmt.Sprintf("str(%s) = %s", variable, Quote(value)))
}

// LangMatches builds a filter accepting values tagged with lang or untagged
func LangMatches(variable, lang string) Filter {
	return Filter(fmt.Sprintf(`langMatches(lang(%s), %s) OR langMatches(lang(%s), "")`, variable, Quote(lang), variable))
}

func (f Filter) write(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%sFILTER(%s)\n", indent, string(f))
}

// Block is a group graph pattern. When Graph is set the patterns are scoped
// with GRAPH Graph { ... }; filters are rendered after the patterns, outside
// the GRAPH scope.
type Block struct {
	Graph    string
	Patterns []Pattern
	Filters  []Filter
}

// Add appends patterns
func (blk *Block) Add(patterns ...Pattern) *Block {
	blk.Patterns = append(blk.Patterns, patterns...)
	return blk
}

// Filter appends a filter unless an identical one is present
func (blk *Block) Filter(f Filter) *Block {
	for _, existing := range blk.Filters {
		if existing == f {
			return blk
		}
	}
	blk.Filters = append(blk.Filters, f)
	return blk
}

// String renders the block including its braces
func (blk *Block) String() string {
	var b strings.Builder
	blk.write(&b, "")
	return b.String()
}

func (blk *Block) write(b *strings.Builder, indent string) {
	b.WriteString("{\n")
	inner := indent + "  "
	if blk.Graph != "" {
		fmt.Fprintf(b, "%sGRAPH %s {\n", inner, blk.Graph)
		for _, p := range blk.Patterns {
			p.write(b, inner+"  ")
		}
		b.WriteString(inner + "}\n")
	} else {
		for _, p := range blk.Patterns {
			p.write(b, inner)
		}
	}
	for _, f := range blk.Filters {
		f.write(b, inner)
	}
	b.WriteString(indent + "}")
}

// OrderCondition is one ORDER BY key
type OrderCondition struct {
	Variable   string
	Descending bool
}

func (o OrderCondition) String() string {
	if o.Descending {
		return "DESC(" + o.Variable + ")"
	}
	return "ASC(" + o.Variable + ")"
}

// Select is a SELECT query. Limit of zero means no LIMIT/OFFSET clause.
type Select struct {
	Prologue   []string
	Distinct   bool
	Projection []string
	Where      *Block
	OrderBy    []OrderCondition
	Limit      int
	Offset     int
}

// String renders the query text
func (q *Select) String() string {
	var b strings.Builder
	writePrologue(&b, q.Prologue)
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.Projection) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.Projection, " "))
	}
	b.WriteString("\nWHERE ")
	where := q.Where
	if where == nil {
		where = &Block{}
	}
	where.write(&b, "")
	b.WriteString("\n")
	if len(q.OrderBy) > 0 {
		keys := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			keys[i] = o.String()
		}
		fmt.Fprintf(&b, "ORDER BY %s\n", strings.Join(keys, " "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, "LIMIT %d\nOFFSET %d\n", q.Limit, q.Offset)
	}
	return b.String()
}

// Ask is an ASK query
type Ask struct {
	Prologue []string
	Where    *Block
}

// String renders the query text
func (q *Ask) String() string {
	var b strings.Builder
	writePrologue(&b, q.Prologue)
	b.WriteString("ASK ")
	where := q.Where
	if where == nil {
		where = &Block{}
	}
	where.write(&b, "")
	b.WriteString("\n")
	return b.String()
}

func writePrologue(b *strings.Builder, prologue []string) {
	for _, line := range prologue {
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// InferencePrologue is the Virtuoso pragma enabling a rule set for a query
func InferencePrologue(ruleset string) string {
	return fmt.Sprintf("DEFINE input:inference %s", Quote(ruleset))
}
