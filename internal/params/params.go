// Package params parses and validates the query-string contract of the
// collection, schema and instance endpoints.
package params

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
	"github.com/ontogate/ontogate/internal/prefixes"
)

// Sort orders
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Default slot terms. A slot holding both is a no-op.
const (
	DefaultPredicate = "?predicate"
	DefaultObject    = "?object"
)

// DefaultSlot is the index of the unindexed p/o slot
const DefaultSlot = -1

// Slot is one predicate/object filter pair. Index is DefaultSlot for p/o
// and N for pN/oN.
type Slot struct {
	Index     int
	Predicate string
	Object    string
}

// Suffix returns the parameter suffix of the slot ("" for the default slot)
func (s Slot) Suffix() string {
	if s.Index == DefaultSlot {
		return ""
	}
	return strconv.Itoa(s.Index)
}

// Route carries the values taken from the request path
type Route struct {
	ContextName string
	ClassName   string
	InstanceID  string
	BaseURL     string
}

// Defaults are the configured fallbacks for optional parameters
type Defaults struct {
	URIPrefix  string
	Lang       string
	PerPage    int
	MaxPerPage int
}

// QueryParams is the validated parameter bag of one request. Page is 0-based.
type QueryParams struct {
	ContextName string
	ClassName   string
	InstanceID  string

	GraphURI       string
	ClassURI       string
	ClassPrefix    string
	InstancePrefix string
	InstanceURI    string

	Lang             string
	Page             int
	PerPage          int
	SortBy           string
	SortOrder        string
	SortIncludeEmpty bool
	DoItemCount      bool
	Purge            bool
	ExpandURI        bool

	Slots   []Slot
	BaseURL string

	// Raw holds the explicit query-string values, used to rebuild links
	Raw url.Values
}

var (
	slotParam = regexp.MustCompile(`^([po])(\d*)$`)

	known = map[string]bool{
		"class_uri":          true,
		"graph_uri":          true,
		"class_prefix":       true,
		"instance_prefix":    true,
		"instance_uri":       true,
		"lang":               true,
		"page":               true,
		"per_page":           true,
		"sort_by":            true,
		"sort_order":         true,
		"sort_include_empty": true,
		"do_item_count":      true,
		"purge":              true,
		"expand_uri":         true,
	}
)

// Parse validates values against the route and fills in derived defaults.
// Unknown parameters are rejected.
func Parse(values url.Values, route Route, defaults Defaults) (*QueryParams, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	slots := make(map[int]*Slot)
	for _, key := range keys {
		if known[key] {
			continue
		}
		m := slotParam.FindStringSubmatch(key)
		if m == nil {
			return nil, gwerrors.InvalidParam(key, "unsupported parameter")
		}
		idx := DefaultSlot
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, gwerrors.InvalidParam(key, "invalid slot index")
			}
			idx = n
		}
		if _, ok := slots[idx]; !ok {
			slots[idx] = &Slot{Index: idx, Predicate: DefaultPredicate + suffix(idx), Object: DefaultObject + suffix(idx)}
		}
		v := strings.TrimSpace(values.Get(key))
		if v == "" {
			continue
		}
		if m[1] == "p" {
			slots[idx].Predicate = v
		} else {
			slots[idx].Object = v
		}
	}

	p := &QueryParams{
		ContextName:      route.ContextName,
		ClassName:        route.ClassName,
		InstanceID:       route.InstanceID,
		BaseURL:          route.BaseURL,
		Lang:             defaults.Lang,
		PerPage:          defaults.PerPage,
		SortOrder:        SortAsc,
		SortIncludeEmpty: true,
		Raw:              values,
	}

	p.GraphURI = valueOr(values, "graph_uri", defaults.URIPrefix+route.ContextName+"/")
	p.ClassPrefix = valueOr(values, "class_prefix", p.GraphURI)
	p.ClassURI = valueOr(values, "class_uri", p.ClassPrefix+route.ClassName)
	p.InstancePrefix = valueOr(values, "instance_prefix", p.ClassURI+"/")
	p.InstanceURI = valueOr(values, "instance_uri", p.InstancePrefix+route.InstanceID)
	for _, u := range []struct{ param, uri string }{
		{"graph_uri", p.GraphURI},
		{"class_uri", p.ClassURI},
		{"instance_uri", p.InstanceURI},
	} {
		if !prefixes.IsIRI(u.uri) {
			return nil, gwerrors.InvalidParam(u.param, "must be an absolute http(s) IRI")
		}
	}

	if values.Has("lang") {
		p.Lang = values.Get("lang")
	}
	if p.Lang == "undefined" {
		p.Lang = ""
	}

	if values.Has("page") {
		page, err := strconv.Atoi(values.Get("page"))
		if err != nil {
			return nil, gwerrors.InvalidParam("page", "must be an integer")
		}
		if page < 1 {
			return nil, gwerrors.InvalidParam("page", "must be greater than zero")
		}
		p.Page = page - 1
	}

	if values.Has("per_page") {
		perPage, err := strconv.Atoi(values.Get("per_page"))
		if err != nil {
			return nil, gwerrors.InvalidParam("per_page", "must be an integer")
		}
		if perPage < 1 {
			return nil, gwerrors.InvalidParam("per_page", "must be greater than zero")
		}
		p.PerPage = perPage
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	if defaults.MaxPerPage > 0 && p.PerPage > defaults.MaxPerPage {
		p.PerPage = defaults.MaxPerPage
	}
	if p.Page >= math.MaxInt/p.PerPage {
		return nil, gwerrors.InvalidParam("page", "is too large")
	}

	p.SortBy = strings.TrimSpace(values.Get("sort_by"))
	if values.Has("sort_order") {
		order := strings.ToUpper(values.Get("sort_order"))
		if order != SortAsc && order != SortDesc {
			return nil, gwerrors.InvalidParam("sort_order", "must be ASC or DESC")
		}
		p.SortOrder = order
	}

	var err error
	if p.SortIncludeEmpty, err = flag(values, "sort_include_empty", true); err != nil {
		return nil, err
	}
	if p.DoItemCount, err = flag(values, "do_item_count", false); err != nil {
		return nil, err
	}
	if p.Purge, err = flag(values, "purge", false); err != nil {
		return nil, err
	}
	if p.ExpandURI, err = flag(values, "expand_uri", false); err != nil {
		return nil, err
	}

	p.Slots = make([]Slot, 0, len(slots))
	for _, s := range slots {
		p.Slots = append(p.Slots, *s)
	}
	sort.Slice(p.Slots, func(i, j int) bool { return p.Slots[i].Index < p.Slots[j].Index })

	return p, nil
}

// Offset returns the 0-based offset of the first row of the page
func (p *QueryParams) Offset() int {
	return p.Page * p.PerPage
}

// Args encodes the explicit parameters of the request with page replaced by
// the given 1-based page. A page of zero keeps the request's own page.
func (p *QueryParams) Args(page int) string {
	v := url.Values{}
	for key, vals := range p.Raw {
		if key == "purge" {
			continue
		}
		v[key] = append([]string(nil), vals...)
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return v.Encode()
}

// Clone returns a copy safe to modify
func (p *QueryParams) Clone() *QueryParams {
	c := *p
	c.Slots = append([]Slot(nil), p.Slots...)
	return &c
}

// WithSlot returns a copy of p with s appended or replacing the slot of the
// same index.
func (p *QueryParams) WithSlot(s Slot) *QueryParams {
	c := p.Clone()
	for i := range c.Slots {
		if c.Slots[i].Index == s.Index {
			c.Slots[i] = s
			return c
		}
	}
	c.Slots = append(c.Slots, s)
	sort.Slice(c.Slots, func(i, j int) bool { return c.Slots[i].Index < c.Slots[j].Index })
	return c
}

func suffix(idx int) string {
	if idx == DefaultSlot {
		return ""
	}
	return strconv.Itoa(idx)
}

func valueOr(values url.Values, key, fallback string) string {
	if v := values.Get(key); v != "" {
		return v
	}
	return fallback
}

func flag(values url.Values, key string, fallback bool) (bool, error) {
	if !values.Has(key) {
		return fallback, nil
	}
	switch values.Get(key) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, gwerrors.InvalidParam(key, fmt.Sprintf("must be %q or %q", "0", "1"))
	}
}
