package prefixes

// Mode selects how a Context normalizes URIs
type Mode int

const (
	// Shorten compresses URIs into curies
	Shorten Mode = iota
	// Expand turns curies into full URIs
	Expand
)

// String returns the string representation of Mode
func (m Mode) String() string {
	if m == Expand {
		return "expand"
	}
	return "shorten"
}

// Context is a per-request compressor/expander over a Registry. It remembers
// every prefix it touched so responses can carry an @context, and which
// predicates are object properties so links can be generated.
//
// A Context is owned by a single request and is not safe for concurrent use.
type Context struct {
	registry         *Registry
	keyMode          Mode
	valueMode        Mode
	prefixes         map[string]string
	objectProperties map[string]string
}

// NewContext creates a context normalizing property names with keyMode and
// URI-typed values with valueMode.
func NewContext(registry *Registry, keyMode, valueMode Mode) *Context {
	return &Context{
		registry:         registry,
		keyMode:          keyMode,
		valueMode:        valueMode,
		prefixes:         make(map[string]string),
		objectProperties: make(map[string]string),
	}
}

// Compress shortens uri and records its prefix when compression happened
func (c *Context) Compress(uri string) string {
	short := c.registry.Shorten(uri)
	if short != uri {
		ns := c.registry.ExtractNamespace(uri)
		c.prefixes[c.registry.namespaceToSlug[ns]] = ns
	}
	return short
}

// Expand expands a curie and records its prefix when expansion happened
func (c *Context) Expand(compact string) string {
	slug, local, ok := c.registry.splitCurie(compact)
	if !ok {
		return compact
	}
	ns := c.registry.slugToNamespace[slug]
	c.prefixes[slug] = ns
	return ns + local
}

// NormalizeKey normalizes a property name according to the key mode
func (c *Context) NormalizeKey(uri string) string {
	return c.normalize(uri, c.keyMode)
}

// NormalizeValue normalizes a URI-typed value according to the value mode
func (c *Context) NormalizeValue(uri string) string {
	return c.normalize(uri, c.valueMode)
}

func (c *Context) normalize(uri string, mode Mode) string {
	if mode == Expand {
		return c.Expand(uri)
	}
	return c.Compress(uri)
}

// AddObjectProperty marks predicate as object-typed with the given range.
// The last call for a predicate wins.
func (c *Context) AddObjectProperty(predicate, rangeURI string) {
	c.objectProperties[c.NormalizeKey(predicate)] = c.NormalizeValue(rangeURI)
}

// Prefixes returns a copy of the slug -> namespace pairs used so far
func (c *Context) Prefixes() map[string]string {
	out := make(map[string]string, len(c.prefixes))
	for k, v := range c.prefixes {
		out[k] = v
	}
	return out
}

// ObjectProperties returns a copy of the predicate -> range map
func (c *Context) ObjectProperties() map[string]string {
	out := make(map[string]string, len(c.objectProperties))
	for k, v := range c.objectProperties {
		out[k] = v
	}
	return out
}

// IsObjectProperty reports whether key was registered via AddObjectProperty
func (c *Context) IsObjectProperty(key string) bool {
	_, ok := c.objectProperties[key]
	return ok
}

// JSONLD returns the @context map of a response: the language plus every
// prefix used. A nil language is rendered as JSON null.
func (c *Context) JSONLD(lang string) map[string]interface{} {
	out := make(map[string]interface{}, len(c.prefixes)+1)
	if lang == "" {
		out["@language"] = nil
	} else {
		out["@language"] = lang
	}
	for k, v := range c.prefixes {
		out[k] = v
	}
	return out
}

// Registry returns the registry backing the context
func (c *Context) Registry() *Registry {
	return c.registry
}
