package schema

import (
	"bytes"
	"text/template"

	"github.com/ontogate/ontogate/internal/prefixes"
	"github.com/ontogate/ontogate/internal/sparql"
)

// UniqueValuePredicate flags predicates whose values must be unique
const UniqueValuePredicate = "http://semantica.globo.com/base/tem_valor_unico"

const queryPrologue = `PREFIX rdf: <` + prefixes.RDF + `>
PREFIX rdfs: <` + prefixes.RDFS + `>
PREFIX owl: <` + prefixes.OWL + `>
`

var queryFuncs = template.FuncMap{
	"iri":   sparql.IRI,
	"quote": sparql.Quote,
	"langFilter": func(variable, lang string) string {
		if lang == "" {
			return ""
		}
		return "FILTER(" + string(sparql.LangMatches(variable, lang)) + ")"
	},
}

var classSchemaTmpl = template.Must(template.New("class").Funcs(queryFuncs).Parse(queryPrologue + `SELECT DISTINCT ?title ?comment
FROM {{iri .GraphURI}}
WHERE {
  {{iri .ClassURI}} a owl:Class ;
    rdfs:label ?title .
  {{langFilter "?title" .Lang}}
  OPTIONAL {
    {{iri .ClassURI}} rdfs:comment ?comment .
    {{langFilter "?comment" .Lang}}
  }
}
`))

var superclassesTmpl = template.Must(template.New("superclasses").Funcs(queryFuncs).Parse(queryPrologue + `SELECT DISTINCT ?class ?super
WHERE {
  {{iri .ClassURI}} rdfs:subClassOf* ?class .
  ?class rdfs:subClassOf ?super .
  ?super a owl:Class .
  FILTER(!isBlank(?super))
}
`))

var predicatesTmpl = template.Must(template.New("predicates").Funcs(queryFuncs).Parse(queryPrologue + `SELECT DISTINCT ?predicate ?predicate_graph ?predicate_comment ?type ?range ?title ?range_graph ?range_label ?super_property ?domain_class ?unique_value
WHERE {
  VALUES ?domain_class { {{range .Closure}}{{iri .}} {{end}}}
  {
    GRAPH ?predicate_graph { ?predicate rdfs:domain ?domain_class }
  } UNION {
    GRAPH ?predicate_graph { ?predicate rdfs:domain ?domain_union }
    ?domain_union owl:unionOf ?domain_list .
    ?domain_list rdf:rest*/rdf:first ?domain_class .
  }
  {
    ?predicate rdfs:range ?range .
  } UNION {
    ?predicate rdfs:range ?range_union .
    ?range_union owl:unionOf ?range_list .
    ?range_list rdf:rest*/rdf:first ?range .
  }
  FILTER(!isBlank(?range))
  ?predicate rdfs:label ?title .
  ?predicate rdf:type ?type .
  FILTER(?type IN (owl:ObjectProperty, owl:DatatypeProperty, owl:AnnotationProperty))
  {{langFilter "?title" .Lang}}
  OPTIONAL { ?predicate rdfs:subPropertyOf ?super_property }
  OPTIONAL { ?predicate {{iri .UniqueValue}} ?unique_value }
  OPTIONAL {
    ?predicate rdfs:comment ?predicate_comment .
    {{langFilter "?predicate_comment" .Lang}}
  }
  OPTIONAL {
    GRAPH ?range_graph {
      ?range rdfs:label ?range_label .
      {{langFilter "?range_label" .Lang}}
    }
  }
}
`))

var cardinalitiesTmpl = template.Must(template.New("cardinalities").Funcs(queryFuncs).Parse(queryPrologue + `SELECT DISTINCT ?predicate ?min ?max ?range ?enumerated_value ?enumerated_value_label
WHERE {
  VALUES ?class { {{range .Closure}}{{iri .}} {{end}}}
  ?class rdfs:subClassOf ?restriction .
  ?restriction owl:onProperty ?predicate .
  OPTIONAL { ?restriction owl:minQualifiedCardinality ?min }
  OPTIONAL { ?restriction owl:maxQualifiedCardinality ?max }
  OPTIONAL {
    { ?restriction owl:onClass ?range }
    UNION { ?restriction owl:onDataRange ?range }
    UNION { ?restriction owl:allValuesFrom ?range }
    OPTIONAL {
      ?range owl:oneOf ?enumeration .
      ?enumeration rdf:rest*/rdf:first ?enumerated_value .
      OPTIONAL { ?enumerated_value rdfs:label ?enumerated_value_label }
    }
  }
}
`))

type queryData struct {
	ClassURI    string
	GraphURI    string
	Lang        string
	Closure     []string
	UniqueValue string
}

func render(t *template.Template, data queryData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ClassSchemaQuery selects the title and comment of a class
func ClassSchemaQuery(classURI, graphURI, lang string) (string, error) {
	return render(classSchemaTmpl, queryData{ClassURI: classURI, GraphURI: graphURI, Lang: lang})
}

// SuperclassesQuery selects every direct subClassOf edge reachable from a class
func SuperclassesQuery(classURI string) (string, error) {
	return render(superclassesTmpl, queryData{ClassURI: classURI})
}

// PredicatesQuery selects the predicates whose domain is a member of closure
func PredicatesQuery(closure []string, lang string) (string, error) {
	return render(predicatesTmpl, queryData{Closure: closure, Lang: lang, UniqueValue: UniqueValuePredicate})
}

// CardinalitiesQuery selects the OWL restrictions declared on closure members
func CardinalitiesQuery(closure []string) (string, error) {
	return render(cardinalitiesTmpl, queryData{Closure: closure})
}
