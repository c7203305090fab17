package commands

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/app"
	"github.com/ontogate/ontogate/internal/params"
)

var (
	queryClass            string
	queryGraph            string
	queryLang             string
	queryPage             int
	queryPerPage          int
	querySortBy           string
	querySortOrder        string
	querySortIncludeEmpty bool
	queryPredicate        string
	queryObject           string
	queryParams           []string
	queryCount            bool
)

// NewQueryCommand creates the query command
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Render the SPARQL sent for a request",
	}
	cmd.AddCommand(newQueryListCommand())
	return cmd
}

func newQueryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the listing query of a class",
		Long: `Print the SPARQL query a collection request would send, without
contacting the triplestore. Class and graph accept full URIs or curies.

Examples:
  ontogate query list --class upper:City --graph http://semantica.globo.com/upper/
  ontogate query list --class upper:City --graph upper: --sort-by rdfs:label --sort-order desc
  ontogate query list --class upper:City --graph upper: --p upper:country --o upper:Brazil --count
  ontogate query list --class upper:City --graph upper: --param p1=upper:state --param o1=?state`,
		Args: cobra.NoArgs,
		RunE: runQueryList,
	}

	cmd.Flags().StringVar(&queryClass, "class", "", "Class URI or curie (required)")
	cmd.Flags().StringVar(&queryGraph, "graph", "", "Graph URI or curie (required)")
	cmd.Flags().StringVar(&queryLang, "lang", "", "Language of labels")
	cmd.Flags().IntVar(&queryPage, "page", 1, "1-based page")
	cmd.Flags().IntVar(&queryPerPage, "per-page", 10, "Items per page")
	cmd.Flags().StringVar(&querySortBy, "sort-by", "", "Predicate to sort by")
	cmd.Flags().StringVar(&querySortOrder, "sort-order", params.SortAsc, "asc or desc")
	cmd.Flags().BoolVar(&querySortIncludeEmpty, "sort-include-empty", true, "Keep instances without the sort predicate")
	cmd.Flags().StringVar(&queryPredicate, "p", "", "Predicate filter")
	cmd.Flags().StringVar(&queryObject, "o", "", "Object filter")
	cmd.Flags().StringArrayVar(&queryParams, "param", nil, "Extra request parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&queryCount, "count", false, "Also print the count query")
	cmd.MarkFlagRequired("class")
	cmd.MarkFlagRequired("graph")

	return cmd
}

func runQueryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := app.NewEngine(cfg, zap.NewNop())
	if err != nil {
		return err
	}

	classURI, err := expandURI(e.Registry(), "--class", queryClass)
	if err != nil {
		return err
	}
	graphURI, err := expandURI(e.Registry(), "--graph", queryGraph)
	if err != nil {
		return err
	}

	values := url.Values{}
	values.Set("class_uri", classURI)
	values.Set("graph_uri", graphURI)
	values.Set("page", strconv.Itoa(queryPage))
	values.Set("per_page", strconv.Itoa(queryPerPage))
	values.Set("sort_order", querySortOrder)
	values.Set("sort_include_empty", boolParam(querySortIncludeEmpty))
	if cmd.Flags().Changed("lang") {
		values.Set("lang", queryLang)
	}
	if querySortBy != "" {
		values.Set("sort_by", querySortBy)
	}
	if queryPredicate != "" {
		values.Set("p", queryPredicate)
	}
	if queryObject != "" {
		values.Set("o", queryObject)
	}
	for _, kv := range queryParams {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("--param must be key=value, got %q", kv)
		}
		values.Add(key, value)
	}

	p, err := params.Parse(values, params.Route{}, params.Defaults{
		URIPrefix:  cfg.API.URIPrefix,
		Lang:       cfg.API.DefaultLang,
		PerPage:    cfg.API.DefaultPerPage,
		MaxPerPage: cfg.API.MaxPerPage,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, e.BuildListQuery(p))
	if queryCount {
		fmt.Fprintln(out, e.BuildCountQuery(p))
	}
	return nil
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
