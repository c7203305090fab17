package commands

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/ontogate/ontogate/internal/app"
	"github.com/ontogate/ontogate/internal/params"
)

var (
	schemaGraph  string
	schemaLang   string
	schemaExpand bool
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <class>",
		Short: "Resolve the JSON-Schema of a class",
		Long: `Resolve the JSON-Schema of a class against the configured triplestore
and print it as JSON.

Examples:
  ontogate schema upper:City --graph upper:
  ontogate schema http://semantica.globo.com/upper/City --graph upper: --lang pt
  ontogate schema upper:City --graph upper: --expand-uri`,
		Args: cobra.ExactArgs(1),
		RunE: runSchema,
	}

	cmd.Flags().StringVar(&schemaGraph, "graph", "", "Graph URI or curie (required)")
	cmd.Flags().StringVar(&schemaLang, "lang", "", "Language of titles")
	cmd.Flags().BoolVar(&schemaExpand, "expand-uri", false, "Keep full URIs instead of curies")
	cmd.MarkFlagRequired("graph")

	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	e, err := app.NewEngine(cfg, logger)
	if err != nil {
		return err
	}
	classURI, err := expandURI(e.Registry(), "class", args[0])
	if err != nil {
		return err
	}
	graphURI, err := expandURI(e.Registry(), "--graph", schemaGraph)
	if err != nil {
		return err
	}

	values := url.Values{"class_uri": {classURI}, "graph_uri": {graphURI}}
	if cmd.Flags().Changed("lang") {
		values.Set("lang", schemaLang)
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

	ctx := cmd.Context()
	if cfg.Triplestore.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Triplestore.Timeout)
		defer cancel()
	}

	doc, err := e.ResolveSchema(ctx, p, e.NewContext(schemaExpand))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
