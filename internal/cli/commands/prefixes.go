package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/ontogate/ontogate/internal/app"
	"github.com/ontogate/ontogate/internal/cli/ui"
)

// NewPrefixesCommand creates the prefixes command
func NewPrefixesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prefixes",
		Short: "List the registered URI prefixes",
		Long: `List the slug to namespace table used to compress URIs, including the
entries of api.prefixes_file.

Examples:
  ontogate prefixes
  ontogate prefixes --config prod.yaml`,
		Args: cobra.NoArgs,
		RunE: runPrefixes,
	}
}

func runPrefixes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := app.Registry(cfg.API)
	if err != nil {
		return err
	}

	table := ui.NewTable(cmd.OutOrStdout(), noColor, "PREFIX", "NAMESPACE")
	m := registry.Map()
	slugs := make([]string, 0, len(m))
	for slug := range m {
		slugs = append(slugs, slug)
	}
	for _, slug := range sortedStrings(slugs) {
		table.AddRow(slug, m[slug])
	}
	table.Render()
	return nil
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
