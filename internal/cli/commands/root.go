package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/cli/config"
	"github.com/ontogate/ontogate/internal/cli/ui"
	"github.com/ontogate/ontogate/internal/logging"
	"github.com/ontogate/ontogate/internal/prefixes"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	configPath string
	noColor    bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ontogate",
		Short: "JSON and JSON-Schema gateway over a SPARQL triplestore",
		Long: color.CyanString(`ontogate - semantic data gateway

ontogate serves the classes and instances of an RDF/OWL triplestore as
paginated JSON collections and JSON-Schema documents.

Features:
  • JSON-Schema derived from OWL restrictions
  • Filtered, sorted and paginated collections
  • Stored SPARQL queries
  • Response cache with cross-replica purge`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./ontogate.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewPrefixesCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the ontogate version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			table.AddRow("ontogate version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		ui.WriteError(rootCmd.ErrOrStderr(), ui.OptionsFor(err, noColor))
		return err
	}
	return nil
}

// loadConfig reads the configuration selected by --config
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the logger of cfg
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// expandURI accepts a full URI or a curie with a registered slug. Unknown
// slugs fail with the closest registered ones as suggestions.
func expandURI(registry *prefixes.Registry, flag, value string) (string, error) {
	if prefixes.IsURI(value) {
		return value, nil
	}
	if registry.IsCompressed(value) {
		return registry.Expand(value), nil
	}

	slug, _, found := strings.Cut(value, ":")
	if !found {
		return "", fmt.Errorf("%s must be a URI or a curie, got %q", flag, value)
	}
	slugs := make([]string, 0, len(registry.Map()))
	for s := range registry.Map() {
		slugs = append(slugs, s)
	}
	if similar := ui.FindSimilar(slug, sortedStrings(slugs)); len(similar) > 0 {
		return "", fmt.Errorf("%s: unknown prefix %q (did you mean %s?)", flag, slug, strings.Join(similar, ", "))
	}
	return "", fmt.Errorf("%s: unknown prefix %q", flag, slug)
}
