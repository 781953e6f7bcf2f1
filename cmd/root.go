package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/KaramelBytes/studash/internal/catalog"
	cfgpkg "github.com/KaramelBytes/studash/internal/config"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagData    string
	flagCatalog string
	noColor     bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// Datasets loaded during this process, keyed by path and read options.
	datasetsMu sync.Mutex
	datasets   = map[string]*dataset.Cache{}
)

var rootCmd = &cobra.Command{
	Use:   "studash",
	Short: "Student performance dashboard: filter and aggregate enrollment records",
	Long: `studash loads a student-enrollment dataset (CSV, XLSX or SQLite), narrows it with a
selection of status, gender, course and an optional expression, and reports counts,
grouped means and correlations over the selected records.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.studash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset path: .csv/.tsv, .xlsx or .db/.sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "YAML course catalog (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("data") && flagData != "" {
		cfg.DataPath = flagData
	}
	if f.Changed("catalog") {
		cfg.CatalogFile = flagCatalog
	}
	if noColor || !cfg.Color {
		color.NoColor = true
	}
}

func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

// readOptions maps the configured source settings onto dataset options.
func readOptions(c *cfgpkg.Global) (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	switch strings.ToLower(c.Delimiter) {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported delimiter: %q (use ','|';'|'tab')", c.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(c.DecimalSeparator)) {
	case "":
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case ",", "comma":
		opt.DecimalSeparator = ','
	default:
		return opt, fmt.Errorf("unsupported decimal_separator: %q (use '.'|'comma')", c.DecimalSeparator)
	}
	opt.SheetName = c.SheetName
	if c.SheetIndex > 0 {
		opt.SheetIndex = c.SheetIndex
	}
	if c.SQLiteTable != "" {
		opt.Table = c.SQLiteTable
	}
	return opt, nil
}

// loadDataset returns the configured dataset, reading it at most once per
// process for a given path and set of options.
func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	c := settings()
	opt, err := readOptions(c)
	if err != nil {
		return nil, err
	}
	if c.DataPath == "" {
		return nil, fmt.Errorf("no dataset configured (use --data or 'studash config set data_path <file>')")
	}
	key := fmt.Sprintf("%s|%+v", c.DataPath, opt)
	datasetsMu.Lock()
	cache, ok := datasets[key]
	if !ok {
		path := c.DataPath
		cache = dataset.NewCache(func() (*dataset.Dataset, error) {
			return dataset.Load(ctx, path, opt)
		})
		datasets[key] = cache
	}
	datasetsMu.Unlock()

	ds, err := cache.Get()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.DataPath, err)
	}
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] loaded %s: %d records, %d columns\n", ds.Name, ds.Len(), len(ds.Header))
	}
	return ds, nil
}

// loadCatalog returns the configured course catalog or the built-in one.
func loadCatalog() (*catalog.Catalog, error) {
	c := settings()
	if c.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(c.CatalogFile)
	if err != nil {
		return nil, err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] catalog %s: %d courses\n", c.CatalogFile, cat.Len())
	}
	return cat, nil
}
