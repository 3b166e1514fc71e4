package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/internal/logger"
	"github.com/joshuapare/dtbkit/pkg/fdt"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string
	logLevel   string
	logFile    string

	cfg      = Config{}
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "dtbctl",
	Short: "Inspect flattened device tree blobs",
	Long: `dtbctl decodes flattened device tree (.dtb) blobs and lets you inspect
their nodes and properties. Cell-dependent properties such as reg, ranges,
interrupts and clocks are shown fully resolved.

A blob argument of "-" reads the blob from standard input.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeLog() },
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default $HOME/.dtbctl.yaml)")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Enable logging at level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append JSON logs to file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file and initializes logging. Flags set on the
// command line win over config file values.
func setup(cmd *cobra.Command, args []string) error {
	path, required := configPath, true
	if path == "" {
		path, required = defaultConfigPath(), false
	}
	loaded, err := loadConfig(path, required)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		logLevel = cfg.LogLevel
	}
	if !flags.Changed("log-file") && cfg.LogFile != "" {
		logFile = cfg.LogFile
	}

	opts := logger.Options{Enabled: logLevel != "" || logFile != "", File: logFile}
	if logLevel != "" {
		if opts.Level, err = logger.ParseLevel(logLevel); err != nil {
			return err
		}
	}
	closeFn, err := logger.Init(opts)
	if err != nil {
		return err
	}
	closeLog = closeFn
	logger.Debug("config loaded", "path", path, "found", cfg.found)
	return nil
}

// useColor reports whether text output should be colored.
func useColor() bool {
	if noColor || jsonOut {
		return false
	}
	if cfg.Color != nil {
		return *cfg.Color
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// loadTree parses the blob at path, or from stdin when path is "-".
func loadTree(path string) (*fdt.Tree, error) {
	opts := fdt.Options{Logger: logger.L}
	if path != "-" {
		return fdt.OpenWithOptions(path, opts)
	}
	blob, err := fdt.ReadBlob(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return fdt.ParseWithOptions(blob, opts)
}

// lookupNode resolves an absolute node path.
func lookupNode(tree *fdt.Tree, path string) (*fdt.Node, error) {
	n := tree.Lookup(path)
	if n == nil {
		return nil, fmt.Errorf("node not found: %s", path)
	}
	return n, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
