package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var validateJobs int

func init() {
	cmd := newValidateCmd()
	cmd.Flags().IntVar(&validateJobs, "jobs", runtime.GOMAXPROCS(0), "Number of blobs parsed in parallel")
	rootCmd.AddCommand(cmd)
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <blob>...",
		Short: "Check that blobs decode cleanly",
		Long: `The validate command fully decodes each blob, including every
cell-dependent property, and reports the first error found in each.
The command fails if any blob is invalid.

Example:
  dtbctl validate virt.dtb
  dtbctl validate boards/*.dtb --jobs 4
  dtbctl validate boards/*.dtb --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	return cmd
}

type validateResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Nodes int    `json:"nodes,omitempty"`
	Error string `json:"error,omitempty"`
}

func runValidate(args []string) error {
	results := validateBlobs(args, validateJobs)

	failed := 0
	for _, r := range results {
		if !r.Valid {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				printInfo("✓ %s (%d nodes)\n", r.File, r.Nodes)
			} else {
				printInfo("✗ %s: %s\n", r.File, r.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d blob(s) failed validation", failed, len(results))
	}
	return nil
}

// validateBlobs parses every path concurrently. Results keep argument order.
func validateBlobs(paths []string, jobs int) []validateResult {
	results := make([]validateResult, len(paths))

	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			printVerbose("Validating blob: %s\n", path)
			tree, err := loadTree(path)
			if err != nil {
				results[i] = validateResult{File: path, Error: err.Error()}
				return nil
			}
			results[i] = validateResult{File: path, Valid: true, Nodes: tree.Len()}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
