package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/pkg/printer"
)

var (
	dumpFormat   string
	dumpDepth    int
	dumpNoValues bool
	dumpKinds    bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpFormat, "format", "", "Output format (text, json, yaml)")
	cmd.Flags().IntVar(&dumpDepth, "depth", 0, "Maximum depth (0 = unlimited)")
	cmd.Flags().BoolVar(&dumpNoValues, "no-values", false, "Show property names only")
	cmd.Flags().BoolVar(&dumpKinds, "kinds", false, "Show decoded property kinds")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <blob> [path]",
		Short: "Human-readable dump of a device tree",
		Long: `The dump command prints a node and its descendants with every
property decoded. Without a path the whole tree is printed.

Example:
  dtbctl dump virt.dtb
  dtbctl dump virt.dtb /cpus --depth 1
  dtbctl dump virt.dtb --format yaml
  dtbctl dump virt.dtb /chosen --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

func runDump(args []string) error {
	blobPath := args[0]
	nodePath := "/"
	if len(args) > 1 {
		nodePath = args[1]
	}

	printVerbose("Opening blob: %s\n", blobPath)

	tree, err := loadTree(blobPath)
	if err != nil {
		return fmt.Errorf("failed to parse blob: %w", err)
	}
	node, err := lookupNode(tree, nodePath)
	if err != nil {
		return err
	}

	opts := printerOptions()
	if dumpFormat != "" && !jsonOut {
		if opts.Format, err = printer.ParseFormat(dumpFormat); err != nil {
			return err
		}
	}
	opts.MaxDepth = dumpDepth
	opts.ShowValues = !dumpNoValues
	opts.ShowValueKinds = dumpKinds

	return printer.New(os.Stdout, opts).PrintTree(node)
}
