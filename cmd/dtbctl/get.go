package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/pkg/printer"
)

var getShowKind bool

func init() {
	cmd := newGetCmd()
	cmd.Flags().BoolVar(&getShowKind, "kind", false, "Show the decoded property kind")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <blob> <path> <property>",
		Short: "Get a specific property",
		Long: `The get command prints one property of a node with its value fully
decoded.

Example:
  dtbctl get virt.dtb /memory@40000000 reg
  dtbctl get virt.dtb /pl011@9000000 interrupts --kind
  dtbctl get virt.dtb /chosen bootargs --json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
	return cmd
}

func runGet(args []string) error {
	blobPath := args[0]
	nodePath := args[1]
	propName := args[2]

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
	opts.ShowValueKinds = getShowKind
	if err := printer.New(os.Stdout, opts).PrintProperty(node, propName); err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	return nil
}
