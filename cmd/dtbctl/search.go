package main

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/pkg/fdt"
)

var (
	searchWhere      string
	searchMaxResults int
	searchPath       string
)

func init() {
	cmd := newSearchCmd()
	cmd.Flags().StringVar(&searchWhere, "where", "", "Filter expression (required)")
	cmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "Limit results (0 = unlimited)")
	cmd.Flags().StringVar(&searchPath, "path", "/", "Search within subtree")
	_ = cmd.MarkFlagRequired("where")
	rootCmd.AddCommand(cmd)
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <blob> --where <expr>",
		Short: "Find nodes matching a filter expression",
		Long: `The search command prints the path of every node for which the
--where expression evaluates to true. The expression sees these fields:

  name        full node name, e.g. "serial@9000000"
  unit_name   name without the unit address
  path        absolute path
  compatible  list of compatible strings
  status      "okay", "disabled" or "fail"
  phandle     phandle, 0 when absent
  depth       0 for the root

Example:
  dtbctl search virt.dtb --where '"arm,pl011" in compatible'
  dtbctl search virt.dtb --where 'status == "disabled"'
  dtbctl search virt.dtb --where 'phandle != 0 && depth == 1'
  dtbctl search virt.dtb --where 'unit_name == "cpu"' --path /cpus`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(args)
		},
	}
	return cmd
}

// searchEnv is the expression environment for one node.
type searchEnv struct {
	Name       string   `expr:"name"`
	UnitName   string   `expr:"unit_name"`
	Path       string   `expr:"path"`
	Compatible []string `expr:"compatible"`
	Status     string   `expr:"status"`
	Phandle    int      `expr:"phandle"`
	Depth      int      `expr:"depth"`
}

func newSearchEnv(n *fdt.Node) searchEnv {
	env := searchEnv{
		Name:       n.Name(),
		UnitName:   n.UnitName(),
		Path:       n.Path(),
		Compatible: n.Compatible(),
		Status:     n.Status().String(),
		Depth:      n.Depth(),
	}
	if env.Compatible == nil {
		env.Compatible = []string{}
	}
	if ph, ok := n.Phandle(); ok {
		env.Phandle = int(ph)
	}
	return env
}

// compileWhere type-checks a filter expression against searchEnv.
func compileWhere(where string) (*vm.Program, error) {
	prg, err := expr.Compile(where, expr.Env(searchEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid --where expression: %w", err)
	}
	return prg, nil
}

var errSearchLimit = errors.New("search limit reached")

func runSearch(args []string) error {
	blobPath := args[0]

	printVerbose("Opening blob: %s\n", blobPath)
	printVerbose("Filter: %s\n", searchWhere)

	prg, err := compileWhere(searchWhere)
	if err != nil {
		return err
	}

	tree, err := loadTree(blobPath)
	if err != nil {
		return fmt.Errorf("failed to parse blob: %w", err)
	}
	start, err := lookupNode(tree, searchPath)
	if err != nil {
		return err
	}

	matches, err := searchNodes(start, prg, searchMaxResults)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(matches)
	}
	for _, path := range matches {
		printInfo("%s\n", path)
	}
	printVerbose("\n%d matching node(s)\n", len(matches))
	return nil
}

// searchNodes evaluates prg on start and its descendants in document order.
func searchNodes(start *fdt.Node, prg *vm.Program, limit int) ([]string, error) {
	matches := []string{}
	var visit func(n *fdt.Node) error
	visit = func(n *fdt.Node) error {
		out, err := expr.Run(prg, newSearchEnv(n))
		if err != nil {
			return fmt.Errorf("evaluate at %s: %w", n.Path(), err)
		}
		if out.(bool) {
			matches = append(matches, n.Path())
			if limit > 0 && len(matches) >= limit {
				return errSearchLimit
			}
		}
		for _, c := range n.Children() {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(start); err != nil && !errors.Is(err, errSearchLimit) {
		return nil, err
	}
	return matches, nil
}
