package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/pkg/fdt"
	"github.com/joshuapare/dtbkit/pkg/printer"
)

var (
	diffPath string
	diffAll  bool
)

func init() {
	cmd := newDiffCmd()
	cmd.Flags().StringVar(&diffPath, "path", "/", "Compare only a specific subtree")
	cmd.Flags().BoolVar(&diffAll, "all", false, "Print unchanged lines as well")
	rootCmd.AddCommand(cmd)
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <blob1> <blob2>",
		Short: "Compare two blobs and show differences",
		Long: `The diff command renders both trees as text and prints a line diff.
Removed lines are prefixed with "-", added lines with "+".

Example:
  dtbctl diff before.dtb after.dtb
  dtbctl diff before.dtb after.dtb --path /cpus
  dtbctl diff before.dtb after.dtb --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args)
		},
	}
	return cmd
}

// DiffLine is one line of diff output.
type DiffLine struct {
	Op   string `json:"op"` // "equal", "insert", "delete"
	Text string `json:"text"`
}

func runDiff(args []string) error {
	blob1Path := args[0]
	blob2Path := args[1]

	printVerbose("Comparing %s and %s...\n", blob1Path, blob2Path)

	text1, err := renderForDiff(blob1Path)
	if err != nil {
		return err
	}
	text2, err := renderForDiff(blob2Path)
	if err != nil {
		return err
	}

	lines := diffLines(text1, text2)

	changed := 0
	for _, l := range lines {
		if l.Op != "equal" {
			changed++
		}
	}

	if jsonOut {
		return printJSON(lines)
	}

	if changed == 0 {
		printInfo("No differences found\n")
		return nil
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	for _, c := range []*color.Color{added, removed} {
		if useColor() {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	printInfo("--- %s\n+++ %s\n", blob1Path, blob2Path)
	for _, l := range lines {
		switch l.Op {
		case "insert":
			printInfo("%s\n", added.Sprint("+ "+l.Text))
		case "delete":
			printInfo("%s\n", removed.Sprint("- "+l.Text))
		default:
			if diffAll {
				printInfo("  %s\n", l.Text)
			}
		}
	}
	printVerbose("\n%d line(s) changed\n", changed)
	return nil
}

// renderForDiff parses a blob and renders the selected subtree as
// uncolored, untruncated text.
func renderForDiff(path string) (string, error) {
	tree, err := loadTree(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	node, err := lookupNode(tree, diffPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return renderText(node)
}

func renderText(n *fdt.Node) (string, error) {
	var sb strings.Builder
	opts := printer.DefaultOptions()
	opts.MaxValueBytes = 0
	if err := printer.New(&sb, opts).PrintTree(n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// diffLines computes a line-oriented diff of a and b.
func diffLines(a, b string) []DiffLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var out []DiffLine
	for _, d := range diffs {
		op := "equal"
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "insert"
		case diffmatchpatch.DiffDelete:
			op = "delete"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, DiffLine{Op: op, Text: line})
		}
	}
	return out
}
