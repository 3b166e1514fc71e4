package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/internal/mmfile"
	"github.com/joshuapare/dtbkit/pkg/fdt"
	"github.com/joshuapare/dtbkit/pkg/printer"
	"github.com/joshuapare/dtbkit/pkg/stream"
)

func init() {
	rootCmd.AddCommand(newScanCmd())
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <blob> <property>",
		Short: "Stream a blob and print every occurrence of a property",
		Long: `The scan command walks the structure block token by token without
building a tree. Values are shown raw since cell sizes are not known
in streaming mode.

Example:
  dtbctl scan virt.dtb compatible
  dtbctl scan virt.dtb reg --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args)
		},
	}
	return cmd
}

// ScanMatch is one property occurrence found by scan.
type ScanMatch struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Hex    string `json:"value"`
	Value  []byte `json:"-"`
}

func runScan(args []string) error {
	blobPath := args[0]
	propName := args[1]

	printVerbose("Scanning blob: %s\n", blobPath)

	blob, cleanup, err := readBlob(blobPath)
	if err != nil {
		return err
	}
	defer cleanup()

	matches, err := scanBlob(blob, propName)
	if err != nil {
		return fmt.Errorf("failed to scan blob: %w", err)
	}

	if jsonOut {
		return printJSON(matches)
	}

	maxBytes := printerOptions().MaxValueBytes
	for _, m := range matches {
		v := printer.FormatValue(fdt.Unknown(m.Value), maxBytes)
		if v == "" {
			printInfo("%s: %s\n", m.Path, propName)
			continue
		}
		printInfo("%s: %s = %s\n", m.Path, propName, v)
	}
	printVerbose("\n%d occurrence(s)\n", len(matches))
	return nil
}

// readBlob maps the file at path, or reads one blob from stdin for "-".
func readBlob(path string) ([]byte, func() error, error) {
	if path == "-" {
		blob, err := fdt.ReadBlob(os.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
		return blob, func() error { return nil }, nil
	}
	blob, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return blob, cleanup, nil
}

// scanBlob streams blob and collects every property called name. Values are
// copied out of the blob.
func scanBlob(blob []byte, name string) ([]ScanMatch, error) {
	tr, err := stream.NewTraverser(blob)
	if err != nil {
		return nil, err
	}

	matches := []ScanMatch{}
	var stack []string
	for {
		ev, err := tr.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case stream.EventBeginNode:
			stack = append(stack, string(ev.Name))
		case stream.EventEndNode:
			stack = stack[:len(stack)-1]
		case stream.EventProp:
			if string(ev.Name) == name {
				matches = append(matches, ScanMatch{
					Path:   nodePath(stack),
					Offset: ev.Offset,
					Hex:    hex.EncodeToString(ev.Value),
					Value:  bytes.Clone(ev.Value),
				})
			}
		case stream.EventEnd:
			return matches, nil
		}
	}
}

func nodePath(stack []string) string {
	if len(stack) <= 1 {
		return fdt.PathSeparator
	}
	return fdt.PathSeparator + strings.Join(stack[1:], fdt.PathSeparator)
}
