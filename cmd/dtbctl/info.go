package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dtbkit/pkg/fdt"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <blob>",
		Short: "Validate a blob and report header metadata",
		Long: `The info command parses a device tree blob and displays its header
fields, node and property counts, and memory reservations.

Example:
  dtbctl info virt.dtb
  dtbctl info virt.dtb --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type reservationInfo struct {
	Address string `json:"address"`
	Size    string `json:"size"`
}

type blobInfo struct {
	File            string            `json:"file"`
	Model           string            `json:"model,omitempty"`
	TotalSize       uint32            `json:"total_size"`
	Version         uint32            `json:"version"`
	LastCompVersion uint32            `json:"last_comp_version"`
	BootCPU         uint32            `json:"boot_cpu"`
	StructSize      uint32            `json:"struct_size"`
	StringsSize     uint32            `json:"strings_size"`
	Nodes           int               `json:"nodes"`
	Properties      int               `json:"properties"`
	Phandles        int               `json:"phandles"`
	Reservations    []reservationInfo `json:"reservations"`
}

func runInfo(args []string) error {
	blobPath := args[0]

	printVerbose("Opening blob: %s\n", blobPath)

	tree, err := loadTree(blobPath)
	if err != nil {
		return fmt.Errorf("failed to parse blob: %w", err)
	}

	info := collectInfo(blobPath, tree)

	// Output as JSON if requested
	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nDevice Tree Information:\n")
	printInfo("  File: %s\n", info.File)
	if info.Model != "" {
		printInfo("  Model: %s\n", info.Model)
	}
	printInfo("  Size: %d bytes\n", info.TotalSize)
	printInfo("  Version: %d (compatible with %d)\n", info.Version, info.LastCompVersion)
	printInfo("  Boot CPU: %d\n", info.BootCPU)
	printInfo("  Structure block: %d bytes\n", info.StructSize)
	printInfo("  Strings block: %d bytes\n", info.StringsSize)
	printInfo("  Nodes: %d\n", info.Nodes)
	printInfo("  Properties: %d\n", info.Properties)
	printInfo("  Phandles: %d\n", info.Phandles)

	printInfo("\nMemory Reservations: %d\n", len(info.Reservations))
	for _, r := range info.Reservations {
		printInfo("  %s size %s\n", r.Address, r.Size)
	}

	return nil
}

func collectInfo(path string, tree *fdt.Tree) blobInfo {
	h := tree.Header
	info := blobInfo{
		File:            path,
		TotalSize:       h.TotalSize,
		Version:         h.Version,
		LastCompVersion: h.LastCompVersion,
		BootCPU:         h.BootCPUPhys,
		StructSize:      h.StructSize,
		StringsSize:     h.StringsSize,
		Nodes:           tree.Len(),
		Reservations:    make([]reservationInfo, 0, len(tree.Reservations)),
	}
	if model, ok := tree.Root().Property("model").(fdt.String); ok {
		info.Model = string(model)
	}
	_ = tree.Walk(func(n *fdt.Node) error {
		info.Properties += len(n.Properties())
		if _, ok := n.Phandle(); ok {
			info.Phandles++
		}
		return nil
	})
	for _, r := range tree.Reservations {
		info.Reservations = append(info.Reservations, reservationInfo{
			Address: fmt.Sprintf("%#x", r.Address),
			Size:    fmt.Sprintf("%#x", r.Size),
		})
	}
	return info
}
