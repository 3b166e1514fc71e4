package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteBlob writes data to a file named name inside a per-test temporary
// directory and returns its path.
//
// Example:
//
//	path := testutil.WriteBlob(t, "virt.dtb", fdtgen.QEMUVirt())
//	tree, err := fdt.Open(path)
func WriteBlob(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write blob: %v", err)
	}
	return path
}
