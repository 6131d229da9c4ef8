package internal_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The scan engine must stay UI-free: a completed scan is pure data until the
// TUI decides how to present it.
func TestEnginePackagesDoNotImportUI(t *testing.T) {
	enginePackages := []string{"scan", "reconcile", "waypoint", "config", "game"}

	forbiddenPrefixes := []string{
		"claimpoints/internal/tui",
		"github.com/rivo/tview",
		"github.com/gdamore/tcell",
	}

	for _, pkg := range enginePackages {
		checkImports(t, pkg, forbiddenPrefixes)
	}
}

// The diff engine never touches the store; it must not even see it beyond
// the waypoint data types.
func TestReconcileDoesNotImportStorageOrTransport(t *testing.T) {
	checkImports(t, "reconcile", []string{
		"database/sql",
		"modernc.org/sqlite",
		"claimpoints/internal/bridge",
		"claimpoints/internal/streaming",
		"claimpoints/internal/game",
	})
}

// Pattern matching and session mechanics stand alone under the manager.
func TestScanImportsOnlyItsInputs(t *testing.T) {
	checkImports(t, "scan", []string{
		"claimpoints/internal/bridge",
		"claimpoints/internal/game",
		"claimpoints/internal/reconcile",
		"claimpoints/internal/streaming",
		"claimpoints/internal/waypoint/", // types only, no subpackages
	})
}

func checkImports(t *testing.T, pkg string, forbiddenPrefixes []string) {
	t.Helper()

	dir := pkg
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("failed to parse %s: %v", path, err)
			return nil
		}

		for _, imp := range file.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			for _, forbidden := range forbiddenPrefixes {
				if strings.HasPrefix(importPath, forbidden) {
					t.Errorf("%s imports %s, which the %s package must not depend on",
						path, importPath, pkg)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", dir, err)
	}
}
