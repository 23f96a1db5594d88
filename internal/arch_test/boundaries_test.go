package arch_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// libraryHomes names, per third-party module, the only packages that may
// import it.
var libraryHomes = map[string][]string{
	"github.com/cespare/xxhash/v2":           {"cache"},
	"github.com/hashicorp/golang-lru/v2":     {"cache"},
	"github.com/spf13/viper":                 {"config"},
	"github.com/pelletier/go-toml/v2":        {"story"},
	"github.com/fsnotify/fsnotify":           {"story"},
	"modernc.org/sqlite":                     {"store"},
	"github.com/google/uuid":                 {"reader", "store"},
	"github.com/microcosm-cc/bluemonday":     {"transform"},
	"golang.org/x/net/html":                  {"transform", "ui"},
	"github.com/modelcontextprotocol/go-sdk": {"mcpserver"},
	"github.com/charmbracelet/lipgloss":      {"ui", "tui"},
	"github.com/charmbracelet/bubbletea":     {"tui"},
	"github.com/charmbracelet/bubbles":       {"tui"},
}

// pureEngine lists the packages that compute transformations. They work on
// what callers hand them and never open files, sockets or databases.
var pureEngine = []string{"cache", "match", "journey", "analyzer", "bleed", "variant", "transform", "reader"}

var ioImports = []string{"os", "os/exec", "io/fs", "net", "net/http", "database/sql"}

const (
	maxFilesPerPackage = 20
	maxLinesPerFile    = 400
)

func TestThirdPartyLibrariesStayHome(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		for _, imp := range imports(t, pkg) {
			if !strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") || strings.HasPrefix(imp, internalPrefix) {
				continue
			}
			homes, known := homesOf(imp)
			if !known {
				t.Errorf("%s imports %s, which has no entry in libraryHomes", pkg, imp)
				continue
			}
			if !slices.Contains(homes, pkg) {
				t.Errorf("%s imports %s; only %v may", pkg, imp, homes)
			}
		}
	}
}

// homesOf looks up the module entry that prefixes importPath.
func homesOf(importPath string) ([]string, bool) {
	for mod, homes := range libraryHomes {
		if importPath == mod || strings.HasPrefix(importPath, mod+"/") {
			return homes, true
		}
	}
	return nil, false
}

func TestEnginePackagesDoNoIO(t *testing.T) {
	t.Parallel()

	for _, pkg := range pureEngine {
		for _, imp := range imports(t, pkg) {
			if slices.Contains(ioImports, imp) {
				t.Errorf("engine package %s imports %s", pkg, imp)
			}
		}
	}
}

func TestPackageAndFileSize(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		dir := filepath.Join(internalDir(t), pkg)
		if n := len(goFiles(t, dir, false)); n > maxFilesPerPackage {
			t.Errorf("package %s has %d files (limit %d); consider splitting", pkg, n, maxFilesPerPackage)
		}
		for _, path := range goFiles(t, dir, true) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading %s: %v", path, err)
			}
			if n := strings.Count(strings.TrimSuffix(string(data), "\n"), "\n") + 1; n > maxLinesPerFile {
				t.Errorf("%s/%s has %d lines (limit %d)", pkg, filepath.Base(path), n, maxLinesPerFile)
			}
		}
	}
}
