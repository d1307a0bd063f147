package sheet

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/shipsort/internal/core"
)

// Format parses one file type into a table.
type Format struct {
	Name string
	Read func(r io.Reader) (*core.Table, error)
}

var (
	registry   = make(map[string]Format)
	registryMu sync.RWMutex
)

// Register adds a format for the given extensions (with leading dot).
// Panics if an extension is already registered.
func Register(f Format, exts ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if _, exists := registry[ext]; exists {
			panic(fmt.Sprintf("format already registered for %s", ext))
		}
		registry[ext] = f
	}
}

// Lookup returns the format for a file name by its extension.
func Lookup(name string) (Format, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func init() {
	Register(Format{Name: "Excel workbook", Read: readXLSX}, ".xlsx", ".xlsm")
	Register(Format{Name: "Excel 97-2003 workbook", Read: readXLS}, ".xls")
	Register(Format{Name: "CSV", Read: readCSV}, ".csv")
}

// Reader implements core.TableReader over the registered formats.
type Reader struct{}

// ReadTable picks a format by the file name's extension and parses r.
// Parse failures wrap core.ErrUnreadableFile.
func (Reader) ReadTable(name string, r io.Reader) (*core.Table, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (accepted: %s)", core.ErrUnsupportedFormat,
			filepath.Ext(name), strings.Join(Extensions(), ", "))
	}
	return f.Read(r)
}
