package langmeta

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is a project language list in the form
//
//	{"languages": [{"code": "de", "name": "German", "nativeName": "Deutsch"}]}
type Catalog struct {
	Path      string         `json:"-"`
	Languages []CatalogEntry `json:"languages"`
}

// CatalogEntry is one catalog language. Only Code is required.
type CatalogEntry struct {
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
	NativeName string `json:"nativeName,omitempty"`
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading language catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing language catalog %s: %w", path, err)
	}
	if len(c.Languages) == 0 {
		return nil, fmt.Errorf("language catalog %s lists no languages", path)
	}
	for i, l := range c.Languages {
		if l.Code == "" {
			return nil, fmt.Errorf("language catalog %s: entry #%d has no code", path, i+1)
		}
	}
	c.Path = path
	return &c, nil
}

// Codes returns the catalog codes in file order.
func (c *Catalog) Codes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

// Contains reports whether the catalog lists lang. Separators and case
// are normalized first, so "pt_br" matches "pt-BR".
func (c *Catalog) Contains(lang string) bool {
	want := canonicalize(lang)
	for _, l := range c.Languages {
		if canonicalize(l.Code) == want {
			return true
		}
	}
	return false
}
