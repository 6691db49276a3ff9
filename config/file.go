// Package config loads project settings for locsync.
//
// Values come from three layers, later ones winning: the .locsync.yaml
// project file, LOCSYNC_* environment variables (with an optional .env
// file in the project root), and command-line flags applied by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file name.
const FileName = ".locsync.yaml"

// LangPlaceholder is replaced with the language code in output paths.
const LangPlaceholder = "{lang}"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the .locsync.yaml structure.
type File struct {
	// Source is the source document, relative to the project root.
	Source string `yaml:"source"`
	// Output is the target path pattern containing {lang}.
	Output string `yaml:"output,omitempty"`
	// Languages are the target language codes.
	Languages []string `yaml:"languages,omitempty"`

	BatchSize   int      `yaml:"batch_size,omitempty"`
	MaxAttempts int      `yaml:"max_attempts,omitempty"`
	ExemptKeys  []string `yaml:"exempt_keys,omitempty"`

	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	// Prompt overrides the system prompt.
	Prompt string `yaml:"prompt,omitempty"`

	// Lock enables the locsync.lock checksum ledger.
	Lock bool `yaml:"lock,omitempty"`
	// Prune removes target leaves absent from the source.
	Prune bool `yaml:"prune,omitempty"`
	// Catalog is an optional languages.json restricting valid targets.
	Catalog string `yaml:"catalog,omitempty"`
}

// LoadFile loads and validates .locsync.yaml from rootDir.
// Returns nil if the file does not exist.
func LoadFile(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.BatchSize < 0 {
		return nil, fmt.Errorf("%s: batch_size must be positive, got %d", path, f.BatchSize)
	}
	if f.MaxAttempts < 0 {
		return nil, fmt.Errorf("%s: max_attempts must be positive, got %d", path, f.MaxAttempts)
	}
	if f.Output != "" && !strings.Contains(f.Output, LangPlaceholder) {
		return nil, fmt.Errorf("%s: output %q must contain %s", path, f.Output, LangPlaceholder)
	}
	for i, lang := range f.Languages {
		f.Languages[i] = strings.TrimSpace(lang)
	}

	return &f, nil
}
