package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/locsync/lockfile"
)

// Defaults applied when no layer sets a value.
const (
	DefaultProvider    = "openai"
	DefaultBatchSize   = 20
	DefaultMaxAttempts = 3
)

// Config is the merged project configuration.
type Config struct {
	// Root is the project root; relative paths resolve against it.
	Root string

	Source    string
	Output    string
	Languages []string

	BatchSize   int
	MaxAttempts int
	ExemptKeys  []string

	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Proxy    string
	Prompt   string

	Lock    bool
	Prune   bool
	Catalog string
}

// Load reads .locsync.yaml and the environment for rootDir and merges
// them over the defaults.
func Load(rootDir string) (*Config, error) {
	f, err := LoadFile(rootDir)
	if err != nil {
		return nil, err
	}
	e, err := LoadEnv(rootDir)
	if err != nil {
		return nil, err
	}
	return Merge(rootDir, f, e), nil
}

// Merge layers env over file over defaults. A nil file is allowed.
func Merge(rootDir string, f *File, e Env) *Config {
	c := &Config{
		Root:        rootDir,
		Provider:    DefaultProvider,
		BatchSize:   DefaultBatchSize,
		MaxAttempts: DefaultMaxAttempts,
	}

	if f != nil {
		c.Source = f.Source
		c.Output = f.Output
		c.Languages = append([]string(nil), f.Languages...)
		if f.BatchSize > 0 {
			c.BatchSize = f.BatchSize
		}
		if f.MaxAttempts > 0 {
			c.MaxAttempts = f.MaxAttempts
		}
		c.ExemptKeys = f.ExemptKeys
		setIf(&c.Provider, f.Provider)
		c.Model = f.Model
		c.BaseURL = f.BaseURL
		c.Prompt = f.Prompt
		c.Lock = f.Lock
		c.Prune = f.Prune
		c.Catalog = f.Catalog
	}

	setIf(&c.Provider, e.Provider)
	setIf(&c.Model, e.Model)
	setIf(&c.APIKey, e.APIKey)
	setIf(&c.BaseURL, e.BaseURL)
	setIf(&c.Proxy, e.Proxy)
	if e.BatchSize > 0 {
		c.BatchSize = e.BatchSize
	}
	return c
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SourcePath returns the source document path.
func (c *Config) SourcePath() string {
	return c.abs(c.Source)
}

// OutputPattern returns the target path pattern. Without an explicit
// output, targets sit next to the source: locales/en.json gives
// locales/{lang}.json.
func (c *Config) OutputPattern() string {
	if c.Output != "" {
		return c.Output
	}
	if c.Source == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.Source), LangPlaceholder+filepath.Ext(c.Source))
}

// TargetPath returns the target document path for lang.
func (c *Config) TargetPath(lang string) string {
	return c.abs(strings.ReplaceAll(c.OutputPattern(), LangPlaceholder, lang))
}

// RelTargetPath returns the target path relative to Root, used as the
// lock ledger section name.
func (c *Config) RelTargetPath(lang string) string {
	p := c.TargetPath(lang)
	if rel, err := filepath.Rel(c.Root, p); err == nil {
		return lockfile.TargetKey(rel)
	}
	return lockfile.TargetKey(p)
}

// CatalogPath returns the language catalog path, or "".
func (c *Config) CatalogPath() string {
	return c.abs(c.Catalog)
}

// Validate checks the settings every sync needs.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("no source document: set source in %s or pass --source", FileName)
	}
	if !strings.Contains(c.OutputPattern(), LangPlaceholder) {
		return fmt.Errorf("output %q must contain %s", c.OutputPattern(), LangPlaceholder)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Language detection
// ---------------------------------------------------------------------------

// DetectLanguages finds language codes of existing target files matching
// the output pattern. The source file itself is skipped.
func (c *Config) DetectLanguages() []string {
	pattern := c.OutputPattern()
	if !strings.Contains(pattern, LangPlaceholder) {
		return nil
	}
	glob := c.abs(strings.ReplaceAll(pattern, LangPlaceholder, "*"))
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil
	}

	prefix, suffix, _ := strings.Cut(c.abs(pattern), LangPlaceholder)
	source := filepath.Clean(c.SourcePath())

	var langs []string
	for _, m := range matches {
		if filepath.Clean(m) == source {
			continue
		}
		if info, err := os.Stat(m); err != nil || info.IsDir() {
			continue
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(m, prefix), suffix)
		if isLangCode(lang) {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// isLangCode accepts "de", "pt-BR", "zh_CN", "zh-Hant" style codes.
func isLangCode(s string) bool {
	base, region, hasRegion := strings.Cut(strings.ReplaceAll(s, "_", "-"), "-")
	if len(base) < 2 || len(base) > 3 {
		return false
	}
	for _, r := range base {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	if !hasRegion {
		return true
	}
	if len(region) < 2 || len(region) > 4 {
		return false
	}
	for _, r := range region {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
