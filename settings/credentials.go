// Package settings stores per-user locsync state in the XDG data directory:
//
//	$XDG_DATA_HOME/locsync/  (default: ~/.local/share/locsync/)
//
// Files stored:
//   - auth.json     API keys per provider (0600)
//   - prompts.json  system prompt overrides
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. LOCSYNC_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName     = "locsync"
	authFileName    = "auth.json"
	promptsFileName = "prompts.json"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Credential is what auth.json keeps for one provider.
type Credential struct {
	Key string `json:"key"`
	// BaseURL is remembered for endpoints without a fixed URL
	// (custom-openai, remote ollama).
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Credential

// ---------------------------------------------------------------------------
// File paths
// ---------------------------------------------------------------------------

// DataDir returns the locsync data directory, honouring $XDG_DATA_HOME.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func authFilePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, authFileName), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	p, err := authFilePath()
	if err != nil {
		return ""
	}
	return p
}

// PromptsFilePath returns the path to prompts.json.
func PromptsFilePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, promptsFileName), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store. A missing or invalid file yields an
// empty store.
func Load() Store {
	path, err := authFilePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store with 0600 permissions.
func Save(store Store) error {
	path, err := authFilePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key (and optional base URL) for a provider.
func SetAPIKey(providerID, key, baseURL string) error {
	store := Load()
	store[providerID] = &Credential{Key: key, BaseURL: baseURL}
	return Save(store)
}

// GetAPIKey returns the stored API key for a provider, or "".
func GetAPIKey(providerID string) string {
	if c := Load()[providerID]; c != nil {
		return c.Key
	}
	return ""
}

// GetBaseURL returns the stored base URL for a provider, or "".
func GetBaseURL(providerID string) string {
	if c := Load()[providerID]; c != nil {
		return c.BaseURL
	}
	return ""
}

// Remove deletes the credential of a provider. Removing an unknown
// provider is not an error.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// Providers returns the IDs with stored credentials, sorted.
func Providers() []string {
	store := Load()
	ids := make([]string, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
