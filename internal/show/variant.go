package show

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Variant is a named content set: one folder of stage assets under the asset
// root. Key is matched case-insensitively; FolderName preserves the on-disk
// casing and is what callers join into filesystem paths.
type Variant struct {
	Key        string
	FolderName string
}

// Store is the lookup abstraction for available variants.
// Implementations can be disk-backed or fixed lists (tests).
type Store interface {
	// List returns all available variants, ordered by key.
	List() []Variant

	// Lookup returns the variant whose key matches the given key
	// case-insensitively. The ok return is false when no variant matches.
	Lookup(key string) (Variant, bool)
}

// Registry is a concurrency-safe Store backed by the directories found under
// an asset root. Each direct subdirectory is one variant; its name is both
// key and folder name.
type Registry struct {
	mu       sync.RWMutex
	root     string
	variants []Variant
}

// NewRegistry scans root and returns a registry of its subdirectories.
func NewRegistry(root string) (*Registry, error) {
	r := &Registry{root: root}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rescan re-reads the asset root. Folders added while the server is running
// become available without a restart; hidden directories are skipped.
func (r *Registry) Rescan() error {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return err
	}

	variants := make([]Variant, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		variants = append(variants, Variant{Key: e.Name(), FolderName: e.Name()})
	}
	sort.Slice(variants, func(i, j int) bool {
		return strings.ToLower(variants[i].Key) < strings.ToLower(variants[j].Key)
	})

	r.mu.Lock()
	r.variants = variants
	r.mu.Unlock()
	return nil
}

// Root returns the asset root the registry scans.
func (r *Registry) Root() string { return r.root }

// Dir returns the absolute directory of the given variant.
func (r *Registry) Dir(v Variant) string { return filepath.Join(r.root, v.FolderName) }

// List implements Store.List.
func (r *Registry) List() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Variant, len(r.variants))
	copy(out, r.variants)
	return out
}

// Lookup implements Store.Lookup.
func (r *Registry) Lookup(key string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.variants {
		if strings.EqualFold(v.Key, key) {
			return v, true
		}
	}
	return Variant{}, false
}

// FixedStore is a Store over a fixed variant list, mainly for tests.
type FixedStore []Variant

// List implements Store.List.
func (s FixedStore) List() []Variant { return s }

// Lookup implements Store.Lookup.
func (s FixedStore) Lookup(key string) (Variant, bool) {
	for _, v := range s {
		if strings.EqualFold(v.Key, key) {
			return v, true
		}
	}
	return Variant{}, false
}
