// Package photos serves student photo URLs from a JSON directory file
// mapping fcc_id to URL.
package photos

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Directory implements student.PhotoLookup. The zero value is an empty
// directory.
type Directory struct {
	mu   sync.RWMutex
	urls map[string]string
}

// New creates a directory from an in-memory map.
func New(urls map[string]string) *Directory {
	d := &Directory{}
	d.replace(urls)
	return d
}

// Load reads a directory file. An empty path yields an empty directory.
func Load(path string) (*Directory, error) {
	d := &Directory{}
	if path == "" {
		return d, nil
	}
	if err := d.Reload(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload swaps in the contents of path.
func (d *Directory) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read photo directory: %w", err)
	}
	var urls map[string]string
	if err := json.Unmarshal(data, &urls); err != nil {
		return fmt.Errorf("parse photo directory: %w", err)
	}
	d.replace(urls)
	return nil
}

func (d *Directory) replace(urls map[string]string) {
	m := make(map[string]string, len(urls))
	for id, url := range urls {
		if id != "" && url != "" {
			m[id] = url
		}
	}
	d.mu.Lock()
	d.urls = m
	d.mu.Unlock()
}

// PhotoURL returns the photo of a student.
func (d *Directory) PhotoURL(fccID shared.FccID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	url, ok := d.urls[fccID.String()]
	return url, ok
}

// Len is the number of known photos.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.urls)
}
