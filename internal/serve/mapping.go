package serve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IndexName is the entry served for a request of "/".
const IndexName = "index"

// ErrNotFound is returned by Lookup for names absent from the mapping.
var ErrNotFound = errors.New("not found")

// Entry pairs a public name with the file it serves.
type Entry struct {
	Name string
	Path string
}

// FileMapping is an immutable, ordered set of public names and the
// canonical paths of the regular files they serve. It is safe for
// concurrent reads.
type FileMapping struct {
	entries []Entry
	index   map[string]int
}

// NewFileMapping validates every entry and canonicalises its path. Names must
// be non-empty, unique and free of path separators; paths must resolve to
// existing regular files. Any invalid entry fails the whole construction.
func NewFileMapping(entries ...Entry) (*FileMapping, error) {
	m := &FileMapping{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" || strings.ContainsAny(e.Name, `/\`) {
			return nil, fmt.Errorf("invalid public filename: %q", e.Name)
		}
		if _, dup := m.index[e.Name]; dup {
			return nil, fmt.Errorf("duplicate public filename: %q", e.Name)
		}

		path, err := canonicalFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}

		m.index[e.Name] = len(m.entries)
		m.entries = append(m.entries, Entry{Name: e.Name, Path: path})
	}
	return m, nil
}

func canonicalFile(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", p, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a file: %s", resolved)
	}
	return resolved, nil
}

// Lookup returns the path served under name.
func (m *FileMapping) Lookup(name string) (string, error) {
	if m == nil {
		return "", ErrNotFound
	}
	i, ok := m.index[name]
	if !ok {
		return "", ErrNotFound
	}
	return m.entries[i].Path, nil
}

// Entries returns a copy of the mapping in construction order.
func (m *FileMapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *FileMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
