package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Entry is one launchable application under the root.
type Entry struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	ContentHandler string `json:"content_handler,omitempty"`
}

// Catalog lists the files under the root as application names, sorted.
// A non-empty pattern filters on the path relative to the root using
// doublestar syntax ("**" crosses directories).
func (l *Launcher) Catalog(ctx context.Context, pattern string) ([]Entry, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("catalog: %w: %q", doublestar.ErrBadPattern, pattern)
	}

	root := l.resolver.Root()
	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, rel); !ok {
				return nil
			}
		}

		entry := Entry{Name: l.resolver.Name(rel), Path: p}
		entry.ContentHandler, _ = ReadDirective(p)

		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
