package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one file discovered under a library root.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Lister enumerates candidate media files under a root path.
type Lister interface {
	List(ctx context.Context, root string) ([]Entry, error)
}

// filesystemLister walks the real filesystem, keeping only files whose
// extension is in the configured set.
type filesystemLister struct {
	extensions map[string]bool
}

func newFilesystemLister(extensions []string) *filesystemLister {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return &filesystemLister{extensions: set}
}

func (l *filesystemLister) List(ctx context.Context, root string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree; the rest of the walk continues.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !l.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		entries = append(entries, Entry{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
