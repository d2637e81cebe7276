package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"spotter/internal/frontend"
)

// InputFilter narrows discovered dumps with slash-separated globs matched
// against the path relative to the directory being walked. Excludes win.
type InputFilter struct {
	Includes []string
	Excludes []string
}

func (f InputFilter) allows(rel string) (bool, error) {
	for _, p := range f.Excludes {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		if ok {
			return false, nil
		}
	}
	if len(f.Includes) == 0 {
		return true, nil
	}
	for _, p := range f.Includes {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, fmt.Errorf("include pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CollectInputs expands paths into a sorted, duplicate-free list of tree
// dumps. Files named explicitly are taken as they are; directories are
// walked and filtered.
func CollectInputs(paths []string, filter InputFilter) ([]string, error) {
	var out []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !frontend.IsDump(root) {
				return nil, fmt.Errorf("%s: not a tree dump", root)
			}
			out = append(out, filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !frontend.IsDump(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			ok, err := filter.allows(filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// детерминированный порядок независимо от порядка аргументов
	slices.Sort(out)
	return lo.Uniq(out), nil
}
