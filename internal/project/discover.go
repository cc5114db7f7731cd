package project

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// excludedDirs are never searched for script files.
var excludedDirs = map[string]bool{
	"node_modules": true,
	StateDirName:   true,
	".git":         true,
}

// ScriptFiles returns every file below dir whose extension matches ext
// (case-insensitive), excluding the files in skip. Paths are absolute and
// sorted so bundles are reproducible.
func ScriptFiles(dir, ext string, skip ...string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ext) || skipped[path] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
