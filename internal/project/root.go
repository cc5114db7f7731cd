// Package project locates descriptor files and resolves the directory layout
// they describe.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agbgames/cgt/internal/descriptor"
)

// StateDirName is the per-project directory holding logs and scratch files.
const StateDirName = ".cgt"

// ErrNoDescriptor is returned when no *.cgt file is found.
var ErrNoDescriptor = errors.New("no " + descriptor.Extension + " descriptor found (pass the descriptor path explicitly)")

// AmbiguousDescriptorError is returned when a directory holds several descriptors.
type AmbiguousDescriptorError struct {
	Dir        string
	Candidates []string
}

func (e *AmbiguousDescriptorError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = filepath.Base(c)
	}
	return fmt.Sprintf("%s: several descriptors found (%s); pass one explicitly", e.Dir, strings.Join(names, ", "))
}

// FindDescriptor returns the single descriptor file in dir.
func FindDescriptor(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", err
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), descriptor.Extension) {
			continue
		}
		found = append(found, filepath.Join(abs, entry.Name()))
	}
	sort.Strings(found)

	switch len(found) {
	case 0:
		return "", ErrNoDescriptor
	case 1:
		return found[0], nil
	default:
		return "", &AmbiguousDescriptorError{Dir: abs, Candidates: found}
	}
}

// FindDescriptorFrom walks up from startDir until it finds a directory
// holding exactly one descriptor.
func FindDescriptorFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path, err := FindDescriptor(dir)
		if err == nil {
			return path, nil
		}
		var ambiguous *AmbiguousDescriptorError
		if errors.As(err, &ambiguous) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoDescriptor
		}
		dir = parent
	}
}

// Resolve returns the descriptor path named by args, or discovers one
// starting at the working directory when args is empty. A directory
// argument is searched for its single descriptor.
func Resolve(args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return FindDescriptorFrom(cwd)
	}

	path := args[0]
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FindDescriptor(path)
	}
	return filepath.Abs(path)
}
