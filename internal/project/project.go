package project

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/errors"
)

// Layout is the resolved directory layout of a buildable project.
// All paths are absolute.
type Layout struct {
	Name       string
	SourceDir  string
	OutputDir  string
	OutputName string
	MainFile   string
}

// BundlePath returns the path the bundle is written to.
func (l *Layout) BundlePath() string {
	return filepath.Join(l.OutputDir, l.OutputName+".js")
}

// ResolveLayout resolves the required keys of store and checks that the
// directories and main file they name exist.
//
// Missing keys and circular references are reported as config errors;
// missing directories or files as environment errors.
func ResolveLayout(store *descriptor.Store) (*Layout, error) {
	values := make(map[string]string, len(descriptor.RequiredKeys))
	for _, key := range descriptor.RequiredKeys {
		v, err := store.Resolve(key)
		switch {
		case stderrors.Is(err, descriptor.ErrKeyNotFound):
			return nil, errors.Config("is required").WithKey(key)
		case err != nil:
			return nil, errors.WrapKind(errors.KindConfig, err, "cannot resolve").WithKey(key)
		}
		values[key] = v
	}

	base := store.Dir()
	l := &Layout{
		Name:       values[descriptor.KeyProjectName],
		SourceDir:  Abs(base, values[descriptor.KeySourceDir]),
		OutputDir:  Abs(base, values[descriptor.KeyOutputDir]),
		OutputName: values[descriptor.KeySourceOut],
	}
	l.MainFile = filepath.Join(l.SourceDir, values[descriptor.KeySourceMain])

	if err := requireDir(l.SourceDir, descriptor.KeySourceDir); err != nil {
		return nil, err
	}
	if err := requireDir(l.OutputDir, descriptor.KeyOutputDir); err != nil {
		return nil, err
	}
	info, err := os.Stat(l.MainFile)
	if err != nil {
		return nil, errors.Environment("main file does not exist").WithKey(descriptor.KeySourceMain).WithPath(l.MainFile)
	}
	if info.IsDir() {
		return nil, errors.Environment("main file is a directory").WithKey(descriptor.KeySourceMain).WithPath(l.MainFile)
	}
	return l, nil
}

// Abs resolves path against base unless it is already absolute.
func Abs(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func requireDir(dir, key string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return errors.Environment("directory does not exist").WithKey(key).WithPath(dir)
	}
	if err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, "cannot access directory").WithKey(key).WithPath(dir)
	}
	if !info.IsDir() {
		return errors.Environment("not a directory").WithKey(key).WithPath(dir)
	}
	return nil
}
