// Package integration contains end-to-end tests that build the fixture
// projects with the real packer and descriptor store.
package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/agbgames/cgt/internal/builder"
	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/logging"
	"github.com/agbgames/cgt/internal/packer"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// copyFixture copies a fixture project into a temporary directory so that
// builds can write into it.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), name)
	if err := os.CopyFS(dst, os.DirFS(filepath.Join(fixturesDir(), name))); err != nil {
		t.Fatalf("copy fixture %s: %v", name, err)
	}
	return dst
}

// build loads descriptor file from dir and builds it.
func build(t *testing.T, dir, file string) (*builder.Result, *descriptor.Store) {
	t.Helper()
	logger := logging.Discard()
	store := descriptor.Load(filepath.Join(dir, file), descriptor.WithLogger(logger))
	b := builder.New(store, builder.Options{
		Logger: logger,
		Packer: packer.New(filepath.Join(dir, packer.DefaultDataDir), logger),
	})
	return b.Build(t.Context()), store
}
