// Package packer builds and extracts .cgc resource archives.
//
// A .cgc archive is a zip container holding every file below the resource
// directory, stored under its slash-separated path relative to that directory.
package packer

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ArchiveExtension is the file extension of resource archives.
const ArchiveExtension = ".cgc"

// DefaultDataDir is the scratch directory archives are unpacked into.
const DefaultDataDir = "Data"

// Packer creates and extracts resource archives.
type Packer struct {
	// DataDir is the scratch directory used by Unpack and removed by Clean.
	DataDir string
	Logger  *slog.Logger
}

// New returns a Packer using dataDir as its scratch directory.
// An empty dataDir selects DefaultDataDir in the working directory.
func New(dataDir string, logger *slog.Logger) *Packer {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Packer{DataDir: dataDir, Logger: logger}
}

// ArchivePath returns the archive path for name inside outDir.
func ArchivePath(name, outDir string) string {
	return filepath.Join(outDir, name+ArchiveExtension)
}

// Pack writes every file below sourceDir into <outputDir>/<name>.cgc and
// returns the archive path. A missing sourceDir is created and yields an
// empty archive. The archive is written to a temporary file and renamed into
// place, so a failed pack never leaves a truncated archive.
func (p *Packer) Pack(sourceDir, name, outputDir string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("archive name is empty")
	}
	info, err := os.Stat(sourceDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(sourceDir, 0755); err != nil {
			return "", fmt.Errorf("create resource directory: %w", err)
		}
		p.Logger.Warn("resource directory did not exist and was created", "source", sourceDir)
		info, err = os.Stat(sourceDir)
	}
	if err != nil {
		return "", fmt.Errorf("resource directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resource directory %q is not a directory", sourceDir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	archivePath := ArchivePath(name, outputDir)
	tmp, err := os.CreateTemp(outputDir, "."+name+"-*"+ArchiveExtension)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	count, err := p.writeArchive(tmp, sourceDir, archivePath, tmpPath)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	p.Logger.Debug("packed resources", "source", sourceDir, "archive", archivePath, "files", count)
	return archivePath, nil
}

func (p *Packer) writeArchive(w io.Writer, sourceDir string, skip ...string) (int, error) {
	zw := zip.NewWriter(w)
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	count := 0
	err := filepath.WalkDir(sourceDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, absErr := filepath.Abs(file); absErr == nil && skipped[abs] {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, file)
		if err != nil {
			return err
		}
		if err := addFile(zw, file, filepath.ToSlash(rel), d); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		zw.Close()
		return 0, err
	}
	return count, zw.Close()
}

func addFile(zw *zip.Writer, file, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}

// Unpack extracts archivePath into destDir, or into DataDir when destDir is
// empty. It fails when the archive does not exist.
func (p *Packer) Unpack(archivePath, destDir string) error {
	if destDir == "" {
		destDir = p.DataDir
	}
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}
	for _, f := range r.File {
		if err := extract(f, destDir); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	p.Logger.Debug("unpacked archive", "archive", archivePath, "dest", destDir, "files", len(r.File))
	return nil
}

func extract(f *zip.File, destDir string) error {
	name := path.Clean(f.Name)
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("entry escapes destination")
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// List returns the entry names stored in archivePath.
func List(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Clean removes the scratch directory. A missing directory is not an error.
func (p *Packer) Clean() error {
	if err := os.RemoveAll(p.DataDir); err != nil {
		return fmt.Errorf("clean %s: %w", p.DataDir, err)
	}
	p.Logger.Debug("cleaned data directory", "dir", p.DataDir)
	return nil
}
