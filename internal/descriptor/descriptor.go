// Package descriptor loads, resolves and checks cgt project descriptors.
//
// A descriptor is a line-oriented text file of key=value entries:
//
//	# comment line, ignored
//	project.name=Demo
//	project.out.dir=$project.name$/out
//
// Loading is lenient: malformed lines are dropped without complaint. Check
// rescans the raw file and reports every malformed or duplicated line.
package descriptor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Extension is the file extension of descriptor files.
const Extension = ".cgt"

// maxLineSize bounds a single descriptor line. Longer lines are dropped by
// Load and reported by Check.
const maxLineSize = 1024 * 1024

// Entry is one key=value pair read from a descriptor.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	Line  int    `json:"line" yaml:"line"` // 1-based physical line number
}

// Store holds the entries of one descriptor file.
//
// Stored entries are never rewritten by lookups; resolution works on a copy.
// The mutex only guards Refresh against concurrent readers.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []Entry
	exists  bool
	loadErr error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report load failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Load reads the descriptor at path.
//
// Load never fails: when the file is missing or unreadable the problem is
// logged and an empty store is returned, so callers can still run Check or
// print information about it.
func Load(path string, opts ...Option) *Store {
	s := &Store{
		path:   absPath(path),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Refresh(); err != nil {
		s.logger.Error("cannot load descriptor", "path", s.path, "error", err)
	}
	return s
}

func absPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Refresh clears the entries and reads them again from disk.
func (s *Store) Refresh() error {
	var entries []Entry
	seen := make(map[string]bool)

	err := scanFile(s.path, func(lineNo int, line string, tooLong bool) {
		key, value, kind := parseLine(line)
		if tooLong || kind != lineEntry || seen[key] {
			return
		}
		seen[key] = true
		entries = append(entries, Entry{Key: key, Value: value, Line: lineNo})
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.exists = err == nil
	s.loadErr = err
	return err
}

// Path returns the absolute path of the descriptor file.
func (s *Store) Path() string {
	return s.path
}

// Dir returns the directory containing the descriptor file.
// Relative paths in descriptor values are resolved against it.
func (s *Store) Dir() string {
	if s.path == "" {
		return ""
	}
	return filepath.Dir(s.path)
}

// Exists reports whether the last load read the file successfully.
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists
}

// Err returns the error of the last load, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Entries returns a copy of the loaded entries in file order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of loaded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Lookup returns the raw, unresolved entry for key.
func (s *Store) Lookup(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve returns the value of key with every $ref$ substituted.
// It returns ErrKeyNotFound for unknown or blank names and a
// *CircularReferenceError when references loop.
func (s *Store) Resolve(key string) (string, error) {
	return Resolve(s.Entries(), key)
}

// ResolveAll returns every entry with its value resolved.
func (s *Store) ResolveAll() ([]Entry, error) {
	entries := s.Entries()
	out := make([]Entry, len(entries))
	for i, e := range entries {
		v, err := Resolve(entries, e.Key)
		if err != nil {
			return nil, err
		}
		out[i] = Entry{Key: e.Key, Value: v, Line: e.Line}
	}
	return out, nil
}

// GetKey returns the resolved value of key, or "" when the key is missing,
// the name is blank or its references are circular.
func (s *Store) GetKey(key string) string {
	v, err := s.Resolve(key)
	if err != nil {
		return ""
	}
	return v
}

// GetBool returns the resolved value of key parsed as a boolean.
// Absent or empty values yield def; a present value that is not a boolean
// literal yields a *FormatError.
func (s *Store) GetBool(key string, def bool) (bool, error) {
	raw, ok, err := s.typedValue(key)
	if err != nil || !ok {
		return def, err
	}
	b, perr := strconv.ParseBool(raw)
	if perr != nil {
		return def, &FormatError{Key: key, Value: raw, Type: "bool"}
	}
	return b, nil
}

// GetInt returns the resolved value of key parsed as a base-10 integer.
// Absent or empty values yield def; malformed values yield a *FormatError.
func (s *Store) GetInt(key string, def int) (int, error) {
	raw, ok, err := s.typedValue(key)
	if err != nil || !ok {
		return def, err
	}
	n, perr := strconv.Atoi(raw)
	if perr != nil {
		return def, &FormatError{Key: key, Value: raw, Type: "int"}
	}
	return n, nil
}

// typedValue resolves key for typed accessors. ok is false when the key is
// absent or its value is blank.
func (s *Store) typedValue(key string) (string, bool, error) {
	v, err := s.Resolve(key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	v = strings.TrimSpace(v)
	return v, v != "", nil
}

// lineKind classifies one physical descriptor line.
type lineKind int

const (
	lineSkip lineKind = iota
	lineNoSeparator
	lineEmptyValue
	lineEmptyKey
	lineEntry
)

// parseLine splits a line on its first '='. The key is trimmed; the value
// is kept verbatim.
func parseLine(line string) (key, value string, kind lineKind) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", lineSkip
	}
	k, v, found := strings.Cut(line, "=")
	if !found {
		return "", "", lineNoSeparator
	}
	if v == "" {
		return strings.TrimSpace(k), "", lineEmptyValue
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return "", v, lineEmptyKey
	}
	return k, v, lineEntry
}

// scanFile calls fn for every physical line of the file at path.
func scanFile(path string, fn func(lineNo int, line string, tooLong bool)) error {
	if path == "" {
		return fmt.Errorf("no descriptor path given")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	r := bufio.NewReaderSize(f, 64*1024)
	lineNo := 0
	for {
		line, tooLong, err := readLine(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		lineNo++
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		fn(lineNo, line, tooLong)
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed completely but only its first maxLineSize bytes
// are returned, with tooLong set.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && buf != nil {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if room := maxLineSize - len(buf); len(frag) > room {
			frag = frag[:room]
			tooLong = true
		}
		buf = append(buf, frag...)
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
