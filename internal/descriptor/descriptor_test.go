package descriptor

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// storeOf builds a store that is not backed by a file.
func storeOf(entries []Entry) *Store {
	return &Store{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries: append([]Entry(nil), entries...),
	}
}

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.cgt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Entries(t *testing.T) {
	path := writeDescriptor(t, strings.Join([]string{
		"# header comment",
		"project.name=Demo",
		"",
		"   # indented comment",
		"project.src.dir = src",
		"broken line",
		"project.src.out=",
		"=orphan",
		"project.src.args=a=b c",
		"project.name=Other",
	}, "\n"))

	s := Load(path)
	if !s.Exists() {
		t.Fatalf("Exists() = false, err = %v", s.Err())
	}

	want := []Entry{
		{Key: "project.name", Value: "Demo", Line: 2},
		{Key: "project.src.dir", Value: " src", Line: 5},
		{Key: "project.src.args", Value: "a=b c", Line: 9},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "missing.cgt"))
	if s.Exists() {
		t.Error("Exists() = true for missing file")
	}
	if s.Err() == nil {
		t.Error("Err() = nil for missing file")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if got := s.GetKey(KeyProjectName); got != "" {
		t.Errorf("GetKey() = %q, want empty", got)
	}
}

func TestLoad_Directory(t *testing.T) {
	s := Load(t.TempDir())
	if s.Exists() {
		t.Error("Exists() = true for a directory")
	}
}

func TestLoad_StripsBOM(t *testing.T) {
	path := writeDescriptor(t, "\ufeffproject.name=Demo\n")
	s := Load(path)
	if got := s.GetKey("project.name"); got != "Demo" {
		t.Errorf("GetKey() = %q, want %q", got, "Demo")
	}
}

func TestLoad_CRLF(t *testing.T) {
	path := writeDescriptor(t, "project.name=Demo\r\nproject.src.dir=src\r\n")
	s := Load(path)
	if got := s.GetKey("project.name"); got != "Demo" {
		t.Errorf("GetKey() = %q, want %q", got, "Demo")
	}
}

func TestLoad_OverlongLine(t *testing.T) {
	long := strings.Repeat("v", maxLineSize+1)
	path := writeDescriptor(t, "a=1\nbig="+long+"\nafter=ok\n")

	s := Load(path)
	if !s.Exists() {
		t.Fatalf("Exists() = false, err = %v", s.Err())
	}
	want := []Entry{
		{Key: "a", Value: "1", Line: 1},
		{Key: "after", Value: "ok", Line: 3},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LineAtLimit(t *testing.T) {
	value := strings.Repeat("v", maxLineSize-len("big="))
	s := Load(writeDescriptor(t, "big="+value))
	if got := s.GetKey("big"); got != value {
		t.Errorf("GetKey(big) has %d bytes, want %d", len(got), len(value))
	}
}

func TestStore_PathAndDir(t *testing.T) {
	path := writeDescriptor(t, "a=1\n")
	s := Load(path)
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if s.Dir() != filepath.Dir(path) {
		t.Errorf("Dir() = %q, want %q", s.Dir(), filepath.Dir(path))
	}
}

func TestStore_Refresh(t *testing.T) {
	path := writeDescriptor(t, "project.name=Demo\n")
	s := Load(path)

	if err := os.WriteFile(path, []byte("project.name=Renamed\nproject.src.dir=src\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := s.GetKey("project.name"); got != "Renamed" {
		t.Errorf("GetKey() = %q, want %q", got, "Renamed")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(); err == nil {
		t.Error("Refresh() error = nil after removal")
	}
	if s.Exists() || s.Len() != 0 {
		t.Errorf("after removal Exists() = %v, Len() = %d", s.Exists(), s.Len())
	}
}

func TestStore_Lookup(t *testing.T) {
	path := writeDescriptor(t, "# c\nroot=/data\npath=$root$/x\n")
	s := Load(path)

	e, ok := s.Lookup("path")
	if !ok {
		t.Fatal("Lookup(path) not found")
	}
	if e.Value != "$root$/x" || e.Line != 3 {
		t.Errorf("Lookup(path) = %+v", e)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) found")
	}
}

func TestStore_LookupDoesNotMutate(t *testing.T) {
	path := writeDescriptor(t, "root=/data\npath=$root$/x\n")
	s := Load(path)
	before := s.Entries()

	for i := 0; i < 3; i++ {
		if got := s.GetKey("path"); got != "/data/x" {
			t.Fatalf("GetKey() = %q, want /data/x", got)
		}
	}
	if diff := cmp.Diff(before, s.Entries()); diff != "" {
		t.Errorf("entries changed after lookups (-before +after):\n%s", diff)
	}
}

func TestStore_GetKey_BlankName(t *testing.T) {
	s := storeOf([]Entry{{Key: "a", Value: "1", Line: 1}})
	for _, name := range []string{"", "   "} {
		if got := s.GetKey(name); got != "" {
			t.Errorf("GetKey(%q) = %q, want empty", name, got)
		}
	}
}

func TestStore_GetBool(t *testing.T) {
	s := storeOf([]Entry{
		{Key: "yes", Value: "true", Line: 1},
		{Key: "no", Value: "False", Line: 2},
		{Key: "one", Value: "1", Line: 3},
		{Key: "blank", Value: "  ", Line: 4},
		{Key: "bad", Value: "maybe", Line: 5},
		{Key: "ref", Value: "$yes$", Line: 6},
	})

	tests := []struct {
		key     string
		def     bool
		want    bool
		wantErr error
	}{
		{"yes", false, true, nil},
		{"no", true, false, nil},
		{"one", false, true, nil},
		{"blank", true, true, nil},
		{"missing", true, true, nil},
		{"ref", false, true, nil},
		{"bad", true, true, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := s.GetBool(tt.key, tt.def)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetBool() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_GetInt(t *testing.T) {
	s := storeOf([]Entry{
		{Key: "timeout", Value: "30", Line: 1},
		{Key: "neg", Value: " -5 ", Line: 2},
		{Key: "bad", Value: "30s", Line: 3},
	})

	if got, err := s.GetInt("timeout", 60); err != nil || got != 30 {
		t.Errorf("GetInt(timeout) = %d, %v", got, err)
	}
	if got, err := s.GetInt("neg", 0); err != nil || got != -5 {
		t.Errorf("GetInt(neg) = %d, %v", got, err)
	}
	if got, err := s.GetInt("missing", 60); err != nil || got != 60 {
		t.Errorf("GetInt(missing) = %d, %v", got, err)
	}

	got, err := s.GetInt("bad", 60)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("GetInt(bad) error = %v, want *FormatError", err)
	}
	if fe.Key != "bad" || fe.Value != "30s" || fe.Type != "int" {
		t.Errorf("FormatError = %+v", fe)
	}
	if got != 60 {
		t.Errorf("GetInt(bad) = %d, want default 60", got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		kind  lineKind
	}{
		{"", "", "", lineSkip},
		{"   ", "", "", lineSkip},
		{"# comment", "", "", lineSkip},
		{"\t# comment", "", "", lineSkip},
		{"no separator", "", "", lineNoSeparator},
		{"key=", "key", "", lineEmptyValue},
		{"=", "", "", lineEmptyValue},
		{"=value", "", "value", lineEmptyKey},
		{"  =value", "", "value", lineEmptyKey},
		{"key=value", "key", "value", lineEntry},
		{" key =value ", "key", "value ", lineEntry},
		{"key=a=b", "key", "a=b", lineEntry},
		{"key=#not a comment", "key", "#not a comment", lineEntry},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, kind := parseLine(tt.line)
			if key != tt.key || value != tt.value || kind != tt.kind {
				t.Errorf("parseLine(%q) = (%q, %q, %d), want (%q, %q, %d)",
					tt.line, key, value, kind, tt.key, tt.value, tt.kind)
			}
		})
	}
}
