package descriptor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheck_NoErrors(t *testing.T) {
	path := writeDescriptor(t, "# comment\n\nproject.name=Demo\nproject.src.dir=src\n")
	r := Load(path).Check()
	if r.HasErrors() {
		t.Errorf("Check() = %v, errors %v", r.Type, r.Errors)
	}
	if r.Type.String() != "NoErrors" {
		t.Errorf("Type.String() = %q", r.Type.String())
	}
}

func TestCheck_Diagnostics(t *testing.T) {
	path := writeDescriptor(t, strings.Join([]string{
		"project.name=Demo",
		"broken line",
		"project.src.out=",
		"=orphan",
		"project.name=Again",
		"project.name=Third",
	}, "\n"))

	r := Load(path).Check()
	if !r.HasErrors() {
		t.Fatal("Check() = NoErrors, want HasErrors")
	}

	want := []CheckError{
		{Kind: InvalidKey, Line: 2, Text: "[2] broken line"},
		{Kind: InvalidValue, Line: 3, Text: "[3] project.src.out="},
		{Kind: InvalidKey, Line: 4, Text: "[4] =orphan"},
		{Kind: DuplicatedKey, Line: 5, Text: "[5] project.name=Again"},
		{Kind: DuplicatedKey, Line: 6, Text: "[6] project.name=Third"},
	}
	if diff := cmp.Diff(want, r.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

// A duplicate is reported by Check but resolves to its first occurrence.
func TestCheck_LenientStrictAsymmetry(t *testing.T) {
	path := writeDescriptor(t, "a=1\na=2\n")
	s := Load(path)

	if got := s.GetKey("a"); got != "1" {
		t.Errorf("GetKey(a) = %q, want 1", got)
	}
	r := s.Check()
	if len(r.Errors) != 1 || r.Errors[0].Kind != DuplicatedKey || r.Errors[0].Line != 2 {
		t.Errorf("Check() errors = %v", r.Errors)
	}
}

func TestCheck_EmptyFile(t *testing.T) {
	r := Load(writeDescriptor(t, "")).Check()
	if r.HasErrors() {
		t.Errorf("Check() on empty file = %v", r.Errors)
	}
}

func TestCheck_UnreadableFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "missing.cgt")).Check()
	if !r.HasErrors() || len(r.Errors) != 1 {
		t.Fatalf("Check() = %v, %v", r.Type, r.Errors)
	}
	e := r.Errors[0]
	if e.Kind != InvalidKey || e.Line != 0 {
		t.Errorf("error = %+v", e)
	}
	if !strings.HasPrefix(e.Text, "[0] cannot read descriptor: ") {
		t.Errorf("Text = %q", e.Text)
	}
}

func TestCheck_OverlongLine(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+10)
	path := writeDescriptor(t, strings.Join([]string{
		"badline",
		"a=1",
		"a=2",
		"big=" + long,
		"# " + long,
		long,
		"after=ok",
		"a=3",
	}, "\n"))

	r := Load(path).Check()
	want := []CheckError{
		{Kind: InvalidKey, Line: 1, Text: "[1] badline"},
		{Kind: DuplicatedKey, Line: 3, Text: "[3] a=2"},
		{Kind: InvalidValue, Line: 4, Text: "[4] big=" + long[:previewSize-4] + "..."},
		{Kind: InvalidKey, Line: 6, Text: "[6] " + long[:previewSize] + "..."},
		{Kind: DuplicatedKey, Line: 8, Text: "[8] a=3"},
	}
	if diff := cmp.Diff(want, r.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckError_String(t *testing.T) {
	e := CheckError{Kind: InvalidValue, Line: 3, Text: "[3] a="}
	if got := e.String(); got != "[3] a= | Error Type: InvalidValue" {
		t.Errorf("String() = %q", got)
	}
}

func TestCheckErrorKind_MarshalText(t *testing.T) {
	for kind, want := range map[CheckErrorKind]string{
		InvalidKey:    "InvalidKey",
		InvalidValue:  "InvalidValue",
		DuplicatedKey: "DuplicatedKey",
	} {
		b, err := kind.MarshalText()
		if err != nil || string(b) != want {
			t.Errorf("MarshalText(%d) = %q, %v", kind, b, err)
		}
	}
}

func FuzzParseLine(f *testing.F) {
	f.Add("key=value")
	f.Add("# comment")
	f.Add("=")
	f.Add(" k = v ")
	f.Fuzz(func(t *testing.T, line string) {
		key, value, kind := parseLine(line)
		switch kind {
		case lineEntry:
			if key == "" || value == "" {
				t.Errorf("entry with empty key or value: %q", line)
			}
			if key != strings.TrimSpace(key) {
				t.Errorf("key not trimmed: %q", key)
			}
			if strings.Contains(key, "=") {
				t.Errorf("key contains separator: %q", key)
			}
		case lineEmptyValue:
			if value != "" {
				t.Errorf("empty-value line returned value %q", value)
			}
		case lineSkip:
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				t.Errorf("skipped non-blank, non-comment line %q", line)
			}
		}
	})
}
