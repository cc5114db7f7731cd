package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/project"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testLayout(root string) *project.Layout {
	return &project.Layout{
		Name:       "Demo",
		SourceDir:  filepath.Join(root, "src"),
		OutputDir:  filepath.Join(root, "out"),
		OutputName: "game",
		MainFile:   filepath.Join(root, "src", "main.js"),
	}
}

func TestBundle(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.js":       "function Main(args) {\n\n  start(args);\n}",
		"src/b_util.js":     "function util() {}\n",
		"src/a/helpers.js":  "function help() {}\r\n\r\n",
		"src/notes.txt":     "not a script",
		"src/lib/empty.js":  "",
		"src/lib/Quoted.JS": "var q = 1;\n",
	})
	entries := []descriptor.Entry{
		{Key: "project.name", Value: "Demo", Line: 1},
		{Key: "greeting", Value: `it's a \path`, Line: 2},
	}

	data, err := Bundle(entries, testLayout(root), "1.4.0")
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}

	want := strings.Join([]string{
		"// Generated using CopperGameTools v1.4.0 //",
		"// Please keep CGT updated so functionality with newer versions of CopperCube is ensured. //",
		"ccbSetCopperCubeVariable('project.name','Demo');",
		`ccbSetCopperCubeVariable('greeting','it\'s a \\path');`,
		"// -- HELPERS.JS -- //",
		"function help() {}",
		"// -- B_UTIL.JS -- //",
		"function util() {}",
		"// -- QUOTED.JS -- //",
		"var q = 1;",
		"// -- EMPTY.JS -- //",
		"function Main(args) {",
		"  start(args);",
		"}",
		"Main(ccbGetCopperCubeVariable('project.src.args').split(' '));",
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("Bundle() mismatch (-want +got):\n%s", diff)
	}
}

func TestBundle_NoBlankLinesAndFinalInvocation(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.js":  "\n\n\n// main\n\n\n",
		"src/other.js": "\n\n\n",
	})

	data, err := Bundle(nil, testLayout(root), "1.4.0")
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Contains(s, "\n\n") {
		t.Errorf("bundle contains a blank line:\n%q", s)
	}
	if !strings.HasSuffix(s, "\n"+invocation+"\n") {
		t.Errorf("bundle does not end with the invocation:\n%q", s)
	}
}

func TestBundle_MainWithoutExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main":   "function Main() {}",
		"src/lib.js": "var lib;",
	})
	l := testLayout(root)
	l.MainFile = filepath.Join(root, "src", "main")

	data, err := Bundle(nil, l, "1.4.0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "// -- LIB.JS -- //") {
		t.Errorf("bundle missing .js sources:\n%s", data)
	}
}

func TestBundle_MissingMain(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/other.js": "x"})

	_, err := Bundle(nil, testLayout(root), "1.4.0")
	if err == nil {
		t.Fatal("Bundle() error = nil for missing main file")
	}
}

func TestCollapseBlankLines(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a\n\nb", "a\nb"},
		{"a\n\n\n\n\nb", "a\nb"},
		{"\n\n", "\n"},
		{"no newline", "no newline"},
		{"a\nb\n", "a\nb\n"},
	}
	for _, tt := range tests {
		if got := collapseBlankLines(tt.in); got != tt.want {
			t.Errorf("collapseBlankLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
