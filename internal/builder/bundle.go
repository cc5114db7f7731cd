package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/project"
)

// defaultScriptExt is used when the main file has no extension.
const defaultScriptExt = ".js"

// invocation starts the game with the runtime argument string.
const invocation = "Main(ccbGetCopperCubeVariable('" + descriptor.KeySourceArgs + "').split(' '));"

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Bundle concatenates the sources of l into a single CopperCube script.
//
// The script starts with a generator header, exposes every entry as a
// CopperCube variable, appends every other script below the source
// directory (sorted, each under a banner) followed by the main file and ends
// with the call to Main. Blank lines are removed.
func Bundle(entries []descriptor.Entry, l *project.Layout, toolVersion string) ([]byte, error) {
	ext := filepath.Ext(l.MainFile)
	if ext == "" {
		ext = defaultScriptExt
	}
	files, err := project.ScriptFiles(l.SourceDir, ext, l.MainFile, l.BundlePath())
	if err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "list source files").WithPath(l.SourceDir)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Generated using CopperGameTools v%s //\n", toolVersion)
	b.WriteString("// Please keep CGT updated so functionality with newer versions of CopperCube is ensured. //\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "ccbSetCopperCubeVariable('%s','%s');\n", jsEscaper.Replace(e.Key), jsEscaper.Replace(e.Value))
	}

	upper := cases.Upper(language.Und)
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.WrapKind(errors.KindEnvironment, err, "read source file").WithPath(f)
		}
		fmt.Fprintf(&b, "// -- %s -- //\n", upper.String(filepath.Base(f)))
		writeSource(&b, content)
	}

	mainSrc, err := os.ReadFile(l.MainFile)
	if err != nil {
		return nil, errors.WrapKind(errors.KindEnvironment, err, "read main file").WithKey(descriptor.KeySourceMain).WithPath(l.MainFile)
	}
	writeSource(&b, mainSrc)
	b.WriteString(invocation)
	b.WriteByte('\n')

	return []byte(collapseBlankLines(b.String())), nil
}

// writeSource appends content with normalized line endings and a final newline.
func writeSource(b *strings.Builder, content []byte) {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}

// collapseBlankLines replaces "\n\n" with "\n" until none is left.
func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n") {
		s = strings.ReplaceAll(s, "\n\n", "\n")
	}
	return s
}
