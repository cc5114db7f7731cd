package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/output"
	"github.com/agbgames/cgt/internal/project"
	"github.com/agbgames/cgt/internal/version"
)

const descriptorTemplate = `# CopperGameTools project descriptor
# Values may reference other keys as $key$.
builder.version=%[1]s
builder.require_version=false

project.name=%[2]s
project.src.dir=src
project.src.main=main.js
project.src.out=%[3]s
# project.src.args=-debug
project.out.dir=out

project.externalres.dir=resources
# project.externalres.out=$project.out.dir$

# project.postbuild.enabled=true
# project.postbuild.command=
# project.postbuild.timeout=60
`

const mainTemplate = `// Entry point called by the generated bundle.
function Main(args) {
	print("%s started with " + args.length + " argument(s)");
}
`

// cmdInit creates a new project in the current directory.
// This command is idempotent - it only creates files that don't exist.
func cmdInit(args []string) int {
	if wantsHelp(args) {
		printInitUsage()
		return 0
	}
	var name string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			out.ErrorPrefix("init: unknown option %q", arg)
			return errors.ExitConfigError
		}
		if name != "" {
			out.ErrorPrefix("init: unexpected argument %q", arg)
			return errors.ExitConfigError
		}
		name = arg
	}

	cwd, err := os.Getwd()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}

	var created []string
	isNewProject := false

	descPath, err := project.FindDescriptor(cwd)
	switch {
	case err == nil:
		if name != "" && !strings.EqualFold(filepath.Base(descPath), name+descriptor.Extension) {
			out.Warning("%s already exists; not creating %s%s", filepath.Base(descPath), name, descriptor.Extension)
		}
		name = strings.TrimSuffix(filepath.Base(descPath), filepath.Ext(descPath))
	case stderrors.Is(err, project.ErrNoDescriptor):
		isNewProject = true
		if name == "" {
			name = filepath.Base(cwd)
		}
		name = sanitizeProjectName(name)
		descPath = filepath.Join(cwd, name+descriptor.Extension)
		content := fmt.Sprintf(descriptorTemplate, version.Current, name, strings.ToLower(name))
		if err := os.WriteFile(descPath, []byte(content), 0644); err != nil {
			out.ErrorPrefix("init: %v", err)
			return errors.ExitEnvironmentError
		}
		created = append(created, filepath.Base(descPath))
	default:
		out.ErrorPrefix("init: %v", err)
		return errors.GetExitCode(err)
	}

	for _, dir := range []string{"src", "out", "resources"} {
		path := filepath.Join(cwd, dir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				out.Warning("could not create %s: %v", dir, err)
				continue
			}
			created = append(created, dir+"/")
		}
	}

	mainPath := filepath.Join(cwd, "src", "main.js")
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		if err := os.WriteFile(mainPath, []byte(fmt.Sprintf(mainTemplate, name)), 0644); err != nil {
			out.Warning("could not create src/main.js: %v", err)
		} else {
			created = append(created, "src/main.js")
		}
	}

	if updateGitignore(cwd) {
		created = append(created, ".gitignore")
	}

	w := out
	w.Println("")
	switch {
	case isNewProject:
		w.Success("Initialized CopperGameTools project: %s", name)
	case len(created) > 0:
		w.Success("Updated CopperGameTools project: %s", name)
	default:
		w.Info("Project already initialized (nothing to do)")
	}

	if len(created) > 0 {
		w.HelpSection("Created:")
		w.List(created)
	}

	if isNewProject {
		printNextSteps(w, name)
	}
	return 0
}

// sanitizeProjectName turns a directory name into a file-name-safe project
// name. Runs of unsupported characters become a single hyphen.
func sanitizeProjectName(name string) string {
	var result strings.Builder
	prevHyphen := false
	for _, c := range name {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_':
			result.WriteRune(c)
			prevHyphen = false
		case !prevHyphen && result.Len() > 0:
			result.WriteRune('-')
			prevHyphen = true
		}
	}

	s := strings.TrimSuffix(result.String(), "-")
	if s == "" {
		s = "MyGame"
	}
	return s
}

// updateGitignore adds cgt entries to .gitignore and reports whether it
// changed the file.
func updateGitignore(root string) bool {
	gitignorePath := filepath.Join(root, ".gitignore")

	entries := []string{
		"# CopperGameTools",
		project.StateDirName + "/",
		"Data/",
	}

	existingContent := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}
	if strings.Contains(existingContent, entries[0]) {
		return false
	}

	var content strings.Builder
	if existingContent != "" {
		content.WriteString(existingContent)
		if !strings.HasSuffix(existingContent, "\n") {
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}
	for _, entry := range entries {
		content.WriteString(entry)
		content.WriteString("\n")
	}

	if err := os.WriteFile(gitignorePath, []byte(content.String()), 0644); err != nil {
		out.Warning("could not update .gitignore: %v", err)
		return false
	}
	return true
}

// printNextSteps prints helpful guidance after initialization.
func printNextSteps(w *output.Writer, name string) {
	w.HelpSection("Next steps:")
	w.Println("  1. Write your game scripts in src/ (src/main.js holds Main)")
	w.Println("  2. Put external resources in resources/")
	w.Println("  3. Run 'cgt check' to validate %s%s", name, descriptor.Extension)
	w.Println("  4. Run 'cgt build' to create out/%s.js", strings.ToLower(name))
	w.Println("")
}

// printInitUsage prints the help text for the init command.
func printInitUsage() {
	w := out

	w.HelpTitle("cgt init - create a new project")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt init [name]")

	w.HelpSection("Description:")
	w.Println("  Creates <name>.cgt, src/main.js, out/ and resources/ in the current")
	w.Println("  directory. Existing files are left untouched. The name defaults to")
	w.Println("  the directory name.")

	w.HelpSection("Examples:")
	w.HelpExample("cgt init", "Initialize using the directory name")
	w.HelpExample("cgt init SpaceRace", "Create SpaceRace.cgt")
	w.Println("")
}
