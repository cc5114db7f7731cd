// Package cli provides the command-line interface of cgt.
package cli

import (
	"fmt"
	"strings"

	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/output"
	"github.com/agbgames/cgt/internal/version"
)

// widthGlobalFlag aligns the global flag help column.
const widthGlobalFlag = 14

// wantsHelp returns true if args contain -h or --help before any -- separator.
// Arguments after -- are passed through to the game, so help flags there are ignored.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "--version", "version":
		out.Println("cgt %s (CopperCube %s)", version.Current, version.SupportedEngineVersion)
		return 0
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	if len(remaining) == 0 {
		printUsage()
		return 0
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "build", "b":
		return cmdBuild(cmdArgs, opts)
	case "check", "c":
		return cmdCheck(cmdArgs, opts)
	case "info", "i":
		return cmdInfo(cmdArgs, opts)
	case "init":
		return cmdInit(cmdArgs)
	case "pack":
		return cmdPack(cmdArgs, opts)
	case "unpack":
		return cmdUnpack(cmdArgs, opts)
	case "clean":
		return cmdClean(cmdArgs, opts)
	case "launch":
		return cmdLaunch(cmdArgs, opts)
	case "watch", "w":
		return cmdWatch(cmdArgs, opts)
	case "completion":
		return cmdCompletion(cmdArgs)
	case "help":
		printUsage()
		return 0
	case "version":
		out.Println("cgt %s (CopperCube %s)", version.Current, version.SupportedEngineVersion)
		return 0
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Errorln("Run 'cgt help' for usage.")
		return errors.ExitRuntimeError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet   bool
	Verbose bool
	NoLog   bool
	NoColor bool
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Flags can appear anywhere in the argument list and everything after --
// is kept verbatim for the launched game, which the flag package cannot do.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
		case arg == "--no-log":
			opts.NoLog = true
		case arg == "--no-color":
			opts.NoColor = true
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			i = len(args)
		default:
			remaining = append(remaining, arg)
		}
	}

	if opts.Quiet && opts.Verbose {
		return nil, nil, fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}

	out.SetQuiet(opts.Quiet)
	if opts.NoColor {
		out.SetColor(false)
	}
	return opts, remaining, nil
}

// splitPassthrough separates arguments before and after --.
func splitPassthrough(args []string) (before, after []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

// parseFlagValue reads --name=value or --name value from args[i].
// It returns the value, the number of arguments consumed and whether the
// flag matched.
func parseFlagValue(args []string, i int, name string) (string, int, bool, error) {
	arg := args[i]
	if v, ok := strings.CutPrefix(arg, name+"="); ok {
		return v, 1, true, nil
	}
	if arg != name {
		return "", 0, false, nil
	}
	if i+1 >= len(args) {
		return "", 1, true, fmt.Errorf("%s requires a value", name)
	}
	return args[i+1], 2, true, nil
}

func printUsage() {
	w := out

	w.HelpTitle(fmt.Sprintf("cgt %s - CopperGameTools build pipeline for CopperCube games", version.Current))

	w.HelpSection("Usage:")
	w.HelpUsage("cgt [flags] <command> [args]")

	w.HelpSection("Project Commands:")
	w.HelpCommand("build, b [file]", "Check the descriptor and build the project", 18)
	w.HelpCommand("check, c [file]", "Check the descriptor for errors", 18)
	w.HelpCommand("info, i [file]", "Show descriptor details and resolved values", 18)
	w.HelpCommand("watch, w [file]", "Rebuild whenever project files change", 18)
	w.HelpCommand("init [name]", "Create a new project in the current directory", 18)

	w.HelpSection("Resource Commands:")
	w.HelpCommand("pack <dir> <name> <outdir>", "Pack a directory into <outdir>/<name>.cgc", 27)
	w.HelpCommand("unpack <archive> [dest]", "Extract a .cgc archive", 27)
	w.HelpCommand("clean", "Remove the unpacked data directory", 27)
	w.HelpCommand("launch <exe> [archive]", "Unpack resources, run the game and clean up", 27)

	w.HelpSection("Utility Commands:")
	w.HelpCommand("completion", "Generate shell completion (bash, zsh, fish)", 12)
	w.HelpCommand("version", "Show version information", 12)
	w.HelpCommand("help", "Show this help", 12)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("cgt init MyGame", "Create MyGame.cgt, src/main.js and out/")
	w.HelpExample("cgt build", "Build the descriptor in the current directory")
	w.HelpExample("cgt check game.cgt", "Check a specific descriptor")
	w.HelpExample("cgt info --format=json", "Print descriptor details as JSON")
	w.HelpExample("cgt launch out/game.exe out/mygame.cgc -- -debug", "Run a built game")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Minimal output (warnings and errors only)", widthGlobalFlag)
	w.HelpFlag("-v, --verbose", "Debug output", widthGlobalFlag)
	w.HelpFlag("--no-log", "Do not write <command>-latest.log", widthGlobalFlag)
	w.HelpFlag("--no-color", "Disable colored output", widthGlobalFlag)
	w.HelpFlag("-h, --help", "Show help", widthGlobalFlag)
	w.HelpFlag("--version", "Show version", widthGlobalFlag)

	w.HelpSection("Environment:")
	w.HelpEnvVar("CGT_LOG_DIR", "Directory for log files (default: <project>/.cgt)", 14)
	w.HelpEnvVar("CGT_NO_COLOR", "Disable colored output", 14)
}
