package cli

import (
	"fmt"
	"strings"

	"github.com/agbgames/cgt/internal/errors"
)

// commandInfo describes a command for completion scripts.
type commandInfo struct {
	name        string
	description string
}

// builtinCommands lists the CLI commands offered by completion.
var builtinCommands = []commandInfo{
	{"build", "Check the descriptor and build the project"},
	{"check", "Check the descriptor for errors"},
	{"info", "Show descriptor details"},
	{"watch", "Rebuild whenever project files change"},
	{"init", "Create a new project"},
	{"pack", "Pack a directory into a .cgc archive"},
	{"unpack", "Extract a .cgc archive"},
	{"clean", "Remove the unpacked data directory"},
	{"launch", "Run a built game"},
	{"completion", "Generate shell completion"},
	{"version", "Show version information"},
	{"help", "Show help"},
}

// globalFlags returns the global CLI flags.
func globalFlags() []string {
	return []string{
		"--quiet",
		"--verbose",
		"--no-log",
		"--no-color",
		"--help",
		"--version",
	}
}

func commandNames() []string {
	names := make([]string, len(builtinCommands))
	for i, c := range builtinCommands {
		names[i] = c.name
	}
	return names
}

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	shell := ""
	alias := ""

	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			out.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return errors.ExitConfigError
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("completion: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			if shell != "" {
				out.ErrorPrefix("completion: unexpected argument: %s", arg)
				return errors.ExitConfigError
			}
			shell = arg
		}
	}

	if shell == "" {
		out.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		return errors.ExitConfigError
	}

	cmdName := "cgt"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		out.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		out.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		out.Print("%s", generateFishCompletion(cmdName))
	default:
		out.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return errors.ExitConfigError
	}
	return 0
}

// printCompletionUsage prints the help text for the completion command.
func printCompletionUsage() {
	w := out

	w.HelpTitle("cgt completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt completion <shell> [--alias=<name>]")

	w.HelpSection("Arguments:")
	w.HelpFlag("<shell>", "Shell type: bash, zsh, or fish", 10)

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for command alias", 14)
	w.HelpFlag("-h, --help", "Show this help", 14)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(cgt completion bash)\"")
	w.Println("  Zsh:   eval \"$(cgt completion zsh)\"")
	w.Println("  Fish:  cgt completion fish | source")
	w.Println("")
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"

	return fmt.Sprintf(`# cgt bash completion
# Add to ~/.bashrc: eval "$(cgt completion bash)"

%[1]s() {
    local cur prev words cword
    _init_completion || return

    local commands="%[2]s"
    local flags="%[3]s"

    case "${prev}" in
        %[4]s)
            COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
        info)
            COMPREPLY=($(compgen -W "--format=text --format=json --format=yaml" -f -X '!*.cgt' -- "${cur}"))
            return
            ;;
        build|b|check|c|watch|w)
            COMPREPLY=($(compgen -f -X '!*.cgt' -- "${cur}"))
            return
            ;;
        unpack|launch)
            COMPREPLY=($(compgen -f -- "${cur}"))
            return
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
        return
    fi
    COMPREPLY=($(compgen -f -- "${cur}"))
}

complete -F %[1]s %[4]s
`, funcName, strings.Join(commandNames(), " "), strings.Join(globalFlags(), " "), cmdName)
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var cmds strings.Builder
	for _, c := range builtinCommands {
		fmt.Fprintf(&cmds, "        '%s:%s'\n", c.name, c.description)
	}

	return fmt.Sprintf(`#compdef %[1]s
# cgt zsh completion
# Add to ~/.zshrc: eval "$(cgt completion zsh)"

%[2]s() {
    local -a commands flags completion_shells

    commands=(
%[3]s    )

    flags=(
        '(-q --quiet)'{-q,--quiet}'[Minimal output]'
        '(-v --verbose)'{-v,--verbose}'[Debug output]'
        '--no-log[Do not write a log file]'
        '--no-color[Disable colored output]'
        '--help[Show help]'
        '--version[Show version]'
    )

    completion_shells=(
        'bash:Generate bash completion'
        'zsh:Generate zsh completion'
        'fish:Generate fish completion'
    )

    if (( CURRENT == 2 )); then
        _describe -t commands 'command' commands
        _arguments -s $flags[@]
        return
    fi

    case "${words[2]}" in
        completion)
            _describe -t shells 'shell' completion_shells
            ;;
        build|b|check|c|watch|w)
            _files -g '*.cgt'
            ;;
        info|i)
            _arguments '--format=[Output format]:format:(text json yaml)' '*:descriptor:_files -g "*.cgt"'
            ;;
        *)
            _files
            ;;
    esac
}

compdef %[2]s %[1]s
`, cmdName, funcName, cmds.String())
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	sb.WriteString("# cgt fish completion\n# Add to config: cgt completion fish | source\n\n")

	for _, c := range builtinCommands {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_use_subcommand' -a '%s' -d '%s'\n", cmdName, c.name, c.description)
	}

	sb.WriteString("\n# Global flags\n")
	fmt.Fprintf(&sb, "complete -c %s -s q -l quiet -d 'Minimal output'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s v -l verbose -d 'Debug output'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l no-log -d 'Do not write a log file'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l no-color -d 'Disable colored output'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l help -d 'Show help'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l version -d 'Show version'\n", cmdName)

	sb.WriteString("\n# info\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from info' -l format -xa 'text json yaml' -d 'Output format'\n", cmdName)

	sb.WriteString("\n# completion subcommands\n")
	for _, shell := range []string{"bash", "zsh", "fish"} {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from completion' -a '%s' -d 'Generate %s completion'\n", cmdName, shell, shell)
	}

	return sb.String()
}
