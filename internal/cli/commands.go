package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agbgames/cgt/internal/builder"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/launcher"
	"github.com/agbgames/cgt/internal/output"
	"github.com/agbgames/cgt/internal/packer"
	"github.com/agbgames/cgt/internal/report"
	"github.com/agbgames/cgt/internal/version"
	"github.com/agbgames/cgt/internal/watch"
)

// Help text alignment widths for consistent formatting.
const (
	helpFlagWidthShort = 10 // Width for short flags like "-h, --help"
	helpFlagWidthValue = 16 // Width for flags with values like "--format=<f>"
)

// rejectFlags reports the first argument that looks like an unknown flag.
func rejectFlags(cmd string, args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && arg != "-" {
			out.ErrorPrefix("%s: unknown option %q", cmd, arg)
			return true
		}
	}
	return false
}

// newBuilder creates a builder wired to the session settings.
func (s *session) newBuilder() *builder.Builder {
	return builder.New(s.store, builder.Options{
		Logger:      s.logger,
		Packer:      packer.New(s.settings.Data(), s.logger),
		ToolVersion: version.Current,
		HookTimeout: s.settings.HookTimeout(),
	})
}

// cmdBuild checks the descriptor and builds the project.
func cmdBuild(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printBuildUsage()
		return 0
	}
	if rejectFlags("build", args) {
		return errors.ExitConfigError
	}

	s, code := openProject("build", args, opts)
	if s == nil {
		return code
	}
	defer s.close()

	ctx, cancel := interruptContext()
	defer cancel()

	res := s.newBuilder().Build(ctx)
	printBuildSummary(res)
	return res.Outcome.ExitCode()
}

func printBuildSummary(res *builder.Result) {
	out.SummaryHeader("Build Summary")
	if res.OK() {
		out.SummaryPassed("Result", res.Outcome.String())
	} else {
		out.SummaryFailed("Result", res.Outcome.String())
	}
	if res.BundlePath != "" {
		out.SummaryItem("Bundle", fmt.Sprintf("%s (%s)", res.BundlePath, output.Size(res.BundleSize)))
	}
	if res.ArchivePath != "" {
		out.SummaryItem("Resources", res.ArchivePath)
	}
	if res.Hook != nil {
		status := fmt.Sprintf("exit %d in %s", res.Hook.ExitCode, output.Duration(res.Hook.Duration))
		if res.Hook.ExitCode == 0 {
			out.SummaryPassed("Post-build", status)
		} else {
			out.SummaryFailed("Post-build", status)
		}
	}
	if n := len(res.Warnings); n > 0 {
		out.SummaryWarned("Warnings", fmt.Sprintf("%d", n))
	}
	out.SummaryItem("Duration", output.Duration(res.Duration))

	if res.OK() {
		out.FinalSuccess("Build succeeded.")
	} else {
		out.FinalFailure("Build failed: %v", res.Err)
	}
}

// cmdCheck checks the descriptor and prints every error found.
func cmdCheck(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printCheckUsage()
		return 0
	}
	if rejectFlags("check", args) {
		return errors.ExitConfigError
	}

	s, code := openProject("check", args, opts)
	if s == nil {
		return code
	}
	defer s.close()

	if !s.store.Exists() {
		out.ErrorPrefix("cannot read descriptor %s: %v", s.store.Path(), s.store.Err())
		return errors.ExitEnvironmentError
	}

	res := s.store.Check()
	for _, e := range res.Errors {
		out.Println("%s", e)
		s.logger.Debug("check error", "kind", e.Kind.String(), "line", e.Line)
	}
	out.Println("Check result: %s", res.Type)
	if res.HasErrors() {
		return errors.ExitConfigError
	}
	return 0
}

// cmdInfo prints what the descriptor defines and how it resolves.
func cmdInfo(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printInfoUsage()
		return 0
	}

	format := report.FormatText
	var positional []string
	for i := 0; i < len(args); {
		v, n, ok, err := parseFlagValue(args, i, "--format")
		if err != nil {
			out.ErrorPrefix("info: %v", err)
			return errors.ExitConfigError
		}
		if ok {
			if format, err = report.ParseFormat(v); err != nil {
				out.ErrorPrefix("info: %v", err)
				return errors.ExitConfigError
			}
			i += n
			continue
		}
		if strings.HasPrefix(args[i], "-") {
			out.ErrorPrefix("info: unknown option %q", args[i])
			return errors.ExitConfigError
		}
		positional = append(positional, args[i])
		i++
	}

	s, code := openProject("info", positional, opts)
	if s == nil {
		return code
	}
	defer s.close()

	info := report.FromStore(s.store, version.Current)
	if err := report.Render(out.Out(), info, format); err != nil {
		out.ErrorPrefix("info: %v", err)
		return errors.ExitRuntimeError
	}
	if !info.Exists {
		return errors.ExitEnvironmentError
	}
	return 0
}

// cmdPack packs a directory into a resource archive.
func cmdPack(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printPackUsage()
		return 0
	}
	if len(args) != 3 {
		out.ErrorPrefix("pack: expected <dir> <name> <outdir>")
		return errors.ExitConfigError
	}

	s := newSession("pack", "", opts)
	defer s.close()

	start := time.Now()
	archive, err := packer.New(s.settings.Data(), s.logger).Pack(args[0], args[1], args[2])
	if err != nil {
		out.ErrorPrefix("pack: %v", err)
		return errors.ExitEnvironmentError
	}
	out.Success("Packed %s in %s", archive, output.Duration(time.Since(start)))
	return 0
}

// cmdUnpack extracts a resource archive.
func cmdUnpack(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printUnpackUsage()
		return 0
	}
	if len(args) < 1 || len(args) > 2 {
		out.ErrorPrefix("unpack: expected <archive> [dest]")
		return errors.ExitConfigError
	}

	s := newSession("unpack", "", opts)
	defer s.close()

	p := packer.New(s.settings.Data(), s.logger)
	dest := p.DataDir
	if len(args) == 2 {
		dest = args[1]
	}
	if err := p.Unpack(args[0], dest); err != nil {
		out.ErrorPrefix("unpack: %v", err)
		return errors.ExitEnvironmentError
	}
	out.Success("Unpacked %s into %s", args[0], dest)
	return 0
}

// cmdClean removes the data directory used for unpacked resources.
func cmdClean(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printCleanUsage()
		return 0
	}
	if len(args) > 0 {
		out.ErrorPrefix("clean: unexpected argument %q", args[0])
		return errors.ExitConfigError
	}

	s := newSession("clean", "", opts)
	defer s.close()

	p := packer.New(s.settings.Data(), s.logger)
	if err := p.Clean(); err != nil {
		out.ErrorPrefix("clean: %v", err)
		return errors.ExitEnvironmentError
	}
	out.Success("Removed %s", p.DataDir)
	return 0
}

// cmdLaunch runs a built game with its resources unpacked.
func cmdLaunch(args []string, opts *GlobalOptions) int {
	before, gameArgs := splitPassthrough(args)
	if wantsHelp(before) {
		printLaunchUsage()
		return 0
	}
	if len(before) < 1 || len(before) > 2 {
		out.ErrorPrefix("launch: expected <executable> [archive] [-- args]")
		return errors.ExitConfigError
	}

	s := newSession("launch", "", opts)
	defer s.close()

	lo := launcher.Options{
		Executable: before[0],
		DataDir:    s.settings.DataDir,
		Args:       gameArgs,
		Logger:     s.logger,
	}
	if len(before) == 2 {
		lo.Archive = before[1]
	}

	ctx, cancel := interruptContext()
	defer cancel()

	res, err := launcher.Launch(ctx, lo)
	if err != nil {
		out.ErrorPrefix("launch: %v", err)
		return errors.ExitRuntimeError
	}
	out.Info("Game exited after %s", output.Duration(res.Duration))
	return 0
}

// cmdWatch rebuilds the project whenever its files change.
func cmdWatch(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printWatchUsage()
		return 0
	}
	if rejectFlags("watch", args) {
		return errors.ExitConfigError
	}

	s, code := openProject("watch", args, opts)
	if s == nil {
		return code
	}
	defer s.close()

	ignore := []string{s.logDir()}
	if data, err := filepath.Abs(s.settings.Data()); err == nil {
		ignore = append(ignore, data)
	}

	w := watch.New(s.store, s.newBuilder(), watch.Options{
		Ignore:  ignore,
		Logger:  s.logger,
		OnBuild: printWatchResult,
	})

	ctx, cancel := interruptContext()
	defer cancel()

	out.Info("Watching %s (Ctrl+C to stop)", s.store.Dir())
	if err := w.Run(ctx); err != nil {
		out.ErrorPrefix("watch: %v", err)
		return errors.ExitEnvironmentError
	}
	return 0
}

func printWatchResult(res *builder.Result) {
	switch {
	case !res.OK():
		out.ErrorPrefix("build failed: %v", res.Err)
	case len(res.Warnings) > 0:
		out.Warning("build succeeded with %d warning(s) in %s", len(res.Warnings), output.Duration(res.Duration))
	default:
		out.Success("Build succeeded in %s", output.Duration(res.Duration))
	}
}

// printBuildUsage prints the help text for the build command.
func printBuildUsage() {
	w := out

	w.HelpTitle("cgt build - build a CopperCube project")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt build [file]")

	w.HelpSection("Description:")
	w.Println("  Checks the descriptor, merges every script below the source directory")
	w.Println("  into <out.dir>/<src.out>.js, packs external resources into a .cgc")
	w.Println("  archive and runs the post-build command when enabled.")
	w.Println("  Without a file, the single .cgt descriptor in the current directory")
	w.Println("  (or the nearest parent) is used.")

	w.HelpSection("Exit Codes:")
	w.HelpCommand("0", "Build succeeded", 2)
	w.HelpCommand("2", "Descriptor errors", 2)
	w.HelpCommand("3", "Missing files or directories", 2)

	w.HelpSection("Examples:")
	w.HelpExample("cgt build", "Build the project in the current directory")
	w.HelpExample("cgt b game.cgt", "Build a specific descriptor")
	w.Println("")
}

// printCheckUsage prints the help text for the check command.
func printCheckUsage() {
	w := out

	w.HelpTitle("cgt check - check a descriptor for errors")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt check [file]")

	w.HelpSection("Description:")
	w.Println("  Reports lines without '=', empty keys or values and duplicated keys.")
	w.Println("  Prints 'Check result: NoErrors' or 'Check result: HasErrors'.")

	w.HelpSection("Options:")
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthShort)

	w.HelpSection("Examples:")
	w.HelpExample("cgt check", "Check the descriptor in the current directory")
	w.Println("")
}

// printInfoUsage prints the help text for the info command.
func printInfoUsage() {
	w := out

	w.HelpTitle("cgt info - show descriptor details")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt info [file] [--format=<format>]")

	w.HelpSection("Options:")
	w.HelpFlag("--format=<format>", "Output format: text, json or yaml", helpFlagWidthValue)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthValue)

	w.HelpSection("Examples:")
	w.HelpExample("cgt info", "Show resolved values and paths")
	w.HelpExample("cgt info --format=json", "Machine-readable output")
	w.Println("")
}

// printPackUsage prints the help text for the pack command.
func printPackUsage() {
	w := out

	w.HelpTitle("cgt pack - create a resource archive")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt pack <dir> <name> <outdir>")

	w.HelpSection("Description:")
	w.Println("  Stores every file below <dir> in <outdir>/<name>.cgc.")

	w.HelpSection("Examples:")
	w.HelpExample("cgt pack resources mygame out", "Write out/mygame.cgc")
	w.Println("")
}

// printUnpackUsage prints the help text for the unpack command.
func printUnpackUsage() {
	w := out

	w.HelpTitle("cgt unpack - extract a resource archive")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt unpack <archive> [dest]")

	w.HelpSection("Description:")
	w.Println("  Extracts the archive into [dest], or into the data directory")
	w.Println("  (settings data_dir, default ./Data) when omitted.")

	w.HelpSection("Examples:")
	w.HelpExample("cgt unpack out/mygame.cgc", "Extract into ./Data")
	w.Println("")
}

// printCleanUsage prints the help text for the clean command.
func printCleanUsage() {
	w := out

	w.HelpTitle("cgt clean - remove unpacked resources")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt clean")

	w.HelpSection("Examples:")
	w.HelpExample("cgt clean", "Remove ./Data")
	w.Println("")
}

// printLaunchUsage prints the help text for the launch command.
func printLaunchUsage() {
	w := out

	w.HelpTitle("cgt launch - run a built game")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt launch <executable> [archive] [-- args]")

	w.HelpSection("Description:")
	w.Println("  Unpacks the archive into Data/ next to the executable, runs the game")
	w.Println("  until it exits and removes Data/ again. Arguments after -- are passed")
	w.Println("  to the game.")

	w.HelpSection("Examples:")
	w.HelpExample("cgt launch out/game.exe out/mygame.cgc", "Run with resources")
	w.Println("")
}

// printWatchUsage prints the help text for the watch command.
func printWatchUsage() {
	w := out

	w.HelpTitle("cgt watch - rebuild on change")

	w.HelpSection("Usage:")
	w.HelpUsage("cgt watch [file]")

	w.HelpSection("Description:")
	w.Println("  Builds once, then rebuilds whenever a file in the project directory")
	w.Println("  changes. The output, log and data directories are ignored.")
	w.Println("  Stop with Ctrl+C.")

	w.HelpSection("Examples:")
	w.HelpExample("cgt watch", "Watch the project in the current directory")
	w.Println("")
}
