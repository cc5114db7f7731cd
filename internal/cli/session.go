package cli

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/logging"
	"github.com/agbgames/cgt/internal/output"
	"github.com/agbgames/cgt/internal/project"
	"github.com/agbgames/cgt/internal/settings"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// session carries what a command needs: settings, a logger writing to the
// console and the command log file, and the loaded descriptor.
type session struct {
	settings *settings.Settings
	logger   *slog.Logger
	store    *descriptor.Store
	logFile  *os.File
}

// newSession loads settings and configures logging for command. When
// projectDir is non-empty the command log file is written below it.
func newSession(command, projectDir string, opts *GlobalOptions) *session {
	s := &session{}
	cfg, err := settings.Load()
	if err != nil {
		out.Warning("ignoring settings: %v", err)
	}
	s.settings = cfg

	color := cfg.ColorEnabled(out.Color()) && !opts.NoColor
	out.SetColor(color)

	level := logging.ParseLevel(cfg.Level())
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelWarn
	}

	logOpts := logging.Options{Console: out.Out(), Level: level, Color: color, FileFormat: cfg.Format()}
	if projectDir != "" && cfg.IsLogFileEnabled() && !opts.NoLog {
		f, err := logging.OpenLogFile(cfg.ResolveLogDir(projectDir), command)
		if err != nil {
			out.Warning("%v", err)
		} else {
			s.logFile = f
			logOpts.File = f
		}
	}
	s.logger = logging.New(logOpts)
	return s
}

// openProject resolves the descriptor named by args and starts a session in
// its directory.
func openProject(command string, args []string, opts *GlobalOptions) (*session, int) {
	path, err := project.Resolve(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		if stderrors.Is(err, project.ErrNoDescriptor) {
			out.Hint("Run 'cgt init <name>' to create a project here.")
		}
		return nil, descriptorExitCode(err)
	}
	s := newSession(command, filepath.Dir(path), opts)
	s.store = descriptor.Load(path, descriptor.WithLogger(s.logger))
	return s, 0
}

// descriptorExitCode maps a descriptor lookup failure to an exit code.
func descriptorExitCode(err error) int {
	if stderrors.Is(err, project.ErrNoDescriptor) {
		return errors.ExitEnvironmentError
	}
	var ambiguous *project.AmbiguousDescriptorError
	if stderrors.As(err, &ambiguous) {
		return errors.ExitConfigError
	}
	return errors.ExitEnvironmentError
}

// close releases the command log file.
func (s *session) close() {
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// logDir returns the absolute log directory of the session project.
func (s *session) logDir() string {
	return s.settings.ResolveLogDir(s.store.Dir())
}

// interruptContext returns a context cancelled on SIGINT.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
