// Package hook runs the post-build command of a project.
//
// The command line is split into arguments with POSIX shell word rules but is
// executed directly, never through a shell.
package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// DefaultTimeout bounds a post-build command when none is configured.
const DefaultTimeout = 60 * time.Second

// waitDelay is how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// ErrEmptyCommand is returned when the command line holds no words.
var ErrEmptyCommand = errors.New("post-build command is empty")

// ErrTimeout is returned when the command outlives its timeout.
var ErrTimeout = errors.New("post-build command timed out")

// Result describes a finished (or killed) command.
type Result struct {
	Argv     []string      `json:"argv"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// Runner executes post-build commands.
type Runner struct{}

// Split parses command into argv.
func Split(command string) ([]string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse post-build command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// Run executes command in dir and blocks until it exits, ctx is cancelled or
// timeout elapses. A zero timeout means DefaultTimeout.
//
// The returned Result is non-nil whenever the process was started, even if
// it failed.
func (r *Runner) Run(ctx context.Context, dir, command string, timeout time.Duration) (*Result, error) {
	argv, err := Split(command)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	runErr := cmd.Wait()

	res := &Result{
		Argv:     argv,
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   strings.TrimRight(stdout.String(), "\r\n"),
		Stderr:   strings.TrimRight(stderr.String(), "\r\n"),
		Duration: time.Since(start),
	}

	switch {
	case runErr == nil:
		return res, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case ctx.Err() != nil:
		return res, ctx.Err()
	default:
		return res, fmt.Errorf("%s: %w", argv[0], runErr)
	}
}
