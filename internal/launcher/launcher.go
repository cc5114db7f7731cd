// Package launcher starts a built game with its resources unpacked next to
// it and removes the unpacked data afterwards.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agbgames/cgt/internal/logging"
	"github.com/agbgames/cgt/internal/packer"
)

// Options describes one game launch.
type Options struct {
	// Executable is the game binary.
	Executable string
	// Archive is the .cgc resource archive. Empty means no resources.
	Archive string
	// DataDir receives the unpacked resources. Defaults to "Data" next to
	// the executable.
	DataDir string
	Args    []string
	Logger  *slog.Logger
}

// Result describes a finished game process.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Launch unpacks the archive, runs the game until it exits and cleans the
// data directory. Cleaning happens even when unpacking or the game fails.
func Launch(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	if opts.Executable == "" {
		return nil, errors.New("no executable given")
	}
	exe, err := filepath.Abs(opts.Executable)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("executable: %w", err)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(exe), packer.DefaultDataDir)
	}
	p := packer.New(dataDir, log)
	defer func() {
		if err := p.Clean(); err != nil {
			log.Warn("cannot remove data directory", "dir", dataDir, "error", err)
		}
	}()

	if opts.Archive != "" {
		log.Info("Unpacking resources", "archive", opts.Archive, "dir", dataDir)
		if err := p.Unpack(opts.Archive, ""); err != nil {
			return nil, fmt.Errorf("unpack resources: %w", err)
		}
	}

	return run(ctx, exe, opts.Args, log)
}

func run(ctx context.Context, exe string, args []string, log *slog.Logger) (*Result, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = filepath.Dir(exe)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log.Info("Starting game", "executable", exe)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go stream(&wg, stdout, log, slog.LevelInfo)
	go stream(&wg, stderr, log, slog.LevelWarn)
	wg.Wait()

	waitErr := cmd.Wait()
	res := &Result{ExitCode: cmd.ProcessState.ExitCode(), Duration: time.Since(start)}
	if waitErr != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("game exited: %w", waitErr)
	}
	log.Info("Game exited", "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// stream logs r line by line until EOF. Lines have no length limit so the
// game never blocks on a full pipe.
func stream(wg *sync.WaitGroup, r io.Reader, log *slog.Logger, level slog.Level) {
	defer wg.Done()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			log.Log(context.Background(), level, strings.TrimRight(line, "\r\n"), "source", "game")
		}
		if err != nil {
			if err != io.EOF {
				io.Copy(io.Discard, r)
			}
			return
		}
	}
}
