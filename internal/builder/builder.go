// Package builder turns a project descriptor into a CopperCube script bundle,
// an optional resource archive and an optional post-build command run.
package builder

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/internal/hook"
	"github.com/agbgames/cgt/internal/logging"
	"github.com/agbgames/cgt/internal/packer"
	"github.com/agbgames/cgt/internal/project"
	"github.com/agbgames/cgt/internal/version"
)

// Packer writes resource archives.
type Packer interface {
	Pack(sourceDir, name, outputDir string) (string, error)
}

// HookRunner runs post-build commands.
type HookRunner interface {
	Run(ctx context.Context, dir, command string, timeout time.Duration) (*hook.Result, error)
}

// Options configures a Builder. Zero values select defaults.
type Options struct {
	Logger *slog.Logger
	Packer Packer
	Hook   HookRunner
	// ToolVersion is compared against builder.version. Defaults to version.Current.
	ToolVersion string
	// HookTimeout applies when project.postbuild.timeout is not set.
	HookTimeout time.Duration
}

// Result is the outcome of one build.
type Result struct {
	ID      uuid.UUID
	Outcome Outcome
	// Err explains a failed outcome; nil on success.
	Err error
	// Check is set once the descriptor has been checked.
	Check       *descriptor.CheckResult
	Layout      *project.Layout
	BundlePath  string
	BundleSize  int64
	ArchivePath string
	Hook        *hook.Result
	Warnings    []string
	Duration    time.Duration
}

// OK reports whether the build succeeded.
func (r *Result) OK() bool {
	return r.Outcome == Succeeded
}

// Builder builds the project described by one descriptor store.
type Builder struct {
	store       *descriptor.Store
	logger      *slog.Logger
	packer      Packer
	hook        HookRunner
	toolVersion string
	hookTimeout time.Duration
}

// New returns a Builder for store.
func New(store *descriptor.Store, opts Options) *Builder {
	b := &Builder{
		store:       store,
		logger:      opts.Logger,
		packer:      opts.Packer,
		hook:        opts.Hook,
		toolVersion: opts.ToolVersion,
		hookTimeout: opts.HookTimeout,
	}
	if b.logger == nil {
		b.logger = logging.Discard()
	}
	if b.packer == nil {
		b.packer = packer.New("", b.logger)
	}
	if b.hook == nil {
		b.hook = &hook.Runner{}
	}
	if b.toolVersion == "" {
		b.toolVersion = version.Current
	}
	if b.hookTimeout <= 0 {
		b.hookTimeout = hook.DefaultTimeout
	}
	return b
}

// Build runs the build steps in order and stops at the first failure.
// Resource packing and the post-build command only produce warnings.
func (b *Builder) Build(ctx context.Context) *Result {
	start := time.Now()
	res := &Result{ID: uuid.New()}
	log := b.logger.With("build", res.ID.String())
	log.Info(fmt.Sprintf("Building with CopperGameTools v%s", b.toolVersion), "descriptor", b.store.Path())

	res.Outcome = b.run(ctx, res, log)
	res.Duration = time.Since(start)

	if res.OK() {
		log.Info(fmt.Sprintf("Build succeeded in %s", res.Duration.Round(time.Millisecond)), "warnings", len(res.Warnings))
	} else {
		log.Error(fmt.Sprintf("Build failed: %s", res.Outcome), "error", res.Err)
	}
	return res
}

func (b *Builder) run(ctx context.Context, res *Result, log *slog.Logger) Outcome {
	fail := func(err error) Outcome {
		res.Err = err
		return outcomeOf(err)
	}

	if err := b.checkVersion(res, log); err != nil {
		return fail(err)
	}
	if err := b.preflight(); err != nil {
		return fail(err)
	}

	res.Check = b.store.Check()
	if res.Check.HasErrors() {
		log.Warn(fmt.Sprintf("%d error(s) have been found! Aborting...", len(res.Check.Errors)))
		for _, e := range res.Check.Errors {
			log.Error(e.String())
		}
		return fail(errors.Validation(len(res.Check.Errors)).WithPath(b.store.Path()))
	}

	layout, err := project.ResolveLayout(b.store)
	if err != nil {
		return fail(err)
	}
	res.Layout = layout

	log.Info(fmt.Sprintf("STEP 1: Packing script sources into %s.js", layout.OutputName))
	if err := b.writeBundle(res, layout); err != nil {
		return fail(err)
	}
	log.Info("Packed sources", "bundle", res.BundlePath, "bytes", res.BundleSize)

	log.Info("STEP 2: Processing external resources")
	b.packResources(res, layout, log)

	b.runHook(ctx, res, log)
	return Succeeded
}

// checkVersion compares builder.version with the running tool version.
func (b *Builder) checkVersion(res *Result, log *slog.Logger) error {
	required, err := b.store.GetBool(descriptor.KeyBuilderRequireVersion, false)
	if err != nil {
		return errors.WrapKind(errors.KindConfig, err, "invalid value").WithKey(descriptor.KeyBuilderRequireVersion)
	}
	want, err := b.store.Resolve(descriptor.KeyBuilderVersion)
	if stderrors.Is(err, descriptor.ErrKeyNotFound) || (err == nil && strings.TrimSpace(want) == "") {
		return nil
	}
	if err != nil {
		return errors.WrapKind(errors.KindConfig, err, "cannot resolve").WithKey(descriptor.KeyBuilderVersion)
	}

	ok, matchErr := version.Matches(want, b.toolVersion)
	if ok {
		return nil
	}
	msg := fmt.Sprintf("project targets cgt %s, running %s", strings.TrimSpace(want), b.toolVersion)
	if matchErr != nil {
		msg = matchErr.Error()
	}
	if required {
		return errors.Config(msg).WithKey(descriptor.KeyBuilderVersion)
	}
	res.warn(log, "%s: %s", descriptor.KeyBuilderVersion, msg)
	return nil
}

// preflight makes sure the descriptor and its directory are accessible.
func (b *Builder) preflight() error {
	if !b.store.Exists() {
		err := errors.Environment("descriptor does not exist or cannot be read").WithPath(b.store.Path())
		err.Cause = b.store.Err()
		return err
	}
	info, err := os.Stat(b.store.Dir())
	if err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, "cannot access project directory").WithPath(b.store.Dir())
	}
	if !info.IsDir() {
		return errors.Environment("project directory is not a directory").WithPath(b.store.Dir())
	}
	return nil
}

func (b *Builder) writeBundle(res *Result, layout *project.Layout) error {
	entries, err := b.store.ResolveAll()
	if err != nil {
		return errors.WrapKind(errors.KindConfig, err, "cannot resolve descriptor values")
	}
	data, err := Bundle(entries, layout, b.toolVersion)
	if err != nil {
		return err
	}
	path := layout.BundlePath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapKind(errors.KindConfig, err, "failed to write bundle").WithKey(descriptor.KeySourceOut).WithPath(path)
	}
	res.BundlePath = path
	res.BundleSize = int64(len(data))
	return nil
}

// packResources archives the external resource directory. Every problem is
// a warning.
func (b *Builder) packResources(res *Result, layout *project.Layout, log *slog.Logger) {
	dir := b.store.GetKey(descriptor.KeyResourcesDir)
	enabled, err := b.store.GetBool(descriptor.KeyResourcesEnabled, dir != "")
	if err != nil {
		res.warn(log, "%v; resources will not be packed", err)
		return
	}
	if !enabled {
		log.Info("No external resources folder enabled, no resources will be packed")
		return
	}
	if dir == "" {
		res.warn(log, "%s is enabled but %s is not set; resources will not be packed", descriptor.KeyResourcesEnabled, descriptor.KeyResourcesDir)
		return
	}

	base := b.store.Dir()
	src := project.Abs(base, dir)
	out := layout.OutputDir
	if v := b.store.GetKey(descriptor.KeyResourcesOut); v != "" {
		out = project.Abs(base, v)
	}

	if _, err := os.Stat(src); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(src, 0755); mkErr != nil {
			res.warn(log, "cannot create resource directory %s: %v", src, mkErr)
			return
		}
		res.warn(log, "resource directory %s did not exist and was created; nothing to pack", src)
		return
	}

	name := cases.Lower(language.Und).String(layout.Name)
	archive, err := b.packer.Pack(src, name, out)
	if err != nil {
		res.warn(log, "packing resources failed: %v", err)
		return
	}
	res.ArchivePath = archive
	log.Info("Packed resources", "archive", archive)
}

// runHook runs the post-build command and waits for it. Every problem is a
// warning.
func (b *Builder) runHook(ctx context.Context, res *Result, log *slog.Logger) {
	enabled, err := b.store.GetBool(descriptor.KeyPostBuildEnabled, false)
	if err != nil {
		res.warn(log, "%v; post-build command skipped", err)
		return
	}
	if !enabled {
		return
	}

	log.Info("STEP 3: Running post-build command")
	command := b.store.GetKey(descriptor.KeyPostBuildCommand)
	if strings.TrimSpace(command) == "" {
		res.warn(log, "%s is enabled but %s is empty", descriptor.KeyPostBuildEnabled, descriptor.KeyPostBuildCommand)
		return
	}

	timeout := b.hookTimeout
	secs, err := b.store.GetInt(descriptor.KeyPostBuildTimeout, 0)
	switch {
	case err != nil:
		res.warn(log, "%v; using %s", err, timeout)
	case secs > 0:
		timeout = time.Duration(secs) * time.Second
	case secs < 0:
		res.warn(log, "%s must be positive; using %s", descriptor.KeyPostBuildTimeout, timeout)
	}

	hr, err := b.hook.Run(ctx, b.store.Dir(), command, timeout)
	res.Hook = hr
	if hr != nil {
		for _, line := range splitLines(hr.Stdout) {
			log.Info(line, "stream", "stdout")
		}
		for _, line := range splitLines(hr.Stderr) {
			log.Warn(line, "stream", "stderr")
		}
	}
	if err != nil {
		res.warn(log, "post-build command failed: %v", err)
		return
	}
	log.Info("Post-build command finished", "duration", hr.Duration.Round(time.Millisecond))
}

func (r *Result) warn(log *slog.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
