// Package engine runs the stages of a build in order: load the spec, check the
// output location, build the tree, archive it and run the post-build hooks.
//
// Every stage is behind a small interface so tests can replace it. Optional
// stages report "nothing to do" with a hint (see package hints); hints are
// logged at debug level, any other error ends the run.
package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/paulschiretz/pgl-tree/pkg/archive"
	"github.com/paulschiretz/pgl-tree/pkg/hints"
	"github.com/paulschiretz/pgl-tree/pkg/hook"
	"github.com/paulschiretz/pgl-tree/pkg/metrics"
	"github.com/paulschiretz/pgl-tree/pkg/planner"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/preflight"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
	"github.com/paulschiretz/pgl-tree/pkg/treebuild"
	"github.com/paulschiretz/pgl-tree/pkg/treeview"
)

type validator interface {
	Run(ctx context.Context, absOutputPath, absRootPath string, p *preflight.Plan) error
}

type archiver interface {
	Archive(ctx context.Context, absOutputPath, absRootPath string, p *archive.Plan) (archive.Result, error)
}

type hookRunner interface {
	Run(ctx context.Context, absRootPath string, p *hook.Plan) error
}

type specLoader func(path string, opts spec.LoadOptions) (spec.ProjectSpec, error)

// Runner wires the stages of a build together.
type Runner struct {
	validator validator
	archiver  archiver
	hooks     hookRunner
	loadSpec  specLoader
	// reporter receives every build decision; nil uses the logging reporter.
	reporter treebuild.Reporter
}

// NewRunner creates a Runner that loads specs from disk or stdin.
func NewRunner(v validator, a archiver, h hookRunner) *Runner {
	return &Runner{
		validator: v,
		archiver:  a,
		hooks:     h,
		loadSpec:  spec.Load,
	}
}

// SetReporter replaces the logging reporter used for build decisions.
func (r *Runner) SetReporter(rep treebuild.Reporter) {
	r.reporter = rep
}

// ExecuteBuild runs a full build and returns the absolute path of the project root.
func (r *Runner) ExecuteBuild(ctx context.Context, p *planner.BuildPlan) (string, error) {
	// Check for cancellation at the very beginning.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	project, err := r.loadSpec(p.SpecPath, p.Spec)
	if err != nil {
		return "", fmt.Errorf("failed to load spec: %w", err)
	}
	folders, files := project.Count()
	plog.Debug("Spec loaded", "root", project.Root, "folders", folders, "files", files)

	absOutputPath, err := filepath.Abs(p.OutputDir)
	if err != nil {
		return "", fmt.Errorf("could not determine absolute path for output directory %s: %w", p.OutputDir, err)
	}
	absRootPath, err := treebuild.Resolve(absOutputPath, project.Root)
	if err != nil {
		return "", fmt.Errorf("root %q: %w", project.Root, err)
	}

	if err := r.validator.Run(ctx, absOutputPath, absRootPath, p.Preflight); err != nil {
		return "", fmt.Errorf("preflight failed: %w", err)
	}

	var m metrics.Metrics = &metrics.NoopMetrics{}
	if p.Metrics {
		m = &metrics.BuildMetrics{}
	}

	if p.DryRun {
		plog.Info("Starting build (DRY RUN)", "output", absOutputPath, "root", project.Root)
	} else {
		plog.Info("Starting build", "output", absOutputPath, "root", project.Root)
	}

	builder := treebuild.New(p.Build, r.reporter, m)
	root, err := builder.Build(project, absOutputPath)
	if err != nil {
		return "", fmt.Errorf("build failed: %w", err)
	}

	// root is resolved through links, so the output must be too for the
	// archive to land inside it.
	resolvedOutput, err := treebuild.Resolve(absOutputPath, ".")
	if err != nil {
		return root, fmt.Errorf("archive failed: %w", err)
	}
	res, err := r.archiver.Archive(ctx, resolvedOutput, root, p.Archive)
	if err != nil {
		if !hints.IsHint(err) {
			return root, fmt.Errorf("archive failed: %w", err)
		}
		plog.Debug("Archive skipped", "reason", err)
	} else {
		plog.Info("Archive created", "path", res.Path, "entries", res.Entries, "bytes", res.BytesWritten)
	}

	if err := r.hooks.Run(ctx, root, p.Hooks); err != nil {
		if !hints.IsHint(err) {
			return root, fmt.Errorf("post-build hook failed: %w", err)
		}
		plog.Debug("Post-build hooks skipped", "reason", err)
	}

	m.Log()
	if p.DryRun {
		plog.Info("Build completed (DRY RUN)", "root", root)
	} else {
		plog.Info("Build completed", "root", root)
	}
	return root, nil
}

// ExecuteTree loads the spec and writes the tree it describes to w.
// Nothing is read from or written to the output directory.
func (r *Runner) ExecuteTree(ctx context.Context, p *planner.TreePlan, enc treeview.Encoding, w io.Writer) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	project, err := r.loadSpec(p.SpecPath, p.Spec)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}
	if err := treeview.Render(w, project, enc); err != nil {
		return fmt.Errorf("failed to render tree: %w", err)
	}
	return nil
}
