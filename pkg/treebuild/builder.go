// Package treebuild materializes a spec.ProjectSpec on disk.
//
// A build is a single synchronous depth-first walk. Folders are processed
// before files, each list in the order it was declared, so a later entry may
// rely on a directory created by an earlier one. Every path is confined to its
// containing root (see package confine) and the resolved path is the one used
// for I/O. The first error aborts the build; whatever was created up to that
// point stays on disk.
package treebuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-tree/pkg/confine"
	"github.com/paulschiretz/pgl-tree/pkg/metrics"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
	"github.com/paulschiretz/pgl-tree/pkg/util"
)

// Options control a single build and are not modified while it runs.
type Options struct {
	// DryRun reports every decision without touching the filesystem.
	DryRun bool
	// OverwriteFiles replaces the content of files that already exist.
	// Existing directories are always reused.
	OverwriteFiles bool
	// Verbose logs every decision at info level when the default reporter is used.
	Verbose bool
	// DirPerm and FilePerm are the modes for newly created entries.
	// Zero values fall back to 0755 and 0644.
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

// Builder runs builds with a fixed set of options.
type Builder struct {
	opts     Options
	reporter Reporter
	metrics  metrics.Metrics
}

// New creates a Builder. A nil reporter logs through plog, nil metrics are discarded.
func New(opts Options, reporter Reporter, m metrics.Metrics) *Builder {
	if opts.DirPerm == 0 {
		opts.DirPerm = util.UserWritableDirPerms
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = util.UserWritableFilePerms
	}
	// A directory we cannot enter could not receive its own children.
	opts.DirPerm = util.WithUserExecutePermission(util.WithUserWritePermission(opts.DirPerm))
	if reporter == nil {
		reporter = LogReporter{Verbose: opts.Verbose}
	}
	if m == nil {
		m = &metrics.NoopMetrics{}
	}
	return &Builder{opts: opts, reporter: reporter, metrics: m}
}

// Build creates p under outputDir with the default reporter and no metrics.
func Build(p spec.ProjectSpec, outputDir string, opts Options) (string, error) {
	return New(opts, nil, nil).Build(p, outputDir)
}

// Build materializes p under outputDir/p.Root and returns the resolved
// absolute path of that root. In dry run mode the would-be root is returned.
func (b *Builder) Build(p spec.ProjectSpec, outputDir string) (string, error) {
	if p.Root == "" {
		return "", fmt.Errorf("%w: 'root' must be a non-empty string", ErrMissingOrInvalidField)
	}

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: could not determine absolute path for %s: %w", ErrIO, outputDir, err)
	}

	root, err := Resolve(absOut, p.Root)
	if err != nil {
		return "", fmt.Errorf("root %q: %w", p.Root, err)
	}
	if err := b.ensureDir(root); err != nil {
		return "", err
	}

	if err := b.expandFolders(root, p.Folders, "folders"); err != nil {
		return "", err
	}
	if err := b.expandFiles(root, p.Files); err != nil {
		return "", err
	}
	return root, nil
}

func (b *Builder) expandFolders(base string, folders []spec.FolderSpec, where string) error {
	for i, f := range folders {
		at := fmt.Sprintf("%s[%d]", where, i)
		dir, err := Resolve(base, f.Name)
		if err != nil {
			return fmt.Errorf("%s %q: %w", at, f.Name, err)
		}
		if err := b.ensureDir(dir); err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
		if len(f.Folders) > 0 {
			if err := b.expandFolders(dir, f.Folders, at+".folders"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) expandFiles(base string, files []spec.FileSpec) error {
	for i, f := range files {
		at := fmt.Sprintf("files[%d]", i)
		path, err := Resolve(base, f.Path)
		if err != nil {
			return fmt.Errorf("%s %q: %w", at, f.Path, err)
		}
		if err := b.writeFile(path, f.Content); err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
	}
	return nil
}

// resolve confines rel to base. Failures other than an escape, such as a
// parent that is a regular file, are filesystem errors.
func Resolve(base, rel string) (string, error) {
	p, err := confine.Resolve(base, rel)
	if err != nil && !errors.Is(err, ErrOutOfBoundsPath) {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	return p, err
}
