package treebuild

import (
	"fmt"
	"os"
	"path/filepath"
)

// ensureDir makes sure path exists as a directory, creating missing parents.
// An existing directory is not an error. An existing non-directory is.
func (b *Builder) ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		b.emit(Event{Kind: DirExists, Path: path})
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s exists and is not a directory", ErrIO, path)
	case !os.IsNotExist(err):
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if b.opts.DryRun {
		b.emit(Event{Kind: DirPlanned, Path: path})
		return nil
	}
	if err := os.MkdirAll(path, b.opts.DirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	b.emit(Event{Kind: DirCreated, Path: path})
	return nil
}

// writeFile applies the write-or-skip decision for a single file.
func (b *Builder) writeFile(path, content string) error {
	info, err := os.Lstat(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	exists := err == nil
	size := len(content)

	switch {
	case exists && !b.opts.OverwriteFiles:
		b.emit(Event{Kind: FileSkipped, Path: path, Size: size})
		return nil
	case exists && info.IsDir():
		return fmt.Errorf("%w: %s exists and is a directory", ErrIO, path)
	case exists && b.opts.DryRun:
		b.emit(Event{Kind: FileOverwritePlanned, Path: path, Size: size})
		return nil
	case b.opts.DryRun:
		b.emit(Event{Kind: FileWritePlanned, Path: path, Size: size})
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), b.opts.DirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.WriteFile(path, []byte(content), b.opts.FilePerm); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	b.metrics.AddBytesWritten(int64(size))

	if exists {
		b.emit(Event{Kind: FileOverwritten, Path: path, Size: size})
	} else {
		b.emit(Event{Kind: FileCreated, Path: path, Size: size})
	}
	return nil
}

// emit counts the event and hands it to the reporter.
func (b *Builder) emit(e Event) {
	switch e.Kind {
	case DirCreated, DirExists:
		b.metrics.AddDirsEnsured(1)
	case DirPlanned:
		b.metrics.AddDirsPlanned(1)
	case FileCreated:
		b.metrics.AddFilesCreated(1)
	case FileOverwritten:
		b.metrics.AddFilesOverwritten(1)
	case FileSkipped:
		b.metrics.AddFilesSkipped(1)
	case FileWritePlanned, FileOverwritePlanned:
		b.metrics.AddFilesPlanned(1)
	}
	b.reporter.Report(e)
}
