// Package archive packs a built tree into a single compressed file next to it:
// <output>/<root>.zip, <root>.tar.gz or <root>.tar.zst. A root that is the
// output directory itself is archived into it under the directory's own name,
// and the archive never contains itself.
//
// Entries are stored under the root's base name, directories included, so
// empty folders of the tree survive a round trip. The archive is written to a
// temp file in the output directory and renamed into place once complete; a
// failed run never leaves a truncated archive under the final name.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/paulschiretz/pgl-tree/pkg/hints"
	"github.com/paulschiretz/pgl-tree/pkg/plog"
	"github.com/paulschiretz/pgl-tree/pkg/util"
)

var ErrDisabled = hints.New("archiving is disabled")
var ErrSkippedDryRun = hints.New("archiving skipped in dry run")

// Result describes a written archive.
type Result struct {
	Path         string
	Entries      int64
	BytesRead    int64
	BytesWritten int64
}

// entryWriter is implemented once per container format.
type entryWriter interface {
	addDir(name string, info os.FileInfo) error
	addFile(name string, info os.FileInfo, r io.Reader) error
	addSymlink(name, target string, info os.FileInfo) error
	Close() error
}

// Archiver writes archives of built trees.
type Archiver struct{}

// NewArchiver creates a new Archiver.
func NewArchiver() *Archiver {
	return &Archiver{}
}

// Path returns where the archive of absRootPath, built inside absOutputPath,
// is written for the given format. The result always lies inside absOutputPath.
func Path(absOutputPath, absRootPath string, format Format) string {
	if filepath.Clean(absRootPath) == filepath.Clean(absOutputPath) {
		return filepath.Join(absOutputPath, filepath.Base(absOutputPath)+format.Extension())
	}
	return filepath.Clean(absRootPath) + format.Extension()
}

// Archive packs absRootPath, built inside absOutputPath, according to p.
// A disabled plan and a dry run return hints.
func (a *Archiver) Archive(ctx context.Context, absOutputPath, absRootPath string, p *Plan) (res Result, retErr error) {
	if !p.Enabled {
		return Result{}, ErrDisabled
	}
	archivePath := Path(absOutputPath, absRootPath, p.Format)
	if p.DryRun {
		plog.Info("[DRY RUN] Would write archive", "path", archivePath, "format", p.Format, "level", p.Level)
		return Result{Path: archivePath}, ErrSkippedDryRun
	}

	plog.Info("Writing archive", "path", archivePath, "format", p.Format, "level", p.Level)

	// Same directory as the target, so the final rename is atomic.
	tempF, err := os.CreateTemp(filepath.Dir(archivePath), ".pgl-tree-*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp archive: %w", err)
	}
	tempName := tempF.Name()
	defer func() {
		if retErr != nil {
			tempF.Close()
			os.Remove(tempName)
		}
	}()

	res = Result{Path: archivePath}
	cw := &countingWriter{w: tempF, n: &res.BytesWritten}
	w, err := newEntryWriter(cw, p.Format, p.Level)
	if err != nil {
		return Result{}, err
	}

	// Both files sit inside the root when the root is the output directory.
	skip := map[string]bool{tempName: true, archivePath: true}
	if err := walk(ctx, absRootPath, skip, w, &res); err != nil {
		w.Close()
		return Result{}, err
	}
	if err := w.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tempF.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempName, archivePath); err != nil {
		return Result{}, fmt.Errorf("failed to rename temp archive to final path: %w", err)
	}
	return res, nil
}

func newEntryWriter(w io.Writer, format Format, level Level) (entryWriter, error) {
	switch format {
	case Zip:
		return newZipWriter(w, level), nil
	case TarGz, TarZst:
		return newTarWriter(w, format, level)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

// walk adds every entry below absRootPath in lexical order, leaving out the
// absolute paths in skip.
func walk(ctx context.Context, absRootPath string, skip map[string]bool, w entryWriter, res *Result) error {
	prefix := filepath.Base(absRootPath)
	return filepath.WalkDir(absRootPath, func(absPath string, d os.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			return walkErr
		}
		if skip[absPath] {
			return nil
		}

		rel, err := filepath.Rel(absRootPath, absPath)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", absPath, err)
		}
		name := path.Join(prefix, util.NormalizePath(rel))

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", absPath, err)
		}

		plog.Notice("ADD", "entry", name)
		res.Entries++

		switch {
		case d.IsDir():
			return w.addDir(name+"/", info)
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(absPath)
			if err != nil {
				return fmt.Errorf("failed to read link target for %s: %w", absPath, err)
			}
			return w.addSymlink(name, target, info)
		case info.Mode().IsRegular():
			return addRegular(absPath, name, info, w, res)
		default:
			plog.Warn("Skipping special file", "path", absPath, "mode", info.Mode())
			res.Entries--
			return nil
		}
	})
}

func addRegular(absPath, name string, info os.FileInfo, w entryWriter, res *Result) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", absPath, err)
	}
	defer f.Close()

	// The opened file must be the one the walk found, not a swapped-in link.
	if openedInfo, err := f.Stat(); err != nil {
		return fmt.Errorf("failed to stat opened file %s: %w", absPath, err)
	} else if !os.SameFile(info, openedInfo) {
		return fmt.Errorf("file changed while archiving: %s", absPath)
	}
	return w.addFile(name, info, &countingReader{r: f, n: &res.BytesRead})
}

type countingWriter struct {
	w io.Writer
	n *int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	*cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n *int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	*cr.n += int64(n)
	return n, err
}
