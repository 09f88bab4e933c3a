// Package preflight checks the output location before a tree is built. The
// checks never change the filesystem, so they are safe to run for a dry run.
// They exist to give clearer errors than a failing os.MkdirAll deep inside a
// build would.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

// Validator runs the checks selected in a Plan.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Run executes the enabled checks for absOutputPath and the root directory
// absRootPath that will be built inside it.
func (v *Validator) Run(ctx context.Context, absOutputPath, absRootPath string, p *Plan) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if p.OutputAccessible {
		if err := CheckOutputAccessible(absOutputPath); err != nil {
			return err
		}
	}
	if p.OutputWritable {
		if err := CheckOutputWritable(absOutputPath); err != nil {
			if !p.DryRun {
				return err
			}
			// A dry run writes nothing, so it can still show what would happen.
			plog.Warn("[DRY RUN] Output directory is not writable, a real build would fail", "error", err)
		}
	}
	if p.RootIsDirectory {
		if err := CheckRootIsDirectory(absRootPath); err != nil {
			return err
		}
	}
	return nil
}

// CheckOutputAccessible verifies that outputPath is usable as the parent of a
// tree: it is an existing directory, or it does not exist yet and its deepest
// existing ancestor is a directory it can be created in.
//
// On Windows the drive or network share (e.g., "Z:", "\\Server\Share") must exist.
func CheckOutputAccessible(outputPath string) error {
	if err := checkVolumeExists(outputPath); err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path exists but is not a directory: %s", outputPath)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access output path: %w", err)
	}

	ancestor, err := deepestExistingAncestor(outputPath)
	if err != nil {
		return err
	}
	plog.Debug("Output directory does not exist yet and will be created", "path", outputPath, "existingAncestor", ancestor)
	return nil
}

// CheckOutputWritable verifies that entries can be created in outputPath, or
// in its deepest existing ancestor when it does not exist yet.
func CheckOutputWritable(outputPath string) error {
	dir, err := deepestExistingAncestor(outputPath)
	if err != nil {
		return err
	}
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	return nil
}

// CheckRootIsDirectory fails when the tree root already exists as something
// other than a directory.
func CheckRootIsDirectory(rootPath string) error {
	info, err := os.Stat(rootPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path exists but is not a directory: %s", rootPath)
	}
	return nil
}

// deepestExistingAncestor walks up from p (p included) to the first path that
// exists and returns it. That path must be a directory.
func deepestExistingAncestor(p string) (string, error) {
	current := filepath.Clean(p)
	for {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("ancestor %s of output path %s is not a directory", current, p)
			}
			return current, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("cannot access ancestor directory %s: %w", current, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor found for output path %s", p)
		}
		current = parent
	}
}
