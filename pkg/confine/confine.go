// Package confine keeps paths taken from an untrusted tree description inside
// the directory they are declared relative to.
//
// Resolve works on the physical layout: '.' and '..' are collapsed and the
// deepest existing prefix of both the base and the target is passed through
// filepath.EvalSymlinks before the ancestor check, so a symlink inside the base
// cannot be used to write outside of it. The returned path is the resolved one
// and callers must do their I/O on it, never on the unresolved input.
package confine

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutOfBoundsPath is returned when a relative path resolves outside its base.
var ErrOutOfBoundsPath = errors.New("path escapes its root")

// Resolve joins rel onto base and returns the resolved absolute target. The
// target may equal base. An absolute rel is taken as is and is therefore only
// accepted when it already lies inside base.
func Resolve(base, rel string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("could not determine absolute path for %s: %w", base, err)
	}

	target := rel
	if !filepath.IsAbs(rel) {
		target = filepath.Join(absBase, rel)
	}
	target = filepath.Clean(target)

	resolvedBase, err := resolveExisting(absBase)
	if err != nil {
		return "", err
	}
	resolvedTarget, err := resolveExisting(target)
	if err != nil {
		return "", err
	}

	if !Within(resolvedBase, resolvedTarget) {
		return "", fmt.Errorf("%w: %q resolves to %s, outside of %s", ErrOutOfBoundsPath, rel, resolvedTarget, resolvedBase)
	}
	return resolvedTarget, nil
}

// Within reports whether target equals base or is nested under it. Both paths
// must be absolute and clean.
func Within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false // e.g. different volumes on Windows
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Clean lexically normalizes a slash- or native-separated relative path and
// returns its segments. An empty result means the root itself. It does not
// touch the filesystem, so symlinks are not considered.
func Clean(rel string) ([]string, error) {
	slashed := filepath.ToSlash(rel)
	if filepath.IsAbs(rel) || path.IsAbs(slashed) {
		return nil, fmt.Errorf("%w: %q is absolute", ErrOutOfBoundsPath, rel)
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return nil, fmt.Errorf("%w: %q climbs above its root", ErrOutOfBoundsPath, rel)
	}
	if cleaned == "." {
		return nil, nil
	}
	return strings.Split(cleaned, "/"), nil
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of p and
// re-appends the part that does not exist yet. p must be absolute and clean.
func resolveExisting(p string) (string, error) {
	existing := p
	var missing []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("cannot access %s: %w", existing, err)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break // Hit the filesystem root without finding anything.
		}
		missing = append(missing, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		if os.IsNotExist(err) {
			// A dangling symlink: where it would lead cannot be verified.
			return "", fmt.Errorf("%w: cannot resolve dangling link %s: %v", ErrOutOfBoundsPath, existing, err)
		}
		return "", fmt.Errorf("cannot resolve %s: %w", existing, err)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, missing[i])
	}
	return resolved, nil
}
