// Package treeview renders the tree a spec.ProjectSpec describes without
// touching the filesystem.
//
// Paths are checked lexically with confine.Clean, so '..' escapes are reported
// the same way a build would report them. Symlinks on disk are not considered.
package treeview

import (
	"fmt"
	"io"

	"github.com/ddddddO/gtree"

	"github.com/paulschiretz/pgl-tree/pkg/confine"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
)

// Encoding selects how the tree is printed.
type Encoding string

const (
	Text Encoding = "text"
	JSON Encoding = "json"
	YAML Encoding = "yaml"
	TOML Encoding = "toml"
)

// ParseEncoding validates a user supplied encoding name. Empty means Text.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case "":
		return Text, nil
	case Text, JSON, YAML, TOML:
		return e, nil
	default:
		return "", fmt.Errorf("invalid tree encoding %q: must be 'text', 'json', 'yaml' or 'toml'", s)
	}
}

// Render writes the tree described by p to w. Entries declared more than once
// are shown once.
func Render(w io.Writer, p spec.ProjectSpec, enc Encoding) error {
	root, err := Tree(p)
	if err != nil {
		return err
	}

	var opts []gtree.Option
	switch enc {
	case JSON:
		opts = append(opts, gtree.WithEncodeJSON())
	case YAML:
		opts = append(opts, gtree.WithEncodeYAML())
	case TOML:
		opts = append(opts, gtree.WithEncodeTOML())
	}
	if err := gtree.OutputProgrammably(w, root, opts...); err != nil {
		return fmt.Errorf("error rendering tree: %w", err)
	}
	return nil
}

// Tree builds the gtree node hierarchy for p.
func Tree(p spec.ProjectSpec) (*gtree.Node, error) {
	if p.Root == "" {
		return nil, fmt.Errorf("%w: 'root' must be a non-empty string", spec.ErrMissingOrInvalidField)
	}
	if _, err := confine.Clean(p.Root); err != nil {
		return nil, fmt.Errorf("root %q: %w", p.Root, err)
	}

	root := gtree.NewRoot(p.Root)
	if err := addFolders(root, p.Folders, "folders"); err != nil {
		return nil, err
	}
	for i, f := range p.Files {
		if _, err := addPath(root, f.Path); err != nil {
			return nil, fmt.Errorf("files[%d] %q: %w", i, f.Path, err)
		}
	}
	return root, nil
}

func addFolders(parent *gtree.Node, folders []spec.FolderSpec, where string) error {
	for i, f := range folders {
		at := fmt.Sprintf("%s[%d]", where, i)
		node, err := addPath(parent, f.Name)
		if err != nil {
			return fmt.Errorf("%s %q: %w", at, f.Name, err)
		}
		if err := addFolders(node, f.Folders, at+".folders"); err != nil {
			return err
		}
	}
	return nil
}

// addPath adds one node per segment of rel below parent and returns the last one.
// gtree reuses an existing child with the same text.
func addPath(parent *gtree.Node, rel string) (*gtree.Node, error) {
	segments, err := confine.Clean(rel)
	if err != nil {
		return nil, err
	}
	node := parent
	for _, s := range segments {
		node = node.Add(s)
	}
	return node, nil
}
