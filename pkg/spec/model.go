// Package spec defines the declarative project description consumed by the
// tree builder and turns serialized documents (JSON, YAML, TOML) into it.
package spec

import "errors"

// ErrMissingOrInvalidField reports a required field that is absent or has the wrong type:
// root, a folder's name, a file's path, a non-string content, or a non-list folders/files.
var ErrMissingOrInvalidField = errors.New("missing or invalid field")

// ErrInvalidEntryType reports a folders/files entry that is neither a path string
// nor the expected record.
var ErrInvalidEntryType = errors.New("invalid entry type")

// ProjectSpec is the full description of one tree. Folders and files are
// processed in the order given.
type ProjectSpec struct {
	Root    string
	Folders []FolderSpec
	Files   []FileSpec
}

// FolderSpec is a directory relative to its containing root. A bare string
// entry decodes to a FolderSpec with only Name set.
type FolderSpec struct {
	Name    string
	Folders []FolderSpec
}

// FileSpec is a file relative to its containing root. A bare string entry
// decodes to an empty file.
type FileSpec struct {
	Path    string
	Content string
}

// Count returns the number of folders (including nested ones) and files in p.
func (p ProjectSpec) Count() (folders, files int) {
	var walk func([]FolderSpec)
	walk = func(fs []FolderSpec) {
		for _, f := range fs {
			folders++
			walk(f.Folders)
		}
	}
	walk(p.Folders)
	return folders, len(p.Files)
}
