package spec

import (
	"fmt"
)

// Decode converts a generic document (maps, slices and scalars as produced by
// the JSON, YAML and TOML parsers) into a ProjectSpec.
//
// Decoding stops at the first invalid entry. Fields other than root, folders,
// files, name, path and content are ignored. A null folders/files/content is
// treated as absent.
func Decode(doc any) (ProjectSpec, error) {
	obj, ok := asObject(doc)
	if !ok {
		return ProjectSpec{}, fmt.Errorf("%w: document must be an object with a 'root' key, got %s", ErrMissingOrInvalidField, typeName(doc))
	}

	root, ok := obj["root"].(string)
	if !ok || root == "" {
		return ProjectSpec{}, fmt.Errorf("%w: 'root' must be a non-empty string, got %s", ErrMissingOrInvalidField, typeName(obj["root"]))
	}
	p := ProjectSpec{Root: root}

	var err error
	if raw, present := obj["folders"]; present && raw != nil {
		list, ok := asList(raw)
		if !ok {
			return ProjectSpec{}, fmt.Errorf("%w: 'folders' must be a list, got %s", ErrMissingOrInvalidField, typeName(raw))
		}
		if p.Folders, err = decodeFolders(list, "folders"); err != nil {
			return ProjectSpec{}, err
		}
	}

	if raw, present := obj["files"]; present && raw != nil {
		list, ok := asList(raw)
		if !ok {
			return ProjectSpec{}, fmt.Errorf("%w: 'files' must be a list, got %s", ErrMissingOrInvalidField, typeName(raw))
		}
		if p.Files, err = decodeFiles(list, "files"); err != nil {
			return ProjectSpec{}, err
		}
	}
	return p, nil
}

func decodeFolders(list []any, where string) ([]FolderSpec, error) {
	folders := make([]FolderSpec, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s[%d]", where, i)

		if s, ok := item.(string); ok {
			folders = append(folders, FolderSpec{Name: s})
			continue
		}

		rec, ok := asObject(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a path string or a {name, folders} record, got %s", ErrInvalidEntryType, at, typeName(item))
		}

		name, ok := rec["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %s.name must be a non-empty string, got %s", ErrMissingOrInvalidField, at, typeName(rec["name"]))
		}
		folder := FolderSpec{Name: name}

		if raw, present := rec["folders"]; present && raw != nil {
			sub, ok := asList(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s.folders must be a list, got %s", ErrMissingOrInvalidField, at, typeName(raw))
			}
			nested, err := decodeFolders(sub, at+".folders")
			if err != nil {
				return nil, err
			}
			folder.Folders = nested
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

func decodeFiles(list []any, where string) ([]FileSpec, error) {
	files := make([]FileSpec, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s[%d]", where, i)

		if s, ok := item.(string); ok {
			files = append(files, FileSpec{Path: s})
			continue
		}

		rec, ok := asObject(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a path string or a {path, content} record, got %s", ErrInvalidEntryType, at, typeName(item))
		}

		path, ok := rec["path"].(string)
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: %s.path must be a non-empty string, got %s", ErrMissingOrInvalidField, at, typeName(rec["path"]))
		}

		var content string
		if raw := rec["content"]; raw != nil {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.content must be a string, got %s", ErrMissingOrInvalidField, at, typeName(raw))
			}
			content = s
		}
		files = append(files, FileSpec{Path: path, Content: content})
	}
	return files, nil
}

// asObject accepts the map shapes produced by the supported parsers.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asList accepts []any and the []map[string]any that TOML produces for arrays of tables.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// typeName describes a decoded value in document terms for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case []any, []map[string]any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
