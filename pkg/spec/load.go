package spec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

// StdinPath is the spec path that reads the document from standard input.
const StdinPath = "-"

// LoadOptions controls how a document is read.
type LoadOptions struct {
	// Format overrides detection by file extension. Required for stdin.
	Format Format
	// Selector is an optional JSONPath picking the project object out of a
	// larger document, e.g. "$.scaffold.project". The first match is used.
	Selector string
}

// Load reads, parses and decodes the spec document at path.
func Load(path string, opts LoadOptions) (ProjectSpec, error) {
	if path == StdinPath {
		if opts.Format == "" {
			opts.Format = JSON
		}
		return Read(os.Stdin, opts)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ProjectSpec{}, fmt.Errorf("could not determine absolute path for spec %s: %w", path, err)
	}

	if opts.Format == "" {
		if opts.Format, err = FormatFromPath(absPath); err != nil {
			return ProjectSpec{}, err
		}
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectSpec{}, fmt.Errorf("spec file not found: %s", absPath)
		}
		return ProjectSpec{}, fmt.Errorf("error opening spec file %s: %w", absPath, err)
	}
	defer file.Close()

	plog.Info("Loading spec", "path", absPath, "format", opts.Format)
	p, err := Read(file, opts)
	if err != nil {
		return ProjectSpec{}, fmt.Errorf("spec %s: %w", absPath, err)
	}
	return p, nil
}

// Read parses and decodes a spec document from r.
func Read(r io.Reader, opts LoadOptions) (ProjectSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ProjectSpec{}, fmt.Errorf("error reading spec: %w", err)
	}
	return Parse(data, opts)
}

// Parse parses and decodes a spec document held in memory.
func Parse(data []byte, opts LoadOptions) (ProjectSpec, error) {
	doc, err := parseDocument(data, opts.Format)
	if err != nil {
		return ProjectSpec{}, err
	}

	if opts.Selector != "" {
		if doc, err = selectDocument(doc, opts.Selector); err != nil {
			return ProjectSpec{}, err
		}
	}
	return Decode(doc)
}

func parseDocument(data []byte, format Format) (any, error) {
	switch format {
	case JSON, "":
		doc, err := oj.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing JSON spec: %w", err)
		}
		return doc, nil
	case YAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing YAML spec: %w", err)
		}
		return doc, nil
	case TOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing TOML spec: %w", err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unsupported spec format: %s", format)
	}
}

func selectDocument(doc any, selector string) (any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector '%s': %w", selector, err)
	}
	results := x.Get(doc)
	if len(results) == 0 {
		return nil, fmt.Errorf("selector '%s' matched nothing in the spec document", selector)
	}
	if len(results) > 1 {
		plog.Warn("Selector matched more than one value, using the first", "selector", selector, "matches", len(results))
	}
	return results[0], nil
}
