package spec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulschiretz/pgl-tree/pkg/util"
)

// Format is the serialization of a spec document.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

var formatToString = map[Format]string{
	JSON: "json",
	YAML: "yaml",
	TOML: "toml",
}

var stringToFormat map[string]Format

var extensionToFormat = map[string]Format{
	".json": JSON,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
}

func init() {
	stringToFormat = util.InvertMap(formatToString)
}

func (f Format) String() string {
	if str, ok := formatToString[f]; ok {
		return str
	}
	return fmt.Sprintf("unknown_spec_format(%s)", string(f))
}

// ParseFormat parses a -format value.
func ParseFormat(s string) (Format, error) {
	if format, ok := stringToFormat[strings.ToLower(s)]; ok {
		return format, nil
	}
	return "", fmt.Errorf("invalid spec format: %q. Must be 'json', 'yaml', or 'toml'", s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extensionToFormat[ext]; ok {
		return format, nil
	}
	return "", fmt.Errorf("cannot determine spec format from extension %q of %s; use -format", ext, path)
}
