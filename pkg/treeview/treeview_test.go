package treeview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulschiretz/pgl-tree/pkg/confine"
	"github.com/paulschiretz/pgl-tree/pkg/spec"
)

func TestRender_Text(t *testing.T) {
	p := spec.ProjectSpec{
		Root:    "proj",
		Folders: []spec.FolderSpec{{Name: "src"}, {Name: "test", Folders: []spec.FolderSpec{{Name: "./unit"}}}},
		Files:   []spec.FileSpec{{Path: "src/main.txt", Content: "hello"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p, Text))

	want := strings.Join([]string{
		"proj",
		"├── src",
		"│   └── main.txt",
		"└── test",
		"    └── unit",
	}, "\n")
	assert.Equal(t, want, strings.TrimRight(buf.String(), "\n"))
}

func TestRender_MergesRepeatedPaths(t *testing.T) {
	p := spec.ProjectSpec{
		Root:    "proj",
		Folders: []spec.FolderSpec{{Name: "a/b"}, {Name: "a", Folders: []spec.FolderSpec{{Name: "c"}}}},
		Files:   []spec.FileSpec{{Path: "a/b/f"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p, Text))
	assert.Equal(t, 1, strings.Count(buf.String(), " a\n"), buf.String())
}

func TestRender_Encodings(t *testing.T) {
	p := spec.ProjectSpec{Root: "proj", Files: []spec.FileSpec{{Path: "f.txt"}}}
	for _, enc := range []Encoding{JSON, YAML, TOML} {
		t.Run(string(enc), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, p, enc))
			assert.Contains(t, buf.String(), "proj")
			assert.Contains(t, buf.String(), "f.txt")
		})
	}
}

func TestTree_RejectsEscapes(t *testing.T) {
	testCases := []struct {
		name string
		spec spec.ProjectSpec
	}{
		{"root", spec.ProjectSpec{Root: "../up"}},
		{"folder", spec.ProjectSpec{Root: "p", Folders: []spec.FolderSpec{{Name: "../x"}}}},
		{"nested folder", spec.ProjectSpec{Root: "p", Folders: []spec.FolderSpec{{Name: "a", Folders: []spec.FolderSpec{{Name: "b/../../c"}}}}}},
		{"file", spec.ProjectSpec{Root: "p", Files: []spec.FileSpec{{Path: "/etc/passwd"}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tree(tc.spec)
			require.ErrorIs(t, err, confine.ErrOutOfBoundsPath)
		})
	}
}

func TestTree_MissingRoot(t *testing.T) {
	_, err := Tree(spec.ProjectSpec{})
	require.ErrorIs(t, err, spec.ErrMissingOrInvalidField)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, Text, enc)

	enc, err = ParseEncoding("yaml")
	require.NoError(t, err)
	assert.Equal(t, YAML, enc)

	_, err = ParseEncoding("xml")
	assert.Error(t, err)
}
