package confine

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realTempDir returns a temp dir with symlinks already resolved (macOS /var -> /private/var).
func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolve(t *testing.T) {
	base := realTempDir(t)

	inside := []struct {
		rel  string
		want string
	}{
		{"src", filepath.Join(base, "src")},
		{"src/main.txt", filepath.Join(base, "src", "main.txt")},
		{"", base},
		{".", base},
		{"a/../b", filepath.Join(base, "b")},
		{"a/b/../../c", filepath.Join(base, "c")},
		{"./deep/./er/", filepath.Join(base, "deep", "er")},
	}
	for _, tc := range inside {
		t.Run("inside "+tc.rel, func(t *testing.T) {
			got, err := Resolve(base, tc.rel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	outside := []string{"..", "../escape.txt", "../../etc", "a/../../b", "src/../../" + filepath.Base(base) + "x"}
	for _, rel := range outside {
		t.Run("outside "+rel, func(t *testing.T) {
			_, err := Resolve(base, rel)
			assert.ErrorIs(t, err, ErrOutOfBoundsPath)
		})
	}

	t.Run("absolute path inside base", func(t *testing.T) {
		got, err := Resolve(base, filepath.Join(base, "abs"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "abs"), got)
	})

	t.Run("absolute path outside base", func(t *testing.T) {
		_, err := Resolve(base, filepath.Dir(base))
		assert.ErrorIs(t, err, ErrOutOfBoundsPath)
	})

	t.Run("sibling with common prefix is outside", func(t *testing.T) {
		root := filepath.Join(base, "proj")
		_, err := Resolve(root, "../proj-other/file")
		assert.ErrorIs(t, err, ErrOutOfBoundsPath)
	})

	t.Run("nested base that does not exist yet", func(t *testing.T) {
		root := filepath.Join(base, "not", "yet")
		got, err := Resolve(root, "a/b")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "a", "b"), got)

		_, err = Resolve(root, "../../../up")
		assert.ErrorIs(t, err, ErrOutOfBoundsPath)
	})
}

func TestResolveSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on Windows")
	}

	base := realTempDir(t)
	outsideDir := realTempDir(t)
	root := filepath.Join(base, "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0755))

	require.NoError(t, os.Symlink(outsideDir, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(outsideDir, "missing"), filepath.Join(root, "dangling")))

	t.Run("link pointing outside is rejected", func(t *testing.T) {
		_, err := Resolve(root, "escape/pwned.txt")
		assert.ErrorIs(t, err, ErrOutOfBoundsPath)
	})

	t.Run("link pointing inside resolves to the real path", func(t *testing.T) {
		got, err := Resolve(root, "alias/file.txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "real", "file.txt"), got)
	})

	t.Run("dangling link is rejected", func(t *testing.T) {
		_, err := Resolve(root, "dangling/file.txt")
		assert.ErrorIs(t, err, ErrOutOfBoundsPath)
	})

	t.Run("symlinked base is resolved before comparing", func(t *testing.T) {
		linkedRoot := filepath.Join(base, "linked-proj")
		require.NoError(t, os.Symlink(root, linkedRoot))

		got, err := Resolve(linkedRoot, "real")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "real"), got)
	})
}

func TestClean(t *testing.T) {
	cases := []struct {
		rel  string
		want []string
	}{
		{"src", []string{"src"}},
		{"src/main.txt", []string{"src", "main.txt"}},
		{"a/./b/../c", []string{"a", "c"}},
		{"", nil},
		{".", nil},
		{"a/..", nil},
	}
	for _, tc := range cases {
		got, err := Clean(tc.rel)
		require.NoError(t, err, tc.rel)
		assert.Equal(t, tc.want, got, tc.rel)
	}

	for _, rel := range []string{"..", "../x", "a/../../x", "/etc/passwd"} {
		_, err := Clean(rel)
		assert.ErrorIs(t, err, ErrOutOfBoundsPath, rel)
	}
}

func TestWithin(t *testing.T) {
	base := filepath.FromSlash("/srv/out/proj")
	assert.True(t, Within(base, base))
	assert.True(t, Within(base, filepath.Join(base, "a", "b")))
	assert.False(t, Within(base, filepath.FromSlash("/srv/out")))
	assert.False(t, Within(base, filepath.FromSlash("/srv/out/proj2")))
}
