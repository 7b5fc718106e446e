package filtering

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathFilter_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewPathFilter("", nil)
	require.Error(t, err)

	_, err = NewPathFilter("[unclosed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")

	_, err = NewPathFilter("*.sav", []string{"[broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestDefaultPathFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		excludes []string
		path     string
		expected bool
	}{
		{name: "star matches top level", pattern: "*.sav", path: "slot1.sav", expected: true},
		{name: "star does not cross directories", pattern: "*.sav", path: "profiles/slot1.sav", expected: false},
		{name: "double star crosses directories", pattern: "**/*.sav", path: "profiles/a/slot1.sav", expected: true},
		{name: "leading double star matches zero directories", pattern: "**/*.sav", path: "slot1.sav", expected: true},
		{name: "match everything", pattern: "**", path: "a/b/c.txt", expected: true},
		{name: "alternatives", pattern: "*.{sav,cfg}", path: "game.cfg", expected: true},
		{name: "no match", pattern: "*.sav", path: "readme.txt", expected: false},
		{
			name:     "exclude takes precedence",
			pattern:  "**/*.sav",
			excludes: []string{"**/autosave*"},
			path:     "profiles/autosave1.sav",
			expected: false,
		},
		{
			name:     "exclude directory subtree",
			pattern:  "**",
			excludes: []string{"cache/**"},
			path:     "cache/shaders/x.bin",
			expected: false,
		},
		{
			name:     "exclude not matching keeps file",
			pattern:  "**",
			excludes: []string{"cache/**"},
			path:     "saves/x.bin",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := NewPathFilter(tt.pattern, tt.excludes)
			require.NoError(t, err)

			include, reason := filter.ShouldInclude(tt.path)
			assert.Equal(t, tt.expected, include, reason)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestDefaultPathFilter_Select(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := []string{
		"slot1.sav",
		"profiles/a/slot2.sav",
		"profiles/a/autosave.sav",
		"notes.txt",
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(f), 0600))
	}

	filter, err := NewPathFilter("**/*.sav", []string{"**/autosave*"})
	require.NoError(t, err)

	selected, err := filter.Select(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"profiles/a/slot2.sav", "slot1.sav"}, selected)
}

func TestDefaultPathFilter_SelectMissingRoot(t *testing.T) {
	t.Parallel()

	filter, err := NewPathFilter("*", nil)
	require.NoError(t, err)

	_, err = filter.Select(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestValidatePattern(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePattern("**/*.sav"))
	assert.Error(t, ValidatePattern("[oops"))
}
