package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	out := []byte("M  conf/app.xml\x00A  new.yaml\x00R  renamed.txt\x00old.txt\x00 M dirty.txt\x00D  gone.properties\x00")

	entries := ParseStatus(out)
	require.Len(t, entries, 5)

	assert.Equal(t, "M ", entries[0].Code())
	assert.Equal(t, "conf/app.xml", entries[0].Path)
	assert.Equal(t, "renamed.txt", entries[2].Path)
	assert.Equal(t, "old.txt", entries[2].OrigPath)
	assert.Equal(t, " M", entries[3].Code())
	assert.Equal(t, "gone.properties", entries[4].Path)

	for _, e := range entries {
		assert.True(t, e.IsChanged(), e.Path)
		assert.False(t, e.IsUnmerged(), e.Path)
	}
}

func TestParseStatus_Empty(t *testing.T) {
	assert.Empty(t, ParseStatus(nil))
	assert.Empty(t, ParseStatus([]byte("")))
}

func TestStatusEntry_UnmergedCodes(t *testing.T) {
	for _, code := range []string{"UU", "AA", "DD", "AU", "UA", "DU", "UD"} {
		e := StatusEntry{Index: code[0], Worktree: code[1], Path: "f"}
		assert.True(t, e.IsUnmerged(), code)
		assert.False(t, e.IsChanged(), code)
	}

	for _, code := range []string{"M ", "A ", "??", "!!", "MM"} {
		e := StatusEntry{Index: code[0], Worktree: code[1], Path: "f"}
		assert.False(t, e.IsUnmerged(), code)
	}
}

func TestStatusEntry_UntrackedIsNotAChange(t *testing.T) {
	e := StatusEntry{Index: '?', Worktree: '?', Path: "scratch.txt"}
	assert.False(t, e.IsChanged())
}
