package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractConflicts_Single(t *testing.T) {
	content := "line0\n<<<<<<< HEAD\nours text\n=======\ntheirs text\n>>>>>>> feature\nend\n"

	fragments, malformed := ExtractConflicts(content)

	require.Len(t, fragments, 1)
	assert.Zero(t, malformed)
	f := fragments[0]
	assert.Equal(t, "ours text", f.Ours)
	assert.Equal(t, "theirs text", f.Theirs)
	assert.Empty(t, f.Base)
	assert.Equal(t, 2, f.StartLine)
	assert.Equal(t, 6, f.EndLine)
	assert.False(t, f.WhitespaceOnly)
	assert.InDelta(t, 1.0/3.0, f.Similarity, 1e-9)
}

func TestExtractConflicts_MultipleInOrder(t *testing.T) {
	content := "<<<<<<< HEAD\n1\n=======\n2\n>>>>>>> b\nmid\n<<<<<<< HEAD\n3\n4\n=======\n5\n>>>>>>> b\n"

	fragments, _ := ExtractConflicts(content)

	require.Len(t, fragments, 2)
	assert.Equal(t, "1", fragments[0].Ours)
	assert.Equal(t, "3\n4", fragments[1].Ours)
	assert.Equal(t, "5", fragments[1].Theirs)
}

func TestExtractConflicts_Diff3Base(t *testing.T) {
	content := "<<<<<<< HEAD\na\n||||||| merged common ancestors\nb\n=======\nc\n>>>>>>> f\n"

	fragments, _ := ExtractConflicts(content)

	require.Len(t, fragments, 1)
	assert.Equal(t, "a", fragments[0].Ours)
	assert.Equal(t, "b", fragments[0].Base)
	assert.Equal(t, "c", fragments[0].Theirs)
}

func TestExtractConflicts_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		fragments int
		malformed int
	}{
		{"no separator", "<<<<<<< HEAD\nx\n", 0, 1},
		{"no closer", "<<<<<<< HEAD\nx\n=======\ny\n", 0, 1},
		{"reopened", "<<<<<<< HEAD\nx\n<<<<<<< HEAD\na\n=======\nb\n>>>>>>> f\n", 1, 1},
		{"no markers", "plain\ntext\n", 0, 0},
		{"empty", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, malformed := ExtractConflicts(tt.content)
			assert.Len(t, fragments, tt.fragments)
			assert.Equal(t, tt.malformed, malformed)
		})
	}
}

func TestExtractConflicts_WhitespaceOnlyFragment(t *testing.T) {
	content := "<<<<<<< HEAD\nx  = 1\n=======\nx = 1\n>>>>>>> f\n"

	fragments, _ := ExtractConflicts(content)

	require.Len(t, fragments, 1)
	assert.True(t, fragments[0].WhitespaceOnly)
	assert.Equal(t, 1.0, fragments[0].Similarity)
}

func TestExtractConflicts_CRLF(t *testing.T) {
	content := "<<<<<<< HEAD\r\nours\r\n=======\r\ntheirs\r\n>>>>>>> f\r\n"

	fragments, _ := ExtractConflicts(content)

	require.Len(t, fragments, 1)
	assert.Equal(t, "ours\r", fragments[0].Ours)
}

func TestCalculateJaccard(t *testing.T) {
	assert.Equal(t, 1.0, calculateJaccard(nil, nil))
	assert.Equal(t, 0.0, calculateJaccard([]string{"a"}, nil))
	assert.InDelta(t, 0.5, calculateJaccard([]string{"a", "b"}, []string{"b", "c", "a", "d"}), 1e-9)
}
