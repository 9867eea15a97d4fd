package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeRecord_Defaults(t *testing.T) {
	c := NewChangeRecord("conf/app.xml", ".xml", "XMLDiffer", false)

	assert.Equal(t, "conf/app.xml", c.FilePath)
	assert.True(t, c.HasSemanticChange, "changes are semantic until proven otherwise")
	assert.False(t, c.HasConflict)
	assert.Nil(t, c.Summary)
	assert.NotNil(t, c.FormatSpecific)
	assert.Empty(t, c.FormatSpecific)
	assert.True(t, c.Detailed.IsEmpty())
	assert.Equal(t, "", c.Before())
	assert.Equal(t, "", c.After())
}

func TestNewComparisonRecord(t *testing.T) {
	r := NewComparisonRecord("development", "master")

	assert.Equal(t, "development-to-master", r.TempBranch)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Empty(t, r.Changes)

	r.Fail("branch 'development' does not exist")
	assert.Equal(t, StatusError, r.Status)
	assert.Contains(t, r.ErrorMessage, "development")
}

func TestComparisonRecord_Counts(t *testing.T) {
	r := NewComparisonRecord("a", "b")
	semantic := NewChangeRecord("a.txt", ".txt", "GenericDiffer", false)
	cosmetic := NewChangeRecord("b.yaml", ".yaml", "YAMLDiffer", false)
	cosmetic.HasSemanticChange = false
	conflicted := NewChangeRecord("c.txt", ".txt", "GenericDiffer", true)
	r.Changes = append(r.Changes, semantic, cosmetic, conflicted)

	assert.Equal(t, 2, r.SemanticCount())
	assert.Equal(t, 1, r.CosmeticCount())
	assert.Equal(t, 1, r.ConflictCount())
}

func TestChangeRecord_JSONKeys(t *testing.T) {
	before := "old"
	c := NewChangeRecord("x.properties", ".properties", "PropertiesDiffer", false)
	c.ContentBefore = &before
	c.Summary = &Summary{Additions: 1, Deletions: 2, TotalChanges: 3}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PropertiesDiffer", decoded["differencer_used"])
	assert.Equal(t, "old", decoded["content_before"])
	assert.Nil(t, decoded["content_after"])
	assert.Equal(t, float64(3), decoded["summary"].(map[string]any)["total_changes"])
}
