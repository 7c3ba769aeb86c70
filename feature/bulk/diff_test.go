package bulk_test

import (
	"strings"
	"testing"

	"batch-engine/feature/bulk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntityDiff_Identity(t *testing.T) {
	snapshots := []map[string]any{
		{},
		{"id": "1", "status": "done"},
		{"tags": []any{"a", "b"}, "meta": map[string]any{"n": float64(1), "nested": []any{map[string]any{"x": nil}}}},
	}
	for _, x := range snapshots {
		d := bulk.CreateEntityDiff("1", x, x)
		assert.False(t, d.HasChanges)
		assert.Zero(t, d.ChangeCount)
		assert.NotNil(t, d.Operations)
		assert.Empty(t, d.Operations)
	}
}

func TestCreateEntityDiff_Add(t *testing.T) {
	d := bulk.CreateEntityDiff("1", map[string]any{}, map[string]any{"x": 1})
	require.Len(t, d.Operations, 1)
	assert.Equal(t, bulk.DiffOperation{Operation: bulk.OpAdd, Path: "x", NewValue: 1}, d.Operations[0])
	assert.True(t, d.HasChanges)
	assert.Equal(t, 1, d.ChangeCount)
}

func TestCreateEntityDiff_Operations(t *testing.T) {
	before := map[string]any{
		"Status":   "todo",
		"name":     "Old",
		"removed":  true,
		"same":     float64(3),
		"tags":     []any{"a", "b"},
		"owner":    nil,
		"settings": map[string]any{"color": "red"},
	}
	after := map[string]any{
		"Status":   "done",
		"name":     "Old",
		"same":     3,
		"tags":     []any{"b", "a"},
		"owner":    "me",
		"settings": map[string]any{"color": "red", "size": "L"},
		"added":    "x",
	}

	d := bulk.CreateEntityDiff("1", before, after)

	paths := make([]string, len(d.Operations))
	for i, op := range d.Operations {
		paths[i] = op.Path
	}
	assert.Equal(t, []string{"Status", "added", "owner", "removed", "settings", "tags"}, paths)
	assert.Equal(t, bulk.OpChange, d.Operations[0].Operation)
	assert.Equal(t, bulk.OpAdd, d.Operations[1].Operation)
	assert.Equal(t, bulk.OpChange, d.Operations[2].Operation)
	assert.Equal(t, bulk.OpRemove, d.Operations[3].Operation)
	assert.Equal(t, []string{"Status"}, d.SignificantChanges)
}

func TestCreateEntityDiff_SignificantSubset(t *testing.T) {
	d := bulk.CreateEntityDiff("1",
		map[string]any{"status": "a", "dueDate": "2024-01-01", "deleted": false, "notes": "x"},
		map[string]any{"status": "b", "dueDate": "2024-02-01", "archived": true, "notes": "y"},
	)

	paths := map[string]bool{}
	for _, op := range d.Operations {
		paths[op.Path] = true
	}
	for _, p := range d.SignificantChanges {
		assert.True(t, paths[p], p)
	}
	assert.ElementsMatch(t, []string{"archived", "deleted", "dueDate", "status"}, d.SignificantChanges)
}

func TestCreateEntityDiff_ValueRules(t *testing.T) {
	tests := []struct {
		name    string
		a, b    any
		changed bool
	}{
		{"NilVsValue", nil, "x", true},
		{"NilVsNil", nil, nil, false},
		{"IntVsFloat", 2, float64(2), false},
		{"NumberVsString", float64(1), "1", true},
		{"ListLength", []any{1}, []any{1, 2}, true},
		{"ListOrder", []any{1, 2}, []any{2, 1}, true},
		{"TypedList", []string{"a"}, []any{"a"}, false},
		{"ObjectKeyCount", map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, true},
		{"ObjectNested", map[string]any{"a": map[string]any{"b": 1}}, map[string]any{"a": map[string]any{"b": 2}}, true},
		{"ListVsObject", []any{}, map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := bulk.CreateEntityDiff("1", map[string]any{"v": tt.a}, map[string]any{"v": tt.b})
			assert.Equal(t, tt.changed, d.HasChanges)
		})
	}
}

func sampleDiffs() []bulk.EntityDiff {
	return []bulk.EntityDiff{
		bulk.CreateEntityDiff("1", map[string]any{"status": "todo", "x": 1}, map[string]any{"status": "done"}),
		bulk.CreateEntityDiff("2", map[string]any{"notes": "a"}, map[string]any{"notes": "a"}),
		bulk.CreateEntityDiff("3", map[string]any{}, map[string]any{"notes": "b"}),
	}
}

func TestFormatDiffs(t *testing.T) {
	diffs := sampleDiffs()

	t.Run("Summary", func(t *testing.T) {
		assert.Equal(t, "3 entities, 2 with changes, 3 changes (1 added, 1 changed, 1 removed), 1 significant",
			bulk.FormatDiffs(diffs, bulk.FormatSummary))
	})

	t.Run("Compact", func(t *testing.T) {
		assert.Equal(t, "1: 2 changes [status]\n3: 1 changes", bulk.FormatDiffs(diffs, bulk.FormatCompact))
	})

	t.Run("Detailed", func(t *testing.T) {
		out := bulk.FormatDiffs(diffs, bulk.FormatDetailed)
		assert.Contains(t, out, "1 (2 changes)")
		assert.Contains(t, out, `* ~ status: "todo" -> "done"`)
		assert.Contains(t, out, "  - x: 1")
		assert.Contains(t, out, `  + notes: "b"`)
		assert.NotContains(t, out, "2 (")
	})

	t.Run("NoChanges", func(t *testing.T) {
		assert.Equal(t, "No changes", bulk.FormatDiffs(diffs[1:2], bulk.FormatCompact))
	})
}

func TestFormatDiffs_InlineDiff(t *testing.T) {
	before := "The quick brown fox jumps over the lazy dog near the river"
	after := "The quick red fox jumps over the lazy dog near the river"
	d := bulk.CreateEntityDiff("1", map[string]any{"summary": before}, map[string]any{"summary": after})

	out := bulk.FormatDiffs([]bulk.EntityDiff{d}, bulk.FormatDetailed)
	assert.Contains(t, out, "[-")
	assert.Contains(t, out, "{+")
	assert.Contains(t, out, " fox jumps over the lazy dog")
	assert.False(t, strings.Contains(out, "->"))

	assert.Equal(t, "a [-b-]{+c+} d", bulk.InlineDiff("a b d", "a c d"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, bulk.FormatDetailed, bulk.ParseFormat("Detailed"))
	assert.Equal(t, bulk.FormatCompact, bulk.ParseFormat("compact"))
	assert.Equal(t, bulk.FormatSummary, bulk.ParseFormat("other"))
}

func TestGroupByOperation(t *testing.T) {
	groups := bulk.GroupByOperation(sampleDiffs())
	require.Len(t, groups[bulk.OpChange], 1)
	assert.Equal(t, "1", groups[bulk.OpChange][0].ID)
	assert.Equal(t, "status", groups[bulk.OpChange][0].Path)
	assert.Len(t, groups[bulk.OpRemove], 1)
	require.Len(t, groups[bulk.OpAdd], 1)
	assert.Equal(t, "3", groups[bulk.OpAdd][0].ID)
}

func TestFilterSignificant(t *testing.T) {
	got := bulk.FilterSignificant(sampleDiffs())
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}
