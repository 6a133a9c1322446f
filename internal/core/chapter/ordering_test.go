// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
)

func numbered(pairs ...any) []*chapter.Chapter {
	chapters := make([]*chapter.Chapter, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		chapters = append(chapters, &chapter.Chapter{ID: pairs[i].(string), Number: pairs[i+1].(int)})
	}
	return chapters
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, 1, chapter.NextNumber(0))
	assert.Equal(t, 8, chapter.NextNumber(7))
}

func TestPlanReorder(t *testing.T) {
	current := numbered("A", 1, "B", 2, "C", 3)

	t.Run("permutation", func(t *testing.T) {
		plan, err := chapter.PlanReorder([]string{"C", "A", "B"}, current)
		require.NoError(t, err)
		assert.ElementsMatch(t, []chapter.Assignment{
			{ChapterID: "C", Number: 1},
			{ChapterID: "A", Number: 2},
			{ChapterID: "B", Number: 3},
		}, plan)
	})

	t.Run("unchanged positions are skipped", func(t *testing.T) {
		plan, err := chapter.PlanReorder([]string{"A", "C", "B"}, current)
		require.NoError(t, err)
		assert.ElementsMatch(t, []chapter.Assignment{
			{ChapterID: "C", Number: 2},
			{ChapterID: "B", Number: 3},
		}, plan)
	})

	t.Run("gaps are compacted", func(t *testing.T) {
		plan, err := chapter.PlanReorder([]string{"A", "B"}, numbered("A", 2, "B", 7))
		require.NoError(t, err)
		assert.ElementsMatch(t, []chapter.Assignment{
			{ChapterID: "A", Number: 1},
			{ChapterID: "B", Number: 2},
		}, plan)
	})

	tests := []struct {
		name string
		ids  []string
		code string
	}{
		{"empty", nil, apperr.CodeValidation},
		{"foreign id", []string{"C", "A", "Z"}, apperr.CodeValidation},
		{"duplicate id", []string{"A", "A", "B"}, apperr.CodeValidation},
		{"unlisted chapter in range", []string{"B", "C"}, apperr.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := chapter.PlanReorder(tt.ids, current)
			assert.Nil(t, plan)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}

	t.Run("unlisted chapter above the range is kept", func(t *testing.T) {
		plan, err := chapter.PlanReorder([]string{"B", "A"}, numbered("A", 1, "B", 2, "C", 3))
		require.NoError(t, err)
		assert.Len(t, plan, 2)
	})
}
