// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/pkg/pointer"
)

func draft(content string) *chapter.Chapter {
	item := &chapter.Chapter{ID: "chapter-1", Number: 1, Title: "One", IsFree: true, Status: chapter.StatusDraft, ModerationStatus: chapter.ModerationPending}
	item.SetContent(content)
	return item
}

func TestTransitionTables(t *testing.T) {
	assert.True(t, chapter.CanTransition(chapter.StatusDraft, chapter.StatusPublished))
	assert.True(t, chapter.CanTransition(chapter.StatusPublished, chapter.StatusDraft))
	assert.False(t, chapter.CanTransition(chapter.StatusPublished, chapter.StatusPublished))
	assert.False(t, chapter.CanTransition(chapter.StatusDraft, chapter.StatusDraft))

	assert.True(t, chapter.CanModerate(chapter.ModerationPending, chapter.ModerationApproved))
	assert.True(t, chapter.CanModerate(chapter.ModerationPending, chapter.ModerationRejected))
	assert.True(t, chapter.CanModerate(chapter.ModerationRejected, chapter.ModerationApproved))
	assert.False(t, chapter.CanModerate(chapter.ModerationApproved, chapter.ModerationPending))
}

func TestPublishUnpublish(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := draft("Some words here")

	require.NoError(t, item.Publish(now))
	assert.Equal(t, chapter.StatusPublished, item.Status)
	require.NotNil(t, item.PublishedAt)
	assert.Equal(t, now, *item.PublishedAt)

	err := item.Publish(now)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnprocessable), "publishing twice is rejected")

	require.NoError(t, item.Unpublish(now.Add(time.Hour)))
	assert.Equal(t, chapter.StatusDraft, item.Status)
	assert.Nil(t, item.PublishedAt)

	err = item.Unpublish(now)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnprocessable))
}

func TestPublish_EmptyContent(t *testing.T) {
	item := draft("   ")

	err := item.Publish(time.Now())
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, chapter.StatusDraft, item.Status)
}

func TestSetContent_DerivesCounts(t *testing.T) {
	item := draft("<p>Hello <b>brave</b> new</p>\n\n world")
	assert.Equal(t, 4, item.WordCount)
	assert.Equal(t, 1, item.ReadingTimeMinutes)

	item.SetContent("")
	assert.Zero(t, item.WordCount)
	assert.Zero(t, item.ReadingTimeMinutes)

	item.SetContent("<p></p><img/>")
	assert.Zero(t, item.WordCount)
	assert.Equal(t, 1, item.ReadingTimeMinutes)
}

func TestModerate(t *testing.T) {
	item := draft("text")
	now := time.Now()

	require.NoError(t, item.Moderate(chapter.ModerationRejected, "  spam  ", now))
	assert.Equal(t, chapter.ModerationRejected, item.ModerationStatus)
	require.NotNil(t, item.ModerationNotes)
	assert.Equal(t, "spam", *item.ModerationNotes)
	assert.Equal(t, chapter.StatusDraft, item.Status, "moderation never changes publication")

	require.NoError(t, item.Moderate(chapter.ModerationApproved, "", now))
	assert.Equal(t, chapter.ModerationApproved, item.ModerationStatus)
	assert.Nil(t, item.ModerationNotes)

	err := item.Moderate(chapter.ModerationPending, "", now)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnprocessable))
}

func TestApplyPatch(t *testing.T) {
	now := time.Now()

	t.Run("content recomputes counts without publishing", func(t *testing.T) {
		item := draft("one two")
		changed, err := item.ApplyPatch(chapter.Patch{Content: pointer.To("one two three four")}, now)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 4, item.WordCount)
		assert.Equal(t, chapter.StatusDraft, item.Status)
	})

	t.Run("should publish is idempotent", func(t *testing.T) {
		item := draft("words")
		_, err := item.ApplyPatch(chapter.Patch{ShouldPublish: pointer.To(true)}, now)
		require.NoError(t, err)
		assert.Equal(t, chapter.StatusPublished, item.Status)
		publishedAt := item.PublishedAt

		_, err = item.ApplyPatch(chapter.Patch{ShouldPublish: pointer.To(true)}, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, publishedAt, item.PublishedAt)

		_, err = item.ApplyPatch(chapter.Patch{ShouldPublish: pointer.To(false)}, now)
		require.NoError(t, err)
		assert.Equal(t, chapter.StatusDraft, item.Status)
	})

	t.Run("number change is reported", func(t *testing.T) {
		item := draft("words")
		changed, err := item.ApplyPatch(chapter.Patch{Number: pointer.To(4)}, now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 4, item.Number)
	})

	t.Run("published chapter cannot be emptied", func(t *testing.T) {
		item := draft("words")
		require.NoError(t, item.Publish(now))

		_, err := item.ApplyPatch(chapter.Patch{Content: pointer.To("")}, now)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.Equal(t, "words", item.Content, "a rejected patch leaves the chapter untouched")
	})

	t.Run("paid chapter needs a price", func(t *testing.T) {
		item := draft("words")
		_, err := item.ApplyPatch(chapter.Patch{IsFree: pointer.To(false)}, now)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.True(t, item.IsFree)

		_, err = item.ApplyPatch(chapter.Patch{IsFree: pointer.To(false), CoinPrice: pointer.To(decimal.NewFromInt(5))}, now)
		require.NoError(t, err)
		assert.True(t, item.IsPaid())
	})

	t.Run("invalid fields", func(t *testing.T) {
		item := draft("words")
		_, err := item.ApplyPatch(chapter.Patch{Title: pointer.To("  "), Number: pointer.To(0)}, now)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Len(t, appErr.Details, 2)
	})
}
