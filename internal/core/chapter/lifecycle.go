// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/constants"
	"github.com/taibuivan/inkwell/internal/platform/validate"
	"github.com/taibuivan/inkwell/pkg/pointer"
	"github.com/taibuivan/inkwell/pkg/wordcount"
)

// maxCoinPrice is the largest value content.chapter.coinprice can hold.
var maxCoinPrice = decimal.NewFromFloat(constants.MaxCoinPrice)

// # Transition Tables

// publicationTransitions lists the legal Status changes.
var publicationTransitions = map[Status][]Status{
	StatusDraft:     {StatusPublished},
	StatusPublished: {StatusDraft},
}

// moderationTransitions lists the legal ModerationStatus changes. A decision
// stays until a moderator overrides it; nothing returns to Pending.
var moderationTransitions = map[ModerationStatus][]ModerationStatus{
	ModerationPending:  {ModerationApproved, ModerationRejected},
	ModerationApproved: {ModerationApproved, ModerationRejected},
	ModerationRejected: {ModerationApproved, ModerationRejected},
}

// CanTransition reports whether a chapter may move from one publication state to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(publicationTransitions[from], to)
}

// CanModerate reports whether a moderation decision may replace the current one.
func CanModerate(from, to ModerationStatus) bool {
	return slices.Contains(moderationTransitions[from], to)
}

// # Lifecycle Operations

// newDraft builds a chapter in its initial state: Draft, moderation Pending.
func newDraft(id, storyID string, number int, input CreateInput, now time.Time) *Chapter {
	chapter := &Chapter{
		ID:               id,
		StoryID:          storyID,
		Number:           number,
		Title:            strings.TrimSpace(input.Title),
		CoinPrice:        input.CoinPrice,
		IsFree:           input.IsFree,
		Status:           StatusDraft,
		ModerationStatus: ModerationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	chapter.SetContent(input.Content)
	return chapter
}

// SetContent replaces the body and recomputes the derived word count and reading time.
func (chapter *Chapter) SetContent(content string) {
	chapter.Content = content
	chapter.WordCount = wordcount.Count(content)
	chapter.ReadingTimeMinutes = wordcount.ReadingMinutes(content, constants.WordsPerMinute)
}

/*
Publish moves a Draft chapter to Published and stamps PublishedAt.

Returns:
  - apperr.Unprocessable if the chapter is already Published
  - apperr.ValidationError if the body is empty
*/
func (chapter *Chapter) Publish(now time.Time) error {
	if !CanTransition(chapter.Status, StatusPublished) {
		return apperr.Unprocessable("Chapter is already published")
	}
	if strings.TrimSpace(chapter.Content) == "" {
		return validate.RequiredError(FieldContent, "Cannot publish a chapter without content")
	}

	chapter.Status = StatusPublished
	chapter.PublishedAt = &now
	chapter.UpdatedAt = now
	return nil
}

/*
Unpublish moves a Published chapter back to Draft and clears PublishedAt.

Returns:
  - apperr.Unprocessable if the chapter is already a Draft
*/
func (chapter *Chapter) Unpublish(now time.Time) error {
	if !CanTransition(chapter.Status, StatusDraft) {
		return apperr.Unprocessable("Chapter is not published")
	}

	chapter.Status = StatusDraft
	chapter.PublishedAt = nil
	chapter.UpdatedAt = now
	return nil
}

/*
Moderate records a moderator decision and its notes. It never touches Status.

Returns:
  - apperr.Unprocessable for a decision the moderation table does not allow
*/
func (chapter *Chapter) Moderate(decision ModerationStatus, notes string, now time.Time) error {
	if !CanModerate(chapter.ModerationStatus, decision) {
		return apperr.Unprocessable(fmt.Sprintf("Cannot move moderation from %s to %s", chapter.ModerationStatus, decision))
	}

	chapter.ModerationStatus = decision
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		chapter.ModerationNotes = &trimmed
	} else {
		chapter.ModerationNotes = nil
	}
	chapter.UpdatedAt = now
	return nil
}

/*
ApplyPatch mutates the chapter with every non-nil field of patch.

Content changes recompute the word count. The ShouldPublish directive only
triggers a transition when the desired state differs from the current one.
Number changes are applied here; uniqueness is checked by the caller.

Returns:
  - bool: whether the chapter number changed
  - error: validation or transition failures; the chapter is left untouched on error
*/
func (chapter *Chapter) ApplyPatch(patch Patch, now time.Time) (bool, error) {
	if err := validatePatch(patch); err != nil {
		return false, err
	}

	next := *chapter
	next.Title = strings.TrimSpace(pointer.Fallback(patch.Title, next.Title))
	next.CoinPrice = pointer.Fallback(patch.CoinPrice, next.CoinPrice)
	next.IsFree = pointer.Fallback(patch.IsFree, next.IsFree)
	if patch.Content != nil {
		next.SetContent(*patch.Content)
	}

	numberChanged := patch.Number != nil && *patch.Number != chapter.Number
	if numberChanged {
		next.Number = *patch.Number
	}

	if patch.ShouldPublish != nil && *patch.ShouldPublish != next.IsPublished() {
		var err error
		if *patch.ShouldPublish {
			err = next.Publish(now)
		} else {
			err = next.Unpublish(now)
		}
		if err != nil {
			return false, err
		}
	}

	if next.IsPublished() && strings.TrimSpace(next.Content) == "" {
		return false, validate.RequiredError(FieldContent, "A published chapter cannot be emptied")
	}
	if err := validatePricing(next.IsFree, next.CoinPrice); err != nil {
		return false, err
	}

	next.UpdatedAt = now
	*chapter = next
	return numberChanged, nil
}

// # Validation

// validateCreate checks the fields of a new chapter.
func validateCreate(input CreateInput) error {
	title := strings.TrimSpace(input.Title)

	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, title).
		MaxLen(FieldTitle, title, constants.MaxChapterTitleLength).
		Price(FieldCoinPrice, input.CoinPrice, maxCoinPrice)
	if input.Number != nil {
		validator.Positive(FieldNumber, *input.Number)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	return validatePricing(input.IsFree, input.CoinPrice)
}

// validatePatch checks the shape of each provided field.
func validatePatch(patch Patch) error {
	validator := &validate.Validator{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, constants.MaxChapterTitleLength)
	}
	if patch.Number != nil {
		validator.Positive(FieldNumber, *patch.Number)
	}
	if patch.CoinPrice != nil {
		validator.Price(FieldCoinPrice, *patch.CoinPrice, maxCoinPrice)
	}
	return validator.Err()
}

// validatePricing rejects a paid chapter without a price, which no reader could ever buy.
func validatePricing(isFree bool, price decimal.Decimal) error {
	if !isFree && !price.IsPositive() {
		return validate.RequiredError(FieldCoinPrice, "A paid chapter needs a coin price above zero")
	}
	return nil
}
