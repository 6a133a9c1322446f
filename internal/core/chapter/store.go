// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"time"

	"github.com/taibuivan/inkwell/internal/core/story"
)

// # Story Access

// StoryFinder is the part of [story.Repository] the chapter engine reads.
type StoryFinder interface {
	FindByID(context context.Context, id string) (*story.Story, error)
}

// # Adjacency Visibility

// Visibility narrows an adjacency scan to the chapters a principal may traverse.
// The zero value admits every chapter, which is what a story's author gets.
type Visibility struct {
	// PublishedOnly skips Drafts.
	PublishedOnly bool

	// Policy skips chapters it hides from readers.
	Policy ModerationPolicy
}

// Admits reports whether chapter is reachable under the visibility.
func (visibility Visibility) Admits(chapter *Chapter) bool {
	if visibility.PublishedOnly && !chapter.IsPublished() {
		return false
	}
	return !visibility.Policy.blocks(chapter.ModerationStatus)
}

// # Chapter Data Access

// Repository defines the data access contract for chapters.
//
// Every method that touches more than one row runs in a single transaction, and
// every counter change is an in-place SQL increment.
type Repository interface {

	/*
		FindByID returns the chapter with the given ID, body included.

		Returns:
		  - *Chapter: Hydrated chapter
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Chapter, error)

	/*
		FindByNumber returns the chapter of storyID holding number.

		Returns:
		  - *Chapter: Hydrated chapter
		  - error: apperr.NotFound if no chapter has that number
	*/
	FindByNumber(context context.Context, storyID string, number int) (*Chapter, error)

	/*
		FindAdjacent returns the nearest chapter of storyID strictly after (Next) or
		before (Previous) the anchor number. Use [BeforeFirst] / [AfterLast] as the
		anchor for first/last queries.

		Parameters:
		  - context: context.Context
		  - storyID: string
		  - anchor: int
		  - direction: Direction
		  - visibility: Visibility (zero value only for the story's author)

		Returns:
		  - *Chapter: Hydrated chapter
		  - error: apperr.NotFound if there is no such neighbour
	*/
	FindAdjacent(context context.Context, storyID string, anchor int, direction Direction, visibility Visibility) (*Chapter, error)

	/*
		ListByStory returns the chapters of storyID ordered by number, without bodies.

		Parameters:
		  - context: context.Context
		  - storyID: string
		  - publishedOnly: bool

		Returns:
		  - []*Chapter: Chapters with Content left empty
		  - error: Storage failures
	*/
	ListByStory(context context.Context, storyID string, publishedOnly bool) ([]*Chapter, error)

	/*
		ListBetween returns the Published chapters of storyID whose numbers fall
		within [from, to], ordered by number, without bodies.
	*/
	ListBetween(context context.Context, storyID string, from, to int) ([]*Chapter, error)

	/*
		Search returns Published chapters of storyID whose title or body matches
		query, ordered by number, without bodies.
	*/
	Search(context context.Context, storyID, query string, limit int) ([]*Chapter, error)

	/*
		MaxNumber returns the highest chapter number of storyID, or 0 for an empty story.
	*/
	MaxNumber(context context.Context, storyID string) (int, error)

	/*
		NumberTaken reports whether a chapter other than excludeID holds number in storyID.
		Pass "" as excludeID when checking a new chapter.
	*/
	NumberTaken(context context.Context, storyID string, number int, excludeID string) (bool, error)

	/*
		Create inserts the chapter and increments the story's total_chapters in one transaction.

		Returns:
		  - error: apperr.Conflict when the (story, number) pair was taken concurrently
	*/
	Create(context context.Context, chapter *Chapter) error

	/*
		Update writes every mutable column of the chapter, provided the stored row
		still carries expectedUpdatedAt.

		Returns:
		  - error: apperr.Conflict on a number collision or when the row changed
		    since it was read, apperr.NotFound if the row vanished
	*/
	Update(context context.Context, chapter *Chapter, expectedUpdatedAt time.Time) error

	/*
		SetPublication writes only the publication columns (status, published_at,
		updated_at), provided the stored status is still from. The chapter is
		refreshed with the stored row.

		Returns:
		  - error: apperr.Conflict when the status moved concurrently, apperr.NotFound if the row vanished
	*/
	SetPublication(context context.Context, chapter *Chapter, from Status) error

	/*
		SetModeration writes only the moderation columns (moderation status and
		notes, updated_at), provided the stored moderation status is still from.
		The chapter is refreshed with the stored row.

		Returns:
		  - error: apperr.Conflict when another decision landed first, apperr.NotFound if the row vanished
	*/
	SetModeration(context context.Context, chapter *Chapter, from ModerationStatus) error

	/*
		Delete removes the chapter and decrements the story's total_chapters
		(never below zero) in one transaction.
	*/
	Delete(context context.Context, chapter *Chapter) error

	/*
		Reorder applies every assignment of a reorder plan in one transaction.
		Either all numbers change or none do.
	*/
	Reorder(context context.Context, storyID string, assignments []Assignment) error

	/*
		IncrementViews adds one view to the chapter and to its story's total_views.
	*/
	IncrementViews(context context.Context, chapterID, storyID string) error

	/*
		AddLike records userID's like and bumps the chapter and story like counters.

		Returns:
		  - bool: false when the user had already liked the chapter (counters untouched)
	*/
	AddLike(context context.Context, chapterID, storyID, userID string) (bool, error)

	/*
		RemoveLike deletes userID's like and lowers both counters, never below zero.

		Returns:
		  - bool: false when there was no like to remove
	*/
	RemoveLike(context context.Context, chapterID, storyID, userID string) (bool, error)

	/*
		ListPendingModeration returns chapters awaiting review, oldest first.

		Returns:
		  - []*Chapter: Page of chapters, bodies included for review
		  - int: Total pending chapters
		  - error: Storage failures
	*/
	ListPendingModeration(context context.Context, limit, offset int) ([]*Chapter, int, error)
}
