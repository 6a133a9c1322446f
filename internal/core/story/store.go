// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package story

import "context"

// # Story Data Access

// Repository defines the data access contract for stories.
//
// Counter columns (total_chapters, total_views, total_likes) are not written
// through this interface; the chapter store adjusts them atomically.
type Repository interface {

	/*
		FindByID retrieves a story by its UUID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Story: Hydrated entity
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Story, error)

	/*
		SlugExists reports whether a story already uses slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - bool: True if taken
		  - error: Database failures
	*/
	SlugExists(context context.Context, slug string) (bool, error)

	/*
		Create persists a new story.

		Parameters:
		  - context: context.Context
		  - story: *Story

		Returns:
		  - error: apperr.Conflict on a duplicate slug
	*/
	Create(context context.Context, story *Story) error

	/*
		Update writes the editable metadata of a story.

		Parameters:
		  - context: context.Context
		  - story: *Story

		Returns:
		  - error: apperr.NotFound if the story vanished
	*/
	Update(context context.Context, story *Story) error
}
