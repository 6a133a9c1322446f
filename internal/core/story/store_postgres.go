// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package story

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/database/schema"
	"github.com/taibuivan/inkwell/internal/platform/dberr"
)

const resourceStory = "Story"

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed story store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// selectColumns lists the story columns in the order FindByID scans them.
var selectColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
	schema.ContentStory.ID, schema.ContentStory.AuthorID, schema.ContentStory.Title,
	schema.ContentStory.Slug, schema.ContentStory.Description, schema.ContentStory.Status,
	schema.ContentStory.ContentType, schema.ContentStory.ModerationStatus,
	schema.ContentStory.TotalChapters, schema.ContentStory.TotalViews, schema.ContentStory.TotalLikes,
	schema.ContentStory.PublishedAt, schema.ContentStory.CreatedAt, schema.ContentStory.UpdatedAt,
)

/*
FindByID retrieves a single story record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Story: Hydrated entity
  - error: apperr.NotFound if absent
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Story, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		selectColumns, schema.ContentStory.Table, schema.ContentStory.ID,
	)

	story := &Story{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&story.ID, &story.AuthorID, &story.Title, &story.Slug, &story.Description, &story.Status,
		&story.ContentType, &story.ModerationStatus, &story.TotalChapters, &story.TotalViews,
		&story.TotalLikes, &story.PublishedAt, &story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, resourceStory, "get_story_by_id")
	}
	return story, nil
}

// SlugExists reports whether a story already uses slug.
func (repository *PostgresRepository) SlugExists(context context.Context, slug string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.ContentStory.Table, schema.ContentStory.Slug,
	)

	var exists bool
	if err := repository.pool.QueryRow(context, query, slug).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, resourceStory, "check_story_slug")
	}
	return exists, nil
}

/*
Create inserts a new story. Counters start at zero via column defaults.

Parameters:
  - context: context.Context
  - story: *Story

Returns:
  - error: apperr.Conflict on a duplicate slug
*/
func (repository *PostgresRepository) Create(context context.Context, story *Story) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		schema.ContentStory.Table,
		schema.ContentStory.ID, schema.ContentStory.AuthorID, schema.ContentStory.Title,
		schema.ContentStory.Slug, schema.ContentStory.Description, schema.ContentStory.Status,
		schema.ContentStory.ContentType, schema.ContentStory.ModerationStatus,
		schema.ContentStory.PublishedAt, schema.ContentStory.CreatedAt, schema.ContentStory.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		story.ID, story.AuthorID, story.Title, story.Slug, story.Description, story.Status,
		story.ContentType, story.ModerationStatus, story.PublishedAt, story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceStory, "insert_story")
	}
	return nil
}

/*
Update writes the editable metadata of a story. Counters are left untouched.

Parameters:
  - context: context.Context
  - story: *Story

Returns:
  - error: apperr.NotFound if no row matched
*/
func (repository *PostgresRepository) Update(context context.Context, story *Story) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
		WHERE %s = $1
	`,
		schema.ContentStory.Table,
		schema.ContentStory.Title, schema.ContentStory.Description, schema.ContentStory.Status,
		schema.ContentStory.ContentType, schema.ContentStory.PublishedAt, schema.ContentStory.UpdatedAt,
		schema.ContentStory.ID,
	)

	tag, err := repository.pool.Exec(context, query,
		story.ID, story.Title, story.Description, story.Status, story.ContentType, story.PublishedAt, story.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceStory, "update_story")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceStory)
	}
	return nil
}
