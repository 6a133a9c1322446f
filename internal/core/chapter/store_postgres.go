// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
The PostgreSQL repository keeps the engine's invariants inside the database:

  - (storyid, chapternumber) is a DEFERRABLE unique constraint, so a reorder can
    permute numbers inside one transaction and a lost create race surfaces as
    unique_violation (mapped to Conflict) at commit.
  - total_chapters, views and likes only change through in-place increments
    executed in the same transaction as the row they count.
*/
package chapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/database/schema"
	"github.com/taibuivan/inkwell/internal/platform/dberr"
	"github.com/taibuivan/inkwell/internal/platform/postgres"
)

const (
	resourceChapter = "Chapter"
	resourceStory   = "Story"
)

var (
	chapterTable = schema.ContentChapter
	storyTable   = schema.ContentStory
	likeTable    = schema.ContentChapterLike
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed chapter store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// selectColumns lists the chapter columns in [chapterDestinations] order.
// contentExpr is the body column, or a literal '' for listings.
func selectColumns(contentExpr string) string {
	return strings.Join([]string{
		chapterTable.ID, chapterTable.StoryID, chapterTable.ChapterNumber, chapterTable.Title, contentExpr,
		chapterTable.WordCount, chapterTable.ReadingTimeMinutes, chapterTable.CoinPrice, chapterTable.IsFree,
		chapterTable.Status, chapterTable.ModerationStatus, chapterTable.ModerationNotes,
		chapterTable.Views, chapterTable.Likes, chapterTable.PublishedAt, chapterTable.CreatedAt, chapterTable.UpdatedAt,
	}, ", ")
}

// chapterDestinations returns scan targets matching [selectColumns].
func chapterDestinations(chapter *Chapter) []any {
	return []any{
		&chapter.ID, &chapter.StoryID, &chapter.Number, &chapter.Title, &chapter.Content,
		&chapter.WordCount, &chapter.ReadingTimeMinutes, &chapter.CoinPrice, &chapter.IsFree,
		&chapter.Status, &chapter.ModerationStatus, &chapter.ModerationNotes,
		&chapter.Views, &chapter.Likes, &chapter.PublishedAt, &chapter.CreatedAt, &chapter.UpdatedAt,
	}
}

// queryOne runs a single-row query and scans it into a chapter.
func (repository *PostgresRepository) queryOne(context context.Context, action, query string, args ...any) (*Chapter, error) {
	chapter := &Chapter{}
	if err := repository.pool.QueryRow(context, query, args...).Scan(chapterDestinations(chapter)...); err != nil {
		return nil, dberr.Wrap(err, resourceChapter, action)
	}
	return chapter, nil
}

// queryMany runs a multi-row query and scans every row into a chapter.
func (repository *PostgresRepository) queryMany(context context.Context, action, query string, args ...any) ([]*Chapter, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, resourceChapter, action)
	}
	defer rows.Close()

	chapters := make([]*Chapter, 0)
	for rows.Next() {
		chapter := &Chapter{}
		if err := rows.Scan(chapterDestinations(chapter)...); err != nil {
			return nil, dberr.Wrap(err, resourceChapter, action)
		}
		chapters = append(chapters, chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceChapter, action)
	}
	return chapters, nil
}

// # Reads

// FindByID returns the chapter with the given ID, body included.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		selectColumns(chapterTable.Content), chapterTable.Table, chapterTable.ID,
	)
	return repository.queryOne(context, "get_chapter_by_id", query, id)
}

// FindByNumber returns the chapter of storyID holding number.
func (repository *PostgresRepository) FindByNumber(context context.Context, storyID string, number int) (*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		selectColumns(chapterTable.Content), chapterTable.Table, chapterTable.StoryID, chapterTable.ChapterNumber,
	)
	return repository.queryOne(context, "get_chapter_by_number", query, storyID, number)
}

/*
FindAdjacent returns the nearest neighbour of anchor in the given direction.

Description: A single indexed range scan on (storyid, chapternumber) with LIMIT 1.
Chapters the visibility excludes are skipped inside the scan, so a hidden
chapter never blocks the way to the ones after it.
*/
func (repository *PostgresRepository) FindAdjacent(context context.Context, storyID string, anchor int, direction Direction, visibility Visibility) (*Chapter, error) {
	comparison, order := ">", "ASC"
	if direction == Previous {
		comparison, order = "<", "DESC"
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s %s $2`,
		selectColumns(chapterTable.Content), chapterTable.Table,
		chapterTable.StoryID, chapterTable.ChapterNumber, comparison,
	))
	if visibility.PublishedOnly {
		queryBuilder.WriteString(fmt.Sprintf(` AND %s = '%s'`, chapterTable.Status, StatusPublished))
	}
	queryBuilder.WriteString(moderationFilter(visibility.Policy))
	queryBuilder.WriteString(fmt.Sprintf(` ORDER BY %s %s LIMIT 1`, chapterTable.ChapterNumber, order))

	return repository.queryOne(context, "find_adjacent_chapter", queryBuilder.String(), storyID, anchor)
}

// moderationFilter renders the WHERE fragment that drops chapters policy hides.
func moderationFilter(policy ModerationPolicy) string {
	switch policy {
	case PolicyBlockRejected:
		return fmt.Sprintf(` AND %s <> '%s'`, chapterTable.ModerationStatus, ModerationRejected)
	case PolicyRequireApproved:
		return fmt.Sprintf(` AND %s = '%s'`, chapterTable.ModerationStatus, ModerationApproved)
	default:
		return ""
	}
}

// ListByStory returns the chapters of storyID ordered by number, without bodies.
func (repository *PostgresRepository) ListByStory(context context.Context, storyID string, publishedOnly bool) ([]*Chapter, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		selectColumns("''"), chapterTable.Table, chapterTable.StoryID,
	))
	if publishedOnly {
		queryBuilder.WriteString(fmt.Sprintf(` AND %s = '%s'`, chapterTable.Status, StatusPublished))
	}
	queryBuilder.WriteString(fmt.Sprintf(` ORDER BY %s ASC`, chapterTable.ChapterNumber))

	return repository.queryMany(context, "list_chapters_by_story", queryBuilder.String(), storyID)
}

// ListBetween returns Published chapters of storyID numbered within [from, to].
func (repository *PostgresRepository) ListBetween(context context.Context, storyID string, from, to int) ([]*Chapter, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = '%s' AND %s BETWEEN $2 AND $3
		ORDER BY %s ASC
	`,
		selectColumns("''"), chapterTable.Table,
		chapterTable.StoryID, chapterTable.Status, StatusPublished, chapterTable.ChapterNumber,
		chapterTable.ChapterNumber,
	)
	return repository.queryMany(context, "list_chapters_between", query, storyID, from, to)
}

/*
Search matches Published chapters of a story against a web-style query.

Description: Uses 'websearch_to_tsquery' against the GIN index on title and body.
*/
func (repository *PostgresRepository) Search(context context.Context, storyID, query string, limit int) ([]*Chapter, error) {
	statement := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = '%s'
		  AND to_tsvector('simple', %s || ' ' || %s) @@ websearch_to_tsquery('simple', $2)
		ORDER BY %s ASC
		LIMIT $3
	`,
		selectColumns("''"), chapterTable.Table,
		chapterTable.StoryID, chapterTable.Status, StatusPublished,
		chapterTable.Title, chapterTable.Content,
		chapterTable.ChapterNumber,
	)
	return repository.queryMany(context, "search_chapters", statement, storyID, query, limit)
}

// MaxNumber returns the highest chapter number of storyID, or 0.
func (repository *PostgresRepository) MaxNumber(context context.Context, storyID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = $1`,
		chapterTable.ChapterNumber, chapterTable.Table, chapterTable.StoryID,
	)

	var maxNumber int
	if err := repository.pool.QueryRow(context, query, storyID).Scan(&maxNumber); err != nil {
		return 0, dberr.Wrap(err, resourceChapter, "max_chapter_number")
	}
	return maxNumber, nil
}

// NumberTaken reports whether a chapter other than excludeID holds number in storyID.
func (repository *PostgresRepository) NumberTaken(context context.Context, storyID string, number int, excludeID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1 AND %s = $2 AND ($3::text = '' OR %s::text <> $3::text)
		)
	`,
		chapterTable.Table, chapterTable.StoryID, chapterTable.ChapterNumber, chapterTable.ID,
	)

	var taken bool
	if err := repository.pool.QueryRow(context, query, storyID, number, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, resourceChapter, "check_chapter_number")
	}
	return taken, nil
}

// ListPendingModeration returns a page of chapters awaiting review, oldest first.
func (repository *PostgresRepository) ListPendingModeration(context context.Context, limit, offset int) ([]*Chapter, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = '%s'
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2
	`,
		selectColumns(chapterTable.Content), chapterTable.Table,
		chapterTable.ModerationStatus, ModerationPending,
		chapterTable.CreatedAt, chapterTable.ID,
	)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceChapter, "list_pending_moderation")
	}
	defer rows.Close()

	chapters := make([]*Chapter, 0, limit)
	var total int
	for rows.Next() {
		chapter := &Chapter{}
		if err := rows.Scan(append(chapterDestinations(chapter), &total)...); err != nil {
			return nil, 0, dberr.Wrap(err, resourceChapter, "scan_pending_moderation")
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceChapter, "list_pending_moderation")
	}

	return chapters, total, nil
}

// # Writes

/*
Create inserts a chapter and increments its story's total_chapters.

Description: Executes within a transaction.
 1. Inserts the chapter row.
 2. Increments content.story.totalchapters in place.
 3. Commits; the deferred (storyid, chapternumber) check runs here, so a
    concurrent create of the same number fails with Conflict.
*/
func (repository *PostgresRepository) Create(context context.Context, chapter *Chapter) error {
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		chapterTable.Table,
		chapterTable.ID, chapterTable.StoryID, chapterTable.ChapterNumber, chapterTable.Title, chapterTable.Content,
		chapterTable.WordCount, chapterTable.ReadingTimeMinutes, chapterTable.CoinPrice, chapterTable.IsFree,
		chapterTable.Status, chapterTable.ModerationStatus, chapterTable.ModerationNotes,
		chapterTable.PublishedAt, chapterTable.CreatedAt, chapterTable.UpdatedAt,
	)

	countQuery := fmt.Sprintf(`UPDATE %s SET %s = %s + 1, %s = NOW() WHERE %s = $1`,
		storyTable.Table, storyTable.TotalChapters, storyTable.TotalChapters, storyTable.UpdatedAt, storyTable.ID,
	)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		if _, err := transaction.Exec(context, insertQuery,
			chapter.ID, chapter.StoryID, chapter.Number, chapter.Title, chapter.Content,
			chapter.WordCount, chapter.ReadingTimeMinutes, chapter.CoinPrice, chapter.IsFree,
			chapter.Status, chapter.ModerationStatus, chapter.ModerationNotes,
			chapter.PublishedAt, chapter.CreatedAt, chapter.UpdatedAt,
		); err != nil {
			return err
		}

		tag, err := transaction.Exec(context, countQuery, chapter.StoryID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceStory)
		}
		return nil
	})

	return dberr.Wrap(err, resourceChapter, "create_chapter")
}

/*
Update writes every mutable column of the chapter.

Description: The write is conditional on updatedat still holding
expectedUpdatedAt, so an edit based on a stale read fails with Conflict
instead of overwriting a concurrent change.
*/
func (repository *PostgresRepository) Update(context context.Context, chapter *Chapter, expectedUpdatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7,
		    %s = $8, %s = $9, %s = $10, %s = $11, %s = $12, %s = $13
		WHERE %s = $1 AND %s = $14
	`,
		chapterTable.Table,
		chapterTable.ChapterNumber, chapterTable.Title, chapterTable.Content, chapterTable.WordCount,
		chapterTable.ReadingTimeMinutes, chapterTable.CoinPrice,
		chapterTable.IsFree, chapterTable.Status, chapterTable.ModerationStatus, chapterTable.ModerationNotes,
		chapterTable.PublishedAt, chapterTable.UpdatedAt,
		chapterTable.ID, chapterTable.UpdatedAt,
	)

	tag, err := repository.pool.Exec(context, query,
		chapter.ID,
		chapter.Number, chapter.Title, chapter.Content, chapter.WordCount,
		chapter.ReadingTimeMinutes, chapter.CoinPrice,
		chapter.IsFree, chapter.Status, chapter.ModerationStatus, chapter.ModerationNotes,
		chapter.PublishedAt, chapter.UpdatedAt,
		expectedUpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceChapter, "update_chapter")
	}
	if tag.RowsAffected() == 0 {
		return repository.missed(context, chapter.ID, "Chapter was modified by another request, reload and retry")
	}
	return nil
}

// SetPublication writes the publication columns if the stored status is still from.
func (repository *PostgresRepository) SetPublication(context context.Context, chapter *Chapter, from Status) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4
		WHERE %s = $1 AND %s = $5
		RETURNING %s
	`,
		chapterTable.Table, chapterTable.Status, chapterTable.PublishedAt, chapterTable.UpdatedAt,
		chapterTable.ID, chapterTable.Status,
		selectColumns(chapterTable.Content),
	)

	err := repository.pool.QueryRow(context, query,
		chapter.ID, chapter.Status, chapter.PublishedAt, chapter.UpdatedAt, from,
	).Scan(chapterDestinations(chapter)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.missed(context, chapter.ID, fmt.Sprintf("Chapter is no longer %s", from))
	}
	return dberr.Wrap(err, resourceChapter, "set_chapter_publication")
}

// SetModeration writes the moderation columns if the stored decision is still from.
func (repository *PostgresRepository) SetModeration(context context.Context, chapter *Chapter, from ModerationStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4
		WHERE %s = $1 AND %s = $5
		RETURNING %s
	`,
		chapterTable.Table, chapterTable.ModerationStatus, chapterTable.ModerationNotes, chapterTable.UpdatedAt,
		chapterTable.ID, chapterTable.ModerationStatus,
		selectColumns(chapterTable.Content),
	)

	err := repository.pool.QueryRow(context, query,
		chapter.ID, chapter.ModerationStatus, chapter.ModerationNotes, chapter.UpdatedAt, from,
	).Scan(chapterDestinations(chapter)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.missed(context, chapter.ID, "Chapter was moderated by another request, reload and retry")
	}
	return dberr.Wrap(err, resourceChapter, "set_chapter_moderation")
}

// missed explains a conditional write that matched no row: NotFound when the
// chapter is gone, Conflict with message when its guard column moved.
func (repository *PostgresRepository) missed(context context.Context, id, message string) error {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, chapterTable.Table, chapterTable.ID)

	var exists bool
	if err := repository.pool.QueryRow(context, query, id).Scan(&exists); err != nil {
		return dberr.Wrap(err, resourceChapter, "check_chapter_exists")
	}
	if !exists {
		return apperr.NotFound(resourceChapter)
	}
	return apperr.Conflict(message)
}

/*
Delete removes a chapter and decrements its story's total_chapters.

Description: The decrement only runs when a row was actually deleted and is
floored at zero with GREATEST, so a double delete cannot drift the counter.
*/
func (repository *PostgresRepository) Delete(context context.Context, chapter *Chapter) error {
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, chapterTable.Table, chapterTable.ID)
	countQuery := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(0, %s - 1), %s = NOW() WHERE %s = $1`,
		storyTable.Table, storyTable.TotalChapters, storyTable.TotalChapters, storyTable.UpdatedAt, storyTable.ID,
	)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		tag, err := transaction.Exec(context, deleteQuery, chapter.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceChapter)
		}

		_, err = transaction.Exec(context, countQuery, chapter.StoryID)
		return err
	})

	return dberr.Wrap(err, resourceChapter, "delete_chapter")
}

/*
Reorder applies a reorder plan atomically.

Description: Queues one UPDATE per assignment on a pgx batch inside a
transaction. Intermediate duplicates are allowed by the deferred unique
constraint; the final numbering is checked at commit. Any missing row or
constraint failure rolls the whole batch back.
*/
func (repository *PostgresRepository) Reorder(context context.Context, storyID string, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW() WHERE %s = $2 AND %s = $3`,
		chapterTable.Table, chapterTable.ChapterNumber, chapterTable.UpdatedAt, chapterTable.ID, chapterTable.StoryID,
	)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, assignment := range assignments {
			batch.Queue(query, assignment.Number, assignment.ChapterID, storyID)
		}

		results := transaction.SendBatch(context, batch)
		for _, assignment := range assignments {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			if tag.RowsAffected() == 0 {
				_ = results.Close()
				return apperr.NotFound(resourceChapter).WithCause(fmt.Errorf("chapter %s left the story during reorder", assignment.ChapterID))
			}
		}
		return results.Close()
	})

	return dberr.Wrap(err, resourceChapter, "reorder_chapters")
}

// IncrementViews adds one view to the chapter and to its story's total_views.
func (repository *PostgresRepository) IncrementViews(context context.Context, chapterID, storyID string) error {
	chapterQuery := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1`,
		chapterTable.Table, chapterTable.Views, chapterTable.Views, chapterTable.ID,
	)
	storyQuery := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1`,
		storyTable.Table, storyTable.TotalViews, storyTable.TotalViews, storyTable.ID,
	)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		tag, err := transaction.Exec(context, chapterQuery, chapterID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceChapter)
		}
		_, err = transaction.Exec(context, storyQuery, storyID)
		return err
	})

	return dberr.Wrap(err, resourceChapter, "increment_chapter_views")
}

/*
AddLike records a like and bumps both like counters.

Description: The relation insert uses ON CONFLICT DO NOTHING; the counters are
only incremented when a row was actually inserted, keeping likes equal to the
number of relation rows.
*/
func (repository *PostgresRepository) AddLike(context context.Context, chapterID, storyID, userID string) (bool, error) {
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`, likeTable.Table, likeTable.ChapterID, likeTable.UserID, likeTable.CreatedAt)

	return repository.adjustLikes(context, "like_chapter", insertQuery, "+ 1", chapterID, storyID, userID)
}

// RemoveLike deletes a like and lowers both counters, never below zero.
func (repository *PostgresRepository) RemoveLike(context context.Context, chapterID, storyID, userID string) (bool, error) {
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		likeTable.Table, likeTable.ChapterID, likeTable.UserID,
	)

	return repository.adjustLikes(context, "unlike_chapter", deleteQuery, "- 1", chapterID, storyID, userID)
}

// adjustLikes runs a relation change and, if it touched a row, moves both counters by delta.
func (repository *PostgresRepository) adjustLikes(context context.Context, action, relationQuery, delta, chapterID, storyID, userID string) (bool, error) {
	chapterQuery := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(0, %s %s) WHERE %s = $1`,
		chapterTable.Table, chapterTable.Likes, chapterTable.Likes, delta, chapterTable.ID,
	)
	storyQuery := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(0, %s %s) WHERE %s = $1`,
		storyTable.Table, storyTable.TotalLikes, storyTable.TotalLikes, delta, storyTable.ID,
	)

	changed := false
	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		tag, err := transaction.Exec(context, relationQuery, chapterID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		changed = true

		if _, err := transaction.Exec(context, chapterQuery, chapterID); err != nil {
			return err
		}
		_, err = transaction.Exec(context, storyQuery, storyID)
		return err
	})
	if err != nil {
		return false, dberr.Wrap(err, resourceChapter, action)
	}

	return changed, nil
}
