// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/core/story"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
)

// # Story Finder

// memoryStories is an in-memory [chapter.StoryFinder] whose counters the chapter store adjusts.
type memoryStories struct {
	mu      sync.Mutex
	stories map[string]story.Story
}

func (stories *memoryStories) FindByID(_ context.Context, id string) (*story.Story, error) {
	stories.mu.Lock()
	defer stories.mu.Unlock()

	found, ok := stories.stories[id]
	if !ok {
		return nil, apperr.NotFound("Story")
	}
	return &found, nil
}

func (stories *memoryStories) adjust(id string, apply func(*story.Story)) error {
	stories.mu.Lock()
	defer stories.mu.Unlock()

	found, ok := stories.stories[id]
	if !ok {
		return apperr.NotFound("Story")
	}
	apply(&found)
	stories.stories[id] = found
	return nil
}

// # Chapter Repository

// memoryChapters is an in-memory [chapter.Repository] that enforces the same
// uniqueness and counter rules as the PostgreSQL store.
type memoryChapters struct {
	mu       sync.Mutex
	stories  *memoryStories
	chapters map[string]chapter.Chapter
	likes    map[string]map[string]bool
}

func (repository *memoryChapters) FindByID(_ context.Context, id string) (*chapter.Chapter, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	found, ok := repository.chapters[id]
	if !ok {
		return nil, apperr.NotFound("Chapter")
	}
	return &found, nil
}

func (repository *memoryChapters) FindByNumber(_ context.Context, storyID string, number int) (*chapter.Chapter, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.chapters {
		if existing.StoryID == storyID && existing.Number == number {
			return &existing, nil
		}
	}
	return nil, apperr.NotFound("Chapter")
}

func (repository *memoryChapters) FindAdjacent(_ context.Context, storyID string, anchor int, direction chapter.Direction, visibility chapter.Visibility) (*chapter.Chapter, error) {
	ordered := slices.DeleteFunc(repository.ordered(storyID, false), func(candidate *chapter.Chapter) bool {
		return !visibility.Admits(candidate)
	})
	if direction == chapter.Previous {
		slices.Reverse(ordered)
	}

	for _, candidate := range ordered {
		if (direction == chapter.Next && candidate.Number > anchor) || (direction == chapter.Previous && candidate.Number < anchor) {
			return candidate, nil
		}
	}
	return nil, apperr.NotFound("Chapter")
}

func (repository *memoryChapters) ListByStory(_ context.Context, storyID string, publishedOnly bool) ([]*chapter.Chapter, error) {
	listed := repository.ordered(storyID, publishedOnly)
	for _, item := range listed {
		item.Content = ""
	}
	return listed, nil
}

func (repository *memoryChapters) ListBetween(_ context.Context, storyID string, from, to int) ([]*chapter.Chapter, error) {
	listed := make([]*chapter.Chapter, 0)
	for _, item := range repository.ordered(storyID, true) {
		if item.Number >= from && item.Number <= to {
			item.Content = ""
			listed = append(listed, item)
		}
	}
	return listed, nil
}

func (repository *memoryChapters) Search(_ context.Context, storyID, query string, limit int) ([]*chapter.Chapter, error) {
	needle := strings.ToLower(query)
	found := make([]*chapter.Chapter, 0)
	for _, item := range repository.ordered(storyID, true) {
		if strings.Contains(strings.ToLower(item.Title+" "+item.Content), needle) {
			item.Content = ""
			found = append(found, item)
		}
		if len(found) == limit {
			break
		}
	}
	return found, nil
}

func (repository *memoryChapters) MaxNumber(_ context.Context, storyID string) (int, error) {
	highest := 0
	for _, item := range repository.ordered(storyID, false) {
		highest = max(highest, item.Number)
	}
	return highest, nil
}

func (repository *memoryChapters) NumberTaken(_ context.Context, storyID string, number int, excludeID string) (bool, error) {
	for _, item := range repository.ordered(storyID, false) {
		if item.Number == number && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repository *memoryChapters) Create(_ context.Context, created *chapter.Chapter) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.collides(created.StoryID, created.Number, created.ID) {
		return apperr.Conflict("Chapter already exists")
	}
	if err := repository.stories.adjust(created.StoryID, func(owner *story.Story) { owner.TotalChapters++ }); err != nil {
		return err
	}
	repository.chapters[created.ID] = *created
	return nil
}

func (repository *memoryChapters) Update(_ context.Context, updated *chapter.Chapter, expectedUpdatedAt time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.chapters[updated.ID]
	if !ok {
		return apperr.NotFound("Chapter")
	}
	if !stored.UpdatedAt.Equal(expectedUpdatedAt) {
		return apperr.Conflict("Chapter was modified by another request")
	}
	if repository.collides(updated.StoryID, updated.Number, updated.ID) {
		return apperr.Conflict("Chapter already exists")
	}
	repository.chapters[updated.ID] = *updated
	return nil
}

func (repository *memoryChapters) SetPublication(_ context.Context, target *chapter.Chapter, from chapter.Status) error {
	return repository.setColumns(target.ID, func(stored *chapter.Chapter) bool {
		if stored.Status != from {
			return false
		}
		stored.Status, stored.PublishedAt, stored.UpdatedAt = target.Status, target.PublishedAt, target.UpdatedAt
		*target = *stored
		return true
	})
}

func (repository *memoryChapters) SetModeration(_ context.Context, target *chapter.Chapter, from chapter.ModerationStatus) error {
	return repository.setColumns(target.ID, func(stored *chapter.Chapter) bool {
		if stored.ModerationStatus != from {
			return false
		}
		stored.ModerationStatus, stored.ModerationNotes, stored.UpdatedAt = target.ModerationStatus, target.ModerationNotes, target.UpdatedAt
		*target = *stored
		return true
	})
}

// setColumns applies a guarded partial write to the stored row.
func (repository *memoryChapters) setColumns(id string, apply func(stored *chapter.Chapter) bool) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.chapters[id]
	if !ok {
		return apperr.NotFound("Chapter")
	}
	if !apply(&stored) {
		return apperr.Conflict("Chapter changed concurrently")
	}
	repository.chapters[id] = stored
	return nil
}

func (repository *memoryChapters) Delete(_ context.Context, deleted *chapter.Chapter) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.chapters[deleted.ID]; !ok {
		return apperr.NotFound("Chapter")
	}
	delete(repository.chapters, deleted.ID)
	return repository.stories.adjust(deleted.StoryID, func(owner *story.Story) {
		owner.TotalChapters = max(0, owner.TotalChapters-1)
	})
}

// Reorder applies every assignment or none, checking uniqueness only on the final state.
func (repository *memoryChapters) Reorder(_ context.Context, storyID string, assignments []chapter.Assignment) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	staged := make(map[string]chapter.Chapter, len(repository.chapters))
	for id, item := range repository.chapters {
		staged[id] = item
	}

	for _, assignment := range assignments {
		item, ok := staged[assignment.ChapterID]
		if !ok || item.StoryID != storyID {
			return apperr.NotFound("Chapter")
		}
		item.Number = assignment.Number
		staged[assignment.ChapterID] = item
	}

	seen := map[int]bool{}
	for _, item := range staged {
		if item.StoryID != storyID {
			continue
		}
		if seen[item.Number] {
			return apperr.Conflict("Chapter already exists")
		}
		seen[item.Number] = true
	}

	repository.chapters = staged
	return nil
}

func (repository *memoryChapters) IncrementViews(_ context.Context, chapterID, storyID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	item, ok := repository.chapters[chapterID]
	if !ok {
		return apperr.NotFound("Chapter")
	}
	item.Views++
	repository.chapters[chapterID] = item
	return repository.stories.adjust(storyID, func(owner *story.Story) { owner.TotalViews++ })
}

func (repository *memoryChapters) AddLike(_ context.Context, chapterID, storyID, userID string) (bool, error) {
	return repository.toggleLike(chapterID, storyID, userID, true)
}

func (repository *memoryChapters) RemoveLike(_ context.Context, chapterID, storyID, userID string) (bool, error) {
	return repository.toggleLike(chapterID, storyID, userID, false)
}

func (repository *memoryChapters) toggleLike(chapterID, storyID, userID string, liked bool) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.likes[chapterID] == nil {
		repository.likes[chapterID] = map[string]bool{}
	}
	if repository.likes[chapterID][userID] == liked {
		return false, nil
	}
	repository.likes[chapterID][userID] = liked

	delta := int64(1)
	if !liked {
		delta = -1
	}

	item := repository.chapters[chapterID]
	item.Likes = max(0, item.Likes+delta)
	repository.chapters[chapterID] = item
	return true, repository.stories.adjust(storyID, func(owner *story.Story) {
		owner.TotalLikes = max(0, owner.TotalLikes+delta)
	})
}

func (repository *memoryChapters) ListPendingModeration(_ context.Context, limit, offset int) ([]*chapter.Chapter, int, error) {
	repository.mu.Lock()
	pending := make([]*chapter.Chapter, 0)
	for _, item := range repository.chapters {
		item := item
		if item.ModerationStatus == chapter.ModerationPending {
			pending = append(pending, &item)
		}
	}
	repository.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	total := len(pending)
	if offset >= total {
		return []*chapter.Chapter{}, total, nil
	}
	return pending[offset:min(total, offset+limit)], total, nil
}

// ordered returns copies of a story's chapters sorted by number.
func (repository *memoryChapters) ordered(storyID string, publishedOnly bool) []*chapter.Chapter {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	listed := make([]*chapter.Chapter, 0)
	for _, item := range repository.chapters {
		item := item
		if item.StoryID != storyID || (publishedOnly && !item.IsPublished()) {
			continue
		}
		listed = append(listed, &item)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Number < listed[j].Number })
	return listed
}

func (repository *memoryChapters) collides(storyID string, number int, id string) bool {
	for _, item := range repository.chapters {
		if item.StoryID == storyID && item.Number == number && item.ID != id {
			return true
		}
	}
	return false
}

// count returns how many chapters belong to storyID.
func (repository *memoryChapters) count(storyID string) int {
	return len(repository.ordered(storyID, false))
}

// interleavedChapters runs afterFind once, right after the next FindByID,
// standing in for a request that writes between another request's read and write.
type interleavedChapters struct {
	*memoryChapters
	afterFind func()
}

func (repository *interleavedChapters) FindByID(ctx context.Context, id string) (*chapter.Chapter, error) {
	found, err := repository.memoryChapters.FindByID(ctx, id)
	if hook := repository.afterFind; hook != nil {
		repository.afterFind = nil
		hook()
	}
	return found, err
}

// # Ledgers

// mockLedger is a testify mock of [chapter.EntitlementLedger].
type mockLedger struct {
	mock.Mock
}

func (ledger *mockLedger) HasCompletedPurchase(ctx context.Context, userID, chapterID string) (bool, error) {
	args := ledger.Called(ctx, userID, chapterID)
	return args.Bool(0), args.Error(1)
}

// memoryLedger records purchases as they are made in a scenario.
type memoryLedger struct {
	mu        sync.Mutex
	purchases map[string]bool
}

func (ledger *memoryLedger) HasCompletedPurchase(_ context.Context, userID, chapterID string) (bool, error) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	return ledger.purchases[userID+"/"+chapterID], nil
}

func (ledger *memoryLedger) purchase(userID, chapterID string) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	ledger.purchases[userID+"/"+chapterID] = true
}

// # Fixture

const (
	authorID = "author-1"
	readerID = "reader-1"
	buyerID  = "buyer-1"
)

type fixture struct {
	policy   chapter.ModerationPolicy
	service  *chapter.Service
	stories  *memoryStories
	chapters *memoryChapters
	ledger   *memoryLedger
	storyID  string
}

func newFixture(t *testing.T, policy chapter.ModerationPolicy) *fixture {
	t.Helper()

	stories := &memoryStories{stories: map[string]story.Story{}}
	chapters := &memoryChapters{stories: stories, chapters: map[string]chapter.Chapter{}, likes: map[string]map[string]bool{}}
	ledger := &memoryLedger{purchases: map[string]bool{}}

	now := time.Now().UTC()
	stories.stories["story-1"] = story.Story{
		ID:          "story-1",
		AuthorID:    authorID,
		Title:       "The Lighthouse",
		Slug:        "the-lighthouse",
		Status:      story.StatusPublished,
		ContentType: story.ContentMixed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	f := &fixture{policy: policy, stories: stories, chapters: chapters, ledger: ledger, storyID: "story-1"}
	f.service = f.serviceOver(chapters)
	return f
}

// serviceOver builds a second service sharing the fixture's stories and ledger
// but reading and writing chapters through repository.
func (f *fixture) serviceOver(repository chapter.Repository) *chapter.Service {
	return chapter.NewService(repository, f.stories, chapter.NewResolver(f.ledger, f.policy), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// create adds a chapter as the author and fails the test on error.
func (f *fixture) create(t *testing.T, input chapter.CreateInput) *chapter.Chapter {
	t.Helper()

	created, err := f.service.CreateChapter(context.Background(), f.storyID, input, authorID)
	require.NoError(t, err)
	return created
}

// published creates a published free chapter with the given title.
func (f *fixture) published(t *testing.T, title string) *chapter.Chapter {
	t.Helper()
	return f.create(t, chapter.CreateInput{Title: title, Content: "Once upon a time", IsFree: true, PublishImmediately: true})
}

func (f *fixture) story(t *testing.T) *story.Story {
	t.Helper()

	found, err := f.stories.FindByID(context.Background(), f.storyID)
	require.NoError(t, err)
	return found
}
