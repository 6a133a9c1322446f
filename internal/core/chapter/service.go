// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/inkwell/internal/core/story"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/validate"
	"github.com/taibuivan/inkwell/pkg/slice"
	"github.com/taibuivan/inkwell/pkg/uuid"
)

// maxSearchResults caps a single in-story search.
const maxSearchResults = 50

// # Service Layer

// Service orchestrates the chapter lifecycle, ordering and access rules.
//
// Every entry point receives the principal explicitly; "" means anonymous.
type Service struct {
	chapters Repository
	stories  StoryFinder
	resolver *Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new chapter [Service].
func NewService(chapters Repository, stories StoryFinder, resolver *Resolver, logger *slog.Logger) *Service {
	return &Service{
		chapters: chapters,
		stories:  stories,
		resolver: resolver,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// # Authoring

/*
CreateChapter adds a chapter to a story owned by authorID.

Description: Without an explicit number the chapter is appended after the
highest existing one. A requested number already in use is a Conflict. The
chapter always starts as a Draft; PublishImmediately publishes it before the
single insert, so readers never observe a half-created chapter.

Parameters:
  - context: context.Context
  - storyID: string
  - input: CreateInput
  - authorID: string

Returns:
  - *Chapter: The persisted chapter
  - error: Unauthorized, NotFound, Forbidden, Validation, Conflict or storage failures
*/
func (service *Service) CreateChapter(context context.Context, storyID string, input CreateInput, authorID string) (*Chapter, error) {
	if _, err := service.ownedStory(context, storyID, authorID); err != nil {
		return nil, err
	}

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var number int
	if input.Number != nil {
		taken, err := service.chapters.NumberTaken(context, storyID, *input.Number, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, numberConflict(*input.Number)
		}
		number = *input.Number
	} else {
		maxExisting, err := service.chapters.MaxNumber(context, storyID)
		if err != nil {
			return nil, err
		}
		number = NextNumber(maxExisting)
	}

	now := service.now()
	chapter := newDraft(uuid.New(), storyID, number, input, now)
	if input.PublishImmediately {
		if err := chapter.Publish(now); err != nil {
			return nil, err
		}
	}

	if err := service.chapters.Create(context, chapter); err != nil {
		return nil, err
	}

	service.logger.Info("chapter_created",
		slog.String("chapter_id", chapter.ID),
		slog.String("story_id", storyID),
		slog.Int("chapter_number", chapter.Number),
		slog.String("status", string(chapter.Status)),
	)

	return chapter, nil
}

/*
UpdateChapter applies patch to a chapter of a story owned by authorID.

Description: Status only changes through the ShouldPublish directive, and only
when the desired state differs from the current one. A new number that another
chapter of the story already holds is a Conflict, and so is a patch applied to
a chapter that changed after it was read.
*/
func (service *Service) UpdateChapter(context context.Context, id string, patch Patch, authorID string) (*Chapter, error) {
	chapter, err := service.ownedChapter(context, id, authorID)
	if err != nil {
		return nil, err
	}

	wasPublished := chapter.IsPublished()
	readAt := chapter.UpdatedAt
	numberChanged, err := chapter.ApplyPatch(patch, service.now())
	if err != nil {
		return nil, err
	}

	if numberChanged {
		taken, err := service.chapters.NumberTaken(context, chapter.StoryID, chapter.Number, chapter.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, numberConflict(chapter.Number)
		}
	}

	if err := service.chapters.Update(context, chapter, readAt); err != nil {
		return nil, err
	}

	if chapter.IsPublished() != wasPublished {
		service.logTransition(chapter)
	}

	return chapter, nil
}

// AutoSaveChapter is [Service.UpdateChapter] restricted to the fields an editor
// saves in the background: title, content and an explicit publish directive.
func (service *Service) AutoSaveChapter(context context.Context, id string, patch Patch, authorID string) (*Chapter, error) {
	return service.UpdateChapter(context, id, patch.ContentOnly(), authorID)
}

// PublishChapter moves a Draft chapter to Published.
func (service *Service) PublishChapter(context context.Context, id, authorID string) (*Chapter, error) {
	return service.transition(context, id, authorID, (*Chapter).Publish)
}

// UnpublishChapter moves a Published chapter back to Draft.
func (service *Service) UnpublishChapter(context context.Context, id, authorID string) (*Chapter, error) {
	return service.transition(context, id, authorID, (*Chapter).Unpublish)
}

func (service *Service) transition(context context.Context, id, authorID string, apply func(*Chapter, time.Time) error) (*Chapter, error) {
	chapter, err := service.ownedChapter(context, id, authorID)
	if err != nil {
		return nil, err
	}

	from := chapter.Status
	if err := apply(chapter, service.now()); err != nil {
		return nil, err
	}

	if err := service.chapters.SetPublication(context, chapter, from); err != nil {
		return nil, err
	}

	service.logTransition(chapter)
	return chapter, nil
}

/*
DeleteChapter removes a chapter and decrements its story's chapter count.

The numbering gap it leaves is kept until the author reorders.
*/
func (service *Service) DeleteChapter(context context.Context, id, authorID string) error {
	chapter, err := service.ownedChapter(context, id, authorID)
	if err != nil {
		return err
	}

	if err := service.chapters.Delete(context, chapter); err != nil {
		return err
	}

	service.logger.Info("chapter_deleted",
		slog.String("chapter_id", chapter.ID),
		slog.String("story_id", chapter.StoryID),
	)
	return nil
}

/*
ReorderChapters renumbers the listed chapters 1..n in the given order.

Description: The whole list is validated against the story's current chapters
before anything is written; the resulting plan is applied as one transaction.
Any failure leaves every number unchanged.

Returns:
  - []Preview: The story's chapters in their new order
  - error: Validation for empty, duplicate or foreign ids; Conflict when an
    unlisted chapter holds a target number
*/
func (service *Service) ReorderChapters(context context.Context, storyID string, orderedIDs []string, authorID string) ([]Preview, error) {
	if _, err := service.ownedStory(context, storyID, authorID); err != nil {
		return nil, err
	}

	current, err := service.chapters.ListByStory(context, storyID, false)
	if err != nil {
		return nil, err
	}

	assignments, err := PlanReorder(orderedIDs, current)
	if err != nil {
		return nil, err
	}

	if err := service.chapters.Reorder(context, storyID, assignments); err != nil {
		return nil, err
	}

	service.logger.Info("chapters_reordered",
		slog.String("story_id", storyID),
		slog.Int("listed", len(orderedIDs)),
		slog.Int("renumbered", len(assignments)),
	)

	reordered, err := service.chapters.ListByStory(context, storyID, false)
	if err != nil {
		return nil, err
	}
	return slice.Map(reordered, PreviewOf), nil
}

// # Reading

/*
GetChapter returns a chapter's full content and navigation if principalID may read it.

Returns:
  - *Reading: The chapter with its navigation block
  - error: NotFound, or ACCESS_DENIED carrying a [*DeniedError]
*/
func (service *Service) GetChapter(context context.Context, id, principalID string) (*Reading, error) {
	chapter, err := service.chapters.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	owner, err := service.visibleStory(context, chapter.StoryID, principalID, resourceChapter)
	if err != nil {
		return nil, err
	}

	return service.read(context, chapter, owner, principalID)
}

// GetChapterByNumber returns the chapter of storyID holding number, if principalID may read it.
func (service *Service) GetChapterByNumber(context context.Context, storyID string, number int, principalID string) (*Reading, error) {
	owner, err := service.visibleStory(context, storyID, principalID, resourceStory)
	if err != nil {
		return nil, err
	}

	chapter, err := service.chapters.FindByNumber(context, storyID, number)
	if err != nil {
		return nil, err
	}

	return service.read(context, chapter, owner, principalID)
}

/*
GetNextChapter returns the chapter that follows chapterID in reading order.

Description: Readers only traverse Published chapters the moderation policy
does not hide; the story's author traverses every chapter. The neighbour is then checked like any other read, so
a paid next chapter yields ACCESS_DENIED rather than its content.
*/
func (service *Service) GetNextChapter(context context.Context, chapterID, principalID string) (*Reading, error) {
	return service.adjacent(context, chapterID, Next, principalID)
}

// GetPreviousChapter returns the chapter that precedes chapterID in reading order.
func (service *Service) GetPreviousChapter(context context.Context, chapterID, principalID string) (*Reading, error) {
	return service.adjacent(context, chapterID, Previous, principalID)
}

// GetFirstChapter returns the lowest-numbered chapter of storyID visible to principalID.
func (service *Service) GetFirstChapter(context context.Context, storyID, principalID string) (*Reading, error) {
	return service.edge(context, storyID, BeforeFirst, Next, principalID)
}

// GetLastChapter returns the highest-numbered chapter of storyID visible to principalID.
func (service *Service) GetLastChapter(context context.Context, storyID, principalID string) (*Reading, error) {
	return service.edge(context, storyID, AfterLast, Previous, principalID)
}

func (service *Service) adjacent(context context.Context, chapterID string, direction Direction, principalID string) (*Reading, error) {
	current, err := service.chapters.FindByID(context, chapterID)
	if err != nil {
		return nil, err
	}

	owner, err := service.visibleStory(context, current.StoryID, principalID, resourceChapter)
	if err != nil {
		return nil, err
	}

	// A reader cannot navigate from a chapter they are not allowed to know about.
	if !service.resolver.Listed(current, owner, principalID) {
		return nil, apperr.NotFound(resourceChapter)
	}

	return service.edgeOf(context, owner, current.Number, direction, principalID)
}

func (service *Service) edge(context context.Context, storyID string, anchor int, direction Direction, principalID string) (*Reading, error) {
	owner, err := service.visibleStory(context, storyID, principalID, resourceStory)
	if err != nil {
		return nil, err
	}
	return service.edgeOf(context, owner, anchor, direction, principalID)
}

func (service *Service) edgeOf(context context.Context, owner *story.Story, anchor int, direction Direction, principalID string) (*Reading, error) {
	chapter, err := service.chapters.FindAdjacent(context, owner.ID, anchor, direction, service.resolver.visibility(owner, principalID))
	if err != nil {
		return nil, err
	}
	return service.read(context, chapter, owner, principalID)
}

// read gates chapter through the resolver and attaches its navigation block.
func (service *Service) read(context context.Context, chapter *Chapter, owner *story.Story, principalID string) (*Reading, error) {
	if err := service.authorize(context, chapter, owner, principalID); err != nil {
		return nil, err
	}

	navigation, err := service.navigation(context, chapter, owner, principalID)
	if err != nil {
		return nil, err
	}

	return &Reading{Chapter: chapter, Navigation: navigation}, nil
}

// navigation resolves the neighbours principalID would reach from chapter.
func (service *Service) navigation(context context.Context, chapter *Chapter, owner *story.Story, principalID string) (Navigation, error) {
	visibility := service.resolver.visibility(owner, principalID)
	navigation := Navigation{TotalChapters: owner.TotalChapters}

	previous, err := service.neighbourNumber(context, chapter, Previous, visibility)
	if err != nil {
		return Navigation{}, err
	}
	next, err := service.neighbourNumber(context, chapter, Next, visibility)
	if err != nil {
		return Navigation{}, err
	}

	navigation.PreviousNumber, navigation.HasPrevious = previous, previous != nil
	navigation.NextNumber, navigation.HasNext = next, next != nil
	return navigation, nil
}

func (service *Service) neighbourNumber(context context.Context, chapter *Chapter, direction Direction, visibility Visibility) (*int, error) {
	neighbour, err := service.chapters.FindAdjacent(context, chapter.StoryID, chapter.Number, direction, visibility)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &neighbour.Number, nil
}

// # Listing

/*
ListChapters returns the chapter previews of a story in reading order.

The author sees every chapter; everyone else sees Published chapters that the
moderation policy does not hide. Previews never carry the body, so paid
chapters are listed for discovery.
*/
func (service *Service) ListChapters(context context.Context, storyID, principalID string) ([]Preview, error) {
	owner, err := service.visibleStory(context, storyID, principalID, resourceStory)
	if err != nil {
		return nil, err
	}

	chapters, err := service.chapters.ListByStory(context, storyID, !owner.IsOwnedBy(principalID))
	if err != nil {
		return nil, err
	}

	return service.previews(chapters, owner, principalID), nil
}

// ListChaptersBetween returns Published chapter previews numbered within [from, to].
func (service *Service) ListChaptersBetween(context context.Context, storyID string, from, to int, principalID string) ([]Preview, error) {
	validator := &validate.Validator{}
	validator.
		Positive(FieldRange, from).
		Custom(FieldRange, to < from, "The end of the range must not be before its start")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	owner, err := service.visibleStory(context, storyID, principalID, resourceStory)
	if err != nil {
		return nil, err
	}

	chapters, err := service.chapters.ListBetween(context, storyID, from, to)
	if err != nil {
		return nil, err
	}

	return service.previews(chapters, owner, principalID), nil
}

/*
SearchChapters matches a story's Published chapters by title or body.

Description: Matches whose body principalID could not read (paid and not
purchased, or hidden by moderation) are left out of the results, since a body
match would otherwise reveal paywalled text.
*/
func (service *Service) SearchChapters(context context.Context, storyID, query, principalID string) ([]Preview, error) {
	query = strings.TrimSpace(query)
	if err := (&validate.Validator{}).Required(FieldQuery, query).Err(); err != nil {
		return nil, err
	}

	owner, err := service.visibleStory(context, storyID, principalID, resourceStory)
	if err != nil {
		return nil, err
	}

	matches, err := service.chapters.Search(context, storyID, query, maxSearchResults)
	if err != nil {
		return nil, err
	}

	readable := make([]*Chapter, 0, len(matches))
	for _, match := range matches {
		allowed, err := service.resolver.CanAccess(context, match, owner, principalID)
		if err != nil {
			return nil, err
		}
		if allowed {
			readable = append(readable, match)
		}
	}

	return slice.Map(readable, PreviewOf), nil
}

func (service *Service) previews(chapters []*Chapter, owner *story.Story, principalID string) []Preview {
	visible := slice.Filter(chapters, func(chapter *Chapter) bool {
		return service.resolver.Listed(chapter, owner, principalID)
	})
	return slice.Map(visible, PreviewOf)
}

// # Engagement

// RecordView counts one view of a chapter principalID is allowed to read.
func (service *Service) RecordView(context context.Context, chapterID, principalID string) error {
	chapter, err := service.readable(context, chapterID, principalID)
	if err != nil {
		return err
	}
	return service.chapters.IncrementViews(context, chapter.ID, chapter.StoryID)
}

/*
LikeChapter records userID's like of a readable chapter.

Returns:
  - bool: false when the user had already liked it
*/
func (service *Service) LikeChapter(context context.Context, chapterID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.Unauthorized("Authentication required")
	}

	chapter, err := service.readable(context, chapterID, userID)
	if err != nil {
		return false, err
	}
	return service.chapters.AddLike(context, chapter.ID, chapter.StoryID, userID)
}

// UnlikeChapter removes userID's like. It reports false when there was none.
func (service *Service) UnlikeChapter(context context.Context, chapterID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.Unauthorized("Authentication required")
	}

	chapter, err := service.chapters.FindByID(context, chapterID)
	if err != nil {
		return false, err
	}
	return service.chapters.RemoveLike(context, chapter.ID, chapter.StoryID, userID)
}

// readable loads a chapter and checks that principalID may read its body.
func (service *Service) readable(context context.Context, chapterID, principalID string) (*Chapter, error) {
	chapter, err := service.chapters.FindByID(context, chapterID)
	if err != nil {
		return nil, err
	}

	owner, err := service.visibleStory(context, chapter.StoryID, principalID, resourceChapter)
	if err != nil {
		return nil, err
	}

	if err := service.authorize(context, chapter, owner, principalID); err != nil {
		return nil, err
	}
	return chapter, nil
}

// # Moderation

/*
ModerateChapter records a moderator's decision on a chapter.

Description: Approval and rejection never touch the publication status; only
the moderation columns are written. Callers are expected to have checked the
moderator role.
*/
func (service *Service) ModerateChapter(context context.Context, id, notes string, approved bool, moderatorID string) (*Chapter, error) {
	if moderatorID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	chapter, err := service.chapters.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	decision := ModerationRejected
	if approved {
		decision = ModerationApproved
	}

	from := chapter.ModerationStatus
	if err := chapter.Moderate(decision, notes, service.now()); err != nil {
		return nil, err
	}

	if err := service.chapters.SetModeration(context, chapter, from); err != nil {
		return nil, err
	}

	service.logger.Info("chapter_moderated",
		slog.String("chapter_id", chapter.ID),
		slog.String("moderator_id", moderatorID),
		slog.String("moderation_status", string(decision)),
	)

	return chapter, nil
}

// ListChaptersForModeration returns a page of chapters awaiting review and the total pending count.
func (service *Service) ListChaptersForModeration(context context.Context, limit, offset int) ([]*Chapter, int, error) {
	return service.chapters.ListPendingModeration(context, limit, offset)
}

// # Helpers

// ownedStory loads storyID and checks that authorID is its author.
func (service *Service) ownedStory(context context.Context, storyID, authorID string) (*story.Story, error) {
	if authorID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	owner, err := service.stories.FindByID(context, storyID)
	if err != nil {
		return nil, err
	}

	if !owner.IsOwnedBy(authorID) {
		return nil, apperr.Forbidden("Only the story author can manage its chapters")
	}
	return owner, nil
}

// visibleStory loads storyID for a read by principalID. A Draft or Suspended
// story is reported as a missing hiddenAs to everyone but its author, so its
// chapters do not reveal it.
func (service *Service) visibleStory(context context.Context, storyID, principalID, hiddenAs string) (*story.Story, error) {
	owner, err := service.stories.FindByID(context, storyID)
	if err != nil {
		return nil, err
	}

	if !owner.VisibleTo(principalID) {
		return nil, apperr.NotFound(hiddenAs)
	}
	return owner, nil
}

// ownedChapter loads a chapter and checks that authorID is the author of its story.
func (service *Service) ownedChapter(context context.Context, id, authorID string) (*Chapter, error) {
	if authorID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	chapter, err := service.chapters.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if _, err := service.ownedStory(context, chapter.StoryID, authorID); err != nil {
		return nil, err
	}
	return chapter, nil
}

// authorize runs the resolver and logs denials.
func (service *Service) authorize(context context.Context, chapter *Chapter, owner *story.Story, principalID string) error {
	err := service.resolver.authorize(context, chapter, owner, principalID)

	var denied *DeniedError
	if errors.As(err, &denied) {
		service.logger.Debug("chapter_access_denied",
			slog.String("chapter_id", chapter.ID),
			slog.String("principal_id", principalID),
			slog.String("reason", string(denied.Reason)),
		)
	}
	return err
}

func (service *Service) logTransition(chapter *Chapter) {
	event := "chapter_unpublished"
	if chapter.IsPublished() {
		event = "chapter_published"
	}
	service.logger.Info(event,
		slog.String("chapter_id", chapter.ID),
		slog.String("story_id", chapter.StoryID),
		slog.Int("chapter_number", chapter.Number),
	)
}

func numberConflict(number int) error {
	return apperr.Conflict(fmt.Sprintf("Chapter number %d already exists in this story", number))
}
