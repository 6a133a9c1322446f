// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package story

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/constants"
	"github.com/taibuivan/inkwell/internal/platform/validate"
	"github.com/taibuivan/inkwell/pkg/pointer"
	"github.com/taibuivan/inkwell/pkg/slug"
	"github.com/taibuivan/inkwell/pkg/uuid"
)

// maxSlugLength mirrors the content.story.slug column width.
const maxSlugLength = 300

// # Service Layer

// Service orchestrates business rules for stories.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new story [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput holds the fields accepted when an author starts a story.
type CreateInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ContentType ContentType `json:"content_type"`
}

/*
CreateStory registers a new draft story owned by authorID.

The slug is derived from the title; a short suffix is appended when the plain
slug is already taken.

Parameters:
  - context: context.Context
  - input: CreateInput
  - authorID: string

Returns:
  - *Story: The persisted story
  - error: Validation or persistence failures
*/
func (service *Service) CreateStory(context context.Context, input CreateInput, authorID string) (*Story, error) {
	if authorID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.ContentType == "" {
		input.ContentType = ContentFree
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, constants.MaxStoryTitleLength).
		OneOf(FieldContentType, string(input.ContentType), string(ContentFree), string(ContentPaid), string(ContentMixed))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	storySlug, err := service.uniqueSlug(context, input.Title)
	if err != nil {
		return nil, err
	}

	now := service.now()
	story := &Story{
		ID:               uuid.New(),
		AuthorID:         authorID,
		Title:            input.Title,
		Slug:             storySlug,
		Description:      input.Description,
		Status:           StatusDraft,
		ContentType:      input.ContentType,
		ModerationStatus: ModerationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := service.repo.Create(context, story); err != nil {
		return nil, err
	}

	service.logger.Info("story_created",
		slog.String("story_id", story.ID),
		slog.String("author_id", authorID),
	)

	return story, nil
}

/*
GetStory returns a story visible to principalID.

Draft and suspended stories are only visible to their author; everyone else
receives NotFound.
*/
func (service *Service) GetStory(context context.Context, id, principalID string) (*Story, error) {
	story, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if !story.VisibleTo(principalID) {
		return nil, apperr.NotFound(resourceStory)
	}

	return story, nil
}

/*
UpdateStory applies patch to a story owned by authorID.

The first transition to Published stamps PublishedAt; later transitions keep it.

Parameters:
  - context: context.Context
  - id: string
  - patch: Patch
  - authorID: string

Returns:
  - *Story: The updated story
  - error: NotFound, Forbidden, Validation or persistence failures
*/
func (service *Service) UpdateStory(context context.Context, id string, patch Patch, authorID string) (*Story, error) {
	story, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if !story.IsOwnedBy(authorID) {
		return nil, apperr.Forbidden("Only the author can update this story")
	}

	validator := &validate.Validator{}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
		validator.Required(FieldTitle, trimmed).MaxLen(FieldTitle, trimmed, constants.MaxStoryTitleLength)
	}
	if patch.Status != nil {
		// Suspension is an administrative action, not an author one.
		validator.OneOf(FieldStatus, string(*patch.Status), string(StatusDraft), string(StatusPublished), string(StatusCompleted))
	}
	if patch.ContentType != nil {
		validator.OneOf(FieldContentType, string(*patch.ContentType), string(ContentFree), string(ContentPaid), string(ContentMixed))
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if story.Status == StatusSuspended && patch.Status != nil {
		return nil, apperr.Unprocessable("A suspended story cannot change status")
	}

	now := service.now()
	story.Title = pointer.Fallback(patch.Title, story.Title)
	story.Description = pointer.Fallback(patch.Description, story.Description)
	story.ContentType = pointer.Fallback(patch.ContentType, story.ContentType)
	if patch.Status != nil {
		story.Status = *patch.Status
		if story.Status == StatusPublished && story.PublishedAt == nil {
			story.PublishedAt = &now
		}
	}
	story.UpdatedAt = now

	if err := service.repo.Update(context, story); err != nil {
		return nil, err
	}

	service.logger.Info("story_updated",
		slog.String("story_id", story.ID),
		slog.String("status", string(story.Status)),
	)

	return story, nil
}

// uniqueSlug derives a slug from title, suffixing it with part of a fresh UUID when taken.
func (service *Service) uniqueSlug(context context.Context, title string) (string, error) {
	base := slug.From(title)
	if len(base) > maxSlugLength {
		base = strings.TrimRight(base[:maxSlugLength], "-")
	}

	if base != "" {
		taken, err := service.repo.SlugExists(context, base)
		if err != nil {
			return "", err
		}
		if !taken {
			return base, nil
		}
	}

	// The random tail of a UUIDv7 is effectively unique per story.
	id := uuid.New()
	return slug.WithSuffix(base, id[len(id)-8:], maxSlugLength), nil
}
