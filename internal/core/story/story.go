// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package story manages serialized works: the container every chapter belongs to.

# Core Responsibility

  - Ownership: a [Story] has exactly one author, and only that author may mutate
    it or its chapters.
  - Counters: TotalChapters, TotalViews and TotalLikes are denormalized and are
    only ever changed by atomic SQL in the chapter store.
  - Classification: ContentType advertises whether the story is free, paid or mixed.

Chapters are never loaded as a collection on the story; they are queried by
story id through the chapter package.
*/
package story

import "time"

// # Story Enums

// Status is the publication state of a whole story.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCompleted Status = "COMPLETED"
	StatusSuspended Status = "SUSPENDED"
)

// ContentType describes the pricing model advertised for a story.
type ContentType string

const (
	ContentFree  ContentType = "FREE"
	ContentPaid  ContentType = "PAID"
	ContentMixed ContentType = "MIXED"
)

// ModerationStatus is the administrative review state of a story.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

// # Core Entities

// Story is a serialized work owned by a single author.
type Story struct {
	ID               string           `json:"id"` // UUIDv7
	AuthorID         string           `json:"author_id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	Status           Status           `json:"status"`
	ContentType      ContentType      `json:"content_type"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	TotalChapters    int              `json:"total_chapters"`
	TotalViews       int64            `json:"total_views"`
	TotalLikes       int64            `json:"total_likes"`
	PublishedAt      *time.Time       `json:"published_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsOwnedBy reports whether principalID is the story's author. An empty principal never owns anything.
func (story *Story) IsOwnedBy(principalID string) bool {
	return principalID != "" && story.AuthorID == principalID
}

// IsListed reports whether non-owners may see the story at all.
func (story *Story) IsListed() bool {
	return story.Status == StatusPublished || story.Status == StatusCompleted
}

// VisibleTo reports whether principalID may see the story and anything in it.
func (story *Story) VisibleTo(principalID string) bool {
	return story.IsListed() || story.IsOwnedBy(principalID)
}

// Patch carries the optional fields of a story update. Nil means "leave unchanged".
type Patch struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *Status      `json:"status"`
	ContentType *ContentType `json:"content_type"`
}

// # Field Identifiers

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldContentType = "content_type"
)
