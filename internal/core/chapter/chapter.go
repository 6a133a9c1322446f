// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chapter is the content lifecycle and access-control engine.

# Core Responsibility

  - Publication: a closed Draft/Published state machine with an explicit
    transition table ([Chapter.Publish], [Chapter.Unpublish]).
  - Moderation: an independent Pending/Approved/Rejected overlay ([Chapter.Moderate]).
  - Ordering: unique, positive chapter numbers per story, with atomic reorder
    and next/previous/first/last navigation.
  - Access: the [Resolver] decides whether a principal may read a chapter's
    content from ownership, publication state, the free flag and the purchase ledger.

Entity methods only mutate memory. Every multi-row effect (story counters,
reorders, likes) is applied atomically by the [Repository].
*/
package chapter

import (
	"time"

	"github.com/shopspring/decimal"
)

// # Chapter Enums

// Status is the publication state of a chapter.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
)

// ModerationStatus is the administrative review state of a chapter. It is
// independent of [Status].
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

// # Core Entities

// Chapter is one numbered unit of a story.
type Chapter struct {
	ID                 string           `json:"id"` // UUIDv7
	StoryID            string           `json:"story_id"`
	Number             int              `json:"chapter_number"`
	Title              string           `json:"title"`
	Content            string           `json:"content,omitempty"`
	WordCount          int              `json:"word_count"`
	ReadingTimeMinutes int              `json:"reading_time_minutes"`
	CoinPrice          decimal.Decimal  `json:"coin_price"`
	IsFree             bool             `json:"is_free"`
	Status             Status           `json:"status"`
	ModerationStatus   ModerationStatus `json:"moderation_status"`
	ModerationNotes    *string          `json:"moderation_notes,omitempty"`
	Views              int64            `json:"views"`
	Likes              int64            `json:"likes"`
	PublishedAt        *time.Time       `json:"published_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// IsPaid reports whether reading the chapter requires a completed purchase.
// A free chapter is never gated, whatever its price.
func (chapter *Chapter) IsPaid() bool {
	return !chapter.IsFree
}

// IsPublished reports whether the chapter is visible to readers.
func (chapter *Chapter) IsPublished() bool {
	return chapter.Status == StatusPublished
}

// Preview is the listing form of a chapter: everything except the body.
type Preview struct {
	ID                 string          `json:"id"`
	Number             int             `json:"chapter_number"`
	Title              string          `json:"title"`
	WordCount          int             `json:"word_count"`
	ReadingTimeMinutes int             `json:"reading_time_minutes"`
	CoinPrice          decimal.Decimal `json:"coin_price"`
	IsFree             bool            `json:"is_free"`
	Status             Status          `json:"status"`
	Views              int64           `json:"views"`
	Likes              int64           `json:"likes"`
	PublishedAt        *time.Time      `json:"published_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PreviewOf strips the body from chapter.
func PreviewOf(chapter *Chapter) Preview {
	return Preview{
		ID:                 chapter.ID,
		Number:             chapter.Number,
		Title:              chapter.Title,
		WordCount:          chapter.WordCount,
		ReadingTimeMinutes: chapter.ReadingTimeMinutes,
		CoinPrice:          chapter.CoinPrice,
		IsFree:             chapter.IsFree,
		Status:             chapter.Status,
		Views:              chapter.Views,
		Likes:              chapter.Likes,
		PublishedAt:        chapter.PublishedAt,
		CreatedAt:          chapter.CreatedAt,
		UpdatedAt:          chapter.UpdatedAt,
	}
}

// Navigation describes a chapter's neighbours as seen by the reader.
type Navigation struct {
	PreviousNumber *int `json:"previous_chapter_number,omitempty"`
	NextNumber     *int `json:"next_chapter_number,omitempty"`
	HasPrevious    bool `json:"has_previous"`
	HasNext        bool `json:"has_next"`
	TotalChapters  int  `json:"total_chapters"`
}

// Reading is a readable chapter together with its navigation block.
type Reading struct {
	*Chapter
	Navigation Navigation `json:"navigation"`
}

// # Inputs

// CreateInput holds the fields accepted when a chapter is created.
type CreateInput struct {
	Title              string          `json:"title"`
	Content            string          `json:"content"`
	Number             *int            `json:"chapter_number"`
	CoinPrice          decimal.Decimal `json:"coin_price"`
	IsFree             bool            `json:"is_free"`
	PublishImmediately bool            `json:"publish_immediately"`
}

// Patch carries the optional fields of a chapter update. Nil means "leave unchanged".
//
// ShouldPublish is a directive: when set, the chapter ends up Published (true)
// or Draft (false), and nothing happens if it already is.
type Patch struct {
	Title         *string          `json:"title"`
	Content       *string          `json:"content"`
	Number        *int             `json:"chapter_number"`
	CoinPrice     *decimal.Decimal `json:"coin_price"`
	IsFree        *bool            `json:"is_free"`
	ShouldPublish *bool            `json:"should_publish"`
}

// ContentOnly keeps the fields an editor auto-save may touch.
func (patch Patch) ContentOnly() Patch {
	return Patch{
		Title:         patch.Title,
		Content:       patch.Content,
		ShouldPublish: patch.ShouldPublish,
	}
}

// # Field Identifiers

const (
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldNumber    = "chapter_number"
	FieldCoinPrice = "coin_price"
	FieldIsFree    = "is_free"
	FieldChapters  = "chapter_ids"
	FieldQuery     = "q"
	FieldRange     = "range"
)
