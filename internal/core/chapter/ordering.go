// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"fmt"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/validate"
)

// # Numbering

// NextNumber returns the number a new chapter receives when none is requested:
// one past the highest existing number, or 1 for an empty story.
func NextNumber(maxExisting int) int {
	return max(maxExisting, 0) + 1
}

// Direction selects which neighbour an adjacency query returns.
type Direction int

const (
	// Next is the smallest number strictly greater than the anchor.
	Next Direction = iota
	// Previous is the largest number strictly smaller than the anchor.
	Previous
)

// Anchors that turn an adjacency query into a first/last query.
const (
	BeforeFirst = 0
	AfterLast   = 1<<31 - 1
)

// # Reordering

// Assignment is one row of a reorder: chapter ChapterID takes number Number.
type Assignment struct {
	ChapterID string
	Number    int
}

/*
PlanReorder validates orderedIDs against the chapters currently in a story and
returns the renumbering it implies: the chapter at position i gets number i+1.

Nothing is written here; the plan is applied as one transaction by the store,
so a rejected list leaves every number unchanged.

Parameters:
  - orderedIDs: []string (the new reading order)
  - current: []*Chapter (every chapter of the story)

Returns:
  - []Assignment: only the chapters whose number actually changes
  - error: apperr.ValidationError for empty, duplicate or foreign ids;
    apperr.Conflict when an unlisted chapter already holds a target number
*/
func PlanReorder(orderedIDs []string, current []*Chapter) ([]Assignment, error) {
	if len(orderedIDs) == 0 {
		return nil, validate.RequiredError(FieldChapters, "At least one chapter id is required")
	}

	byID := make(map[string]*Chapter, len(current))
	for _, chapter := range current {
		byID[chapter.ID] = chapter
	}

	listed := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return nil, validate.RequiredError(FieldChapters, fmt.Sprintf("Chapter %s does not belong to this story", id))
		}
		if _, dup := listed[id]; dup {
			return nil, validate.RequiredError(FieldChapters, fmt.Sprintf("Chapter %s is listed more than once", id))
		}
		listed[id] = struct{}{}
	}

	// Unlisted chapters keep their numbers, so they must not sit inside 1..len(orderedIDs).
	for _, chapter := range current {
		if _, ok := listed[chapter.ID]; ok {
			continue
		}
		if chapter.Number <= len(orderedIDs) {
			return nil, apperr.Conflict(fmt.Sprintf("Chapter number %d is held by a chapter missing from the new order", chapter.Number))
		}
	}

	assignments := make([]Assignment, 0, len(orderedIDs))
	for position, id := range orderedIDs {
		if byID[id].Number == position+1 {
			continue
		}
		assignments = append(assignments, Assignment{ChapterID: id, Number: position + 1})
	}

	return assignments, nil
}
