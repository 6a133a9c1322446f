// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page/limit query parameters and builds the "meta"
// block of paged responses such as the moderation queue.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	FirstPage    = 1
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows the page skips.
func (params Params) Offset() int {
	return (max(params.Page, FirstPage) - 1) * params.Limit
}

// Meta is the "meta" block of a paged response.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewMeta describes page out of total items split into pages of limit.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	meta.HasNext = page < meta.TotalPages
	return meta
}

// FromRequest reads ?page= and ?limit=. Unparseable or non-positive values fall
// back to the defaults; a limit above [MaxLimit] is clamped to it.
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()

	params := Params{
		Page:  positiveOr(query.Get("page"), FirstPage),
		Limit: positiveOr(query.Get("limit"), DefaultLimit),
	}
	params.Limit = min(params.Limit, MaxLimit)

	return params
}

func positiveOr(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
