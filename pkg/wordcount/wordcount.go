// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package wordcount derives a chapter's word count and reading time from its body.

Bodies are rich text; markup tags are removed before counting so
"<p>Hello <b>world</b></p>" counts as two words.
*/
package wordcount

import (
	"regexp"
	"strings"
)

// markupTag matches anything between angle brackets.
var markupTag = regexp.MustCompile(`<[^>]*>`)

// Count returns the number of whitespace-separated tokens in content once markup is stripped.
func Count(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(markupTag.ReplaceAllString(content, " ")))
}

// ReadingMinutes returns ceil(words / wordsPerMinute) for content, with a
// minimum of 1 for any body that is not blank. Markup-only bodies still take a
// minute; only empty or whitespace-only content reads in 0.
func ReadingMinutes(content string, wordsPerMinute int) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}
	words := Count(content)
	return max(1, (words+wordsPerMinute-1)/wordsPerMinute)
}
