// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/core/story"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
)

var owner = &story.Story{ID: "story-1", AuthorID: authorID}

func chapterWith(status chapter.Status, isFree bool, price int64) *chapter.Chapter {
	return &chapter.Chapter{
		ID:               "chapter-1",
		StoryID:          owner.ID,
		Number:           1,
		Status:           status,
		ModerationStatus: chapter.ModerationPending,
		IsFree:           isFree,
		CoinPrice:        decimal.NewFromInt(price),
	}
}

func TestResolver_AuthorAlwaysAllowed(t *testing.T) {
	ledger := &mockLedger{}
	resolver := chapter.NewResolver(ledger, chapter.PolicyRequireApproved)

	for _, status := range []chapter.Status{chapter.StatusDraft, chapter.StatusPublished} {
		for _, isFree := range []bool{true, false} {
			for _, moderation := range []chapter.ModerationStatus{chapter.ModerationPending, chapter.ModerationApproved, chapter.ModerationRejected} {
				item := chapterWith(status, isFree, 10)
				item.ModerationStatus = moderation

				decision, err := resolver.Decide(context.Background(), item, owner, authorID)
				require.NoError(t, err)
				assert.True(t, decision.Allowed, "status=%s free=%t moderation=%s", status, isFree, moderation)
				assert.Equal(t, chapter.ReasonOwner, decision.Reason)
			}
		}
	}

	ledger.AssertNotCalled(t, "HasCompletedPurchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Anonymous(t *testing.T) {
	ledger := &mockLedger{}
	resolver := chapter.NewResolver(ledger, chapter.PolicyNone)

	tests := []struct {
		status  chapter.Status
		isFree  bool
		price   int64
		allowed bool
		reason  chapter.Reason
	}{
		{chapter.StatusPublished, true, 0, true, chapter.ReasonFree},
		{chapter.StatusPublished, true, 25, true, chapter.ReasonFree},
		{chapter.StatusPublished, false, 10, false, chapter.ReasonAnonymous},
		{chapter.StatusDraft, true, 0, false, chapter.ReasonUnpublished},
		{chapter.StatusDraft, false, 10, false, chapter.ReasonUnpublished},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_free_%t_price_%d", tt.status, tt.isFree, tt.price), func(t *testing.T) {
			decision, err := resolver.Decide(context.Background(), chapterWith(tt.status, tt.isFree, tt.price), owner, "")
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}

	ledger.AssertNotCalled(t, "HasCompletedPurchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_AuthenticatedReader(t *testing.T) {
	tests := []struct {
		name      string
		status    chapter.Status
		isFree    bool
		purchased bool
		allowed   bool
		reason    chapter.Reason
		consulted bool
	}{
		{"free published", chapter.StatusPublished, true, false, true, chapter.ReasonFree, false},
		{"paid purchased", chapter.StatusPublished, false, true, true, chapter.ReasonPurchased, true},
		{"paid not purchased", chapter.StatusPublished, false, false, false, chapter.ReasonNotPurchased, true},
		{"paid draft purchased", chapter.StatusDraft, false, true, false, chapter.ReasonUnpublished, false},
		{"free draft", chapter.StatusDraft, true, false, false, chapter.ReasonUnpublished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{}
			ledger.On("HasCompletedPurchase", mock.Anything, readerID, "chapter-1").Return(tt.purchased, nil).Maybe()
			resolver := chapter.NewResolver(ledger, chapter.PolicyNone)

			decision, err := resolver.Decide(context.Background(), chapterWith(tt.status, tt.isFree, 10), owner, readerID)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)

			if tt.consulted {
				ledger.AssertCalled(t, "HasCompletedPurchase", mock.Anything, readerID, "chapter-1")
			} else {
				ledger.AssertNotCalled(t, "HasCompletedPurchase", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestResolver_LedgerFailure(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasCompletedPurchase", mock.Anything, readerID, "chapter-1").Return(false, errors.New("connection refused"))
	resolver := chapter.NewResolver(ledger, chapter.PolicyNone)

	allowed, err := resolver.CanAccess(context.Background(), chapterWith(chapter.StatusPublished, false, 10), owner, readerID)
	assert.False(t, allowed)
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))
}

func TestResolver_ModerationPolicies(t *testing.T) {
	tests := []struct {
		policy     chapter.ModerationPolicy
		moderation chapter.ModerationStatus
		allowed    bool
	}{
		{chapter.PolicyNone, chapter.ModerationPending, true},
		{chapter.PolicyNone, chapter.ModerationRejected, true},
		{chapter.PolicyBlockRejected, chapter.ModerationPending, true},
		{chapter.PolicyBlockRejected, chapter.ModerationApproved, true},
		{chapter.PolicyBlockRejected, chapter.ModerationRejected, false},
		{chapter.PolicyRequireApproved, chapter.ModerationPending, false},
		{chapter.PolicyRequireApproved, chapter.ModerationRejected, false},
		{chapter.PolicyRequireApproved, chapter.ModerationApproved, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.policy, tt.moderation), func(t *testing.T) {
			resolver := chapter.NewResolver(&mockLedger{}, tt.policy)
			item := chapterWith(chapter.StatusPublished, true, 0)
			item.ModerationStatus = tt.moderation

			decision, err := resolver.Decide(context.Background(), item, owner, readerID)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Equal(t, chapter.ReasonModeration, decision.Reason)
			}
			assert.Equal(t, tt.allowed, resolver.Listed(item, owner, readerID))
		})
	}
}

func TestParseModerationPolicy(t *testing.T) {
	policy, err := chapter.ParseModerationPolicy("")
	require.NoError(t, err)
	assert.Equal(t, chapter.PolicyNone, policy)

	policy, err = chapter.ParseModerationPolicy("block_rejected")
	require.NoError(t, err)
	assert.Equal(t, chapter.PolicyBlockRejected, policy)

	_, err = chapter.ParseModerationPolicy("strict")
	assert.Error(t, err)
}
