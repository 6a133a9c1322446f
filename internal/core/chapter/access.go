// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"fmt"

	"github.com/taibuivan/inkwell/internal/core/story"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
)

// # Entitlement Ledger

// EntitlementLedger is the read side of the purchase ledger. The engine only
// asks whether a purchase exists; it never writes balances or transactions.
type EntitlementLedger interface {
	// HasCompletedPurchase reports whether userID holds a completed purchase of chapterID.
	HasCompletedPurchase(context context.Context, userID, chapterID string) (bool, error)
}

// # Moderation Policy

// ModerationPolicy decides whether a chapter's moderation status gates readers.
// Authors always see their own chapters regardless of policy.
type ModerationPolicy string

const (
	// PolicyNone never consults moderation; a published chapter is readable
	// while still Pending or even Rejected.
	PolicyNone ModerationPolicy = "none"
	// PolicyBlockRejected hides Rejected chapters from readers.
	PolicyBlockRejected ModerationPolicy = "block_rejected"
	// PolicyRequireApproved shows readers Approved chapters only.
	PolicyRequireApproved ModerationPolicy = "require_approved"
)

// ParseModerationPolicy converts a configuration value into a [ModerationPolicy].
func ParseModerationPolicy(raw string) (ModerationPolicy, error) {
	switch policy := ModerationPolicy(raw); policy {
	case PolicyNone, PolicyBlockRejected, PolicyRequireApproved:
		return policy, nil
	case "":
		return PolicyNone, nil
	default:
		return "", fmt.Errorf("chapter: unknown moderation policy %q", raw)
	}
}

// blocks reports whether the policy hides a chapter in the given moderation state.
func (policy ModerationPolicy) blocks(status ModerationStatus) bool {
	switch policy {
	case PolicyBlockRejected:
		return status == ModerationRejected
	case PolicyRequireApproved:
		return status != ModerationApproved
	default:
		return false
	}
}

// # Decisions

// Reason names the rule that produced an access [Decision].
type Reason string

const (
	ReasonOwner        Reason = "owner"
	ReasonFree         Reason = "free"
	ReasonPurchased    Reason = "purchased"
	ReasonUnpublished  Reason = "unpublished"
	ReasonModeration   Reason = "moderation"
	ReasonAnonymous    Reason = "anonymous"
	ReasonNotPurchased Reason = "not_purchased"
)

// Decision is the verdict of the [Resolver].
type Decision struct {
	Allowed bool
	Reason  Reason
}

// DeniedError is the typed cause attached to an ACCESS_DENIED [apperr.AppError].
// Transport layers inspect Reason to pick between hiding the chapter and asking for a purchase.
type DeniedError struct {
	ChapterID string
	Reason    Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access to chapter %s denied: %s", e.ChapterID, e.Reason)
}

// deniedErr wraps a negative decision into the error the service returns.
func deniedErr(chapterID string, reason Reason) error {
	return apperr.Denied("You do not have access to this chapter").WithCause(&DeniedError{ChapterID: chapterID, Reason: reason})
}

// # Resolver

// Resolver decides whether a principal may read a chapter's content.
type Resolver struct {
	ledger EntitlementLedger
	policy ModerationPolicy
}

// NewResolver constructs a [Resolver] backed by ledger.
func NewResolver(ledger EntitlementLedger, policy ModerationPolicy) *Resolver {
	return &Resolver{ledger: ledger, policy: policy}
}

/*
Decide evaluates the access rules in order:

 1. The story's author is always allowed.
 2. An unpublished chapter is denied.
 3. A chapter hidden by the moderation policy is denied.
 4. A free chapter is allowed, anonymous readers included.
 5. A paid chapter is denied to anonymous readers.
 6. Otherwise the ledger decides.

The ledger is consulted only in step 6. Its failures are returned as errors,
never turned into a verdict.

Parameters:
  - context: context.Context
  - chapter: *Chapter
  - owner: *story.Story (the chapter's story)
  - principalID: string ("" for anonymous)
*/
func (resolver *Resolver) Decide(context context.Context, chapter *Chapter, owner *story.Story, principalID string) (Decision, error) {
	if owner.IsOwnedBy(principalID) {
		return Decision{Allowed: true, Reason: ReasonOwner}, nil
	}

	if !chapter.IsPublished() {
		return Decision{Reason: ReasonUnpublished}, nil
	}

	if resolver.policy.blocks(chapter.ModerationStatus) {
		return Decision{Reason: ReasonModeration}, nil
	}

	if !chapter.IsPaid() {
		return Decision{Allowed: true, Reason: ReasonFree}, nil
	}

	if principalID == "" {
		return Decision{Reason: ReasonAnonymous}, nil
	}

	purchased, err := resolver.ledger.HasCompletedPurchase(context, principalID, chapter.ID)
	if err != nil {
		return Decision{}, apperr.Internal(fmt.Errorf("entitlement lookup: %w", err))
	}
	if !purchased {
		return Decision{Reason: ReasonNotPurchased}, nil
	}

	return Decision{Allowed: true, Reason: ReasonPurchased}, nil
}

// CanAccess is [Resolver.Decide] reduced to its verdict.
func (resolver *Resolver) CanAccess(context context.Context, chapter *Chapter, owner *story.Story, principalID string) (bool, error) {
	decision, err := resolver.Decide(context, chapter, owner, principalID)
	return decision.Allowed, err
}

// Listed reports whether chapter may appear in principalID's listings. Listings
// carry no body, so only publication and the moderation policy apply; the
// paywall is enforced when the body is read.
func (resolver *Resolver) Listed(chapter *Chapter, owner *story.Story, principalID string) bool {
	if owner.IsOwnedBy(principalID) {
		return true
	}
	return chapter.IsPublished() && !resolver.policy.blocks(chapter.ModerationStatus)
}

// visibility returns the adjacency filter for principalID: everything for the
// author, Published chapters the policy does not hide for everyone else.
func (resolver *Resolver) visibility(owner *story.Story, principalID string) Visibility {
	if owner.IsOwnedBy(principalID) {
		return Visibility{}
	}
	return Visibility{PublishedOnly: true, Policy: resolver.policy}
}

// authorize returns nil when principalID may read chapter, and the typed denial otherwise.
func (resolver *Resolver) authorize(context context.Context, chapter *Chapter, owner *story.Story, principalID string) error {
	decision, err := resolver.Decide(context, chapter, owner, principalID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return deniedErr(chapter.ID, decision.Reason)
	}
	return nil
}
