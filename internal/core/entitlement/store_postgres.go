// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package entitlement answers the only question the content engine asks of the
coin wallet: has this user completed a purchase of this chapter?

The wallet owns wallet.cointransaction and is the only writer. This package
reads it, and optionally caches positive answers in Redis.
*/
package entitlement

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/inkwell/internal/platform/database/schema"
	"github.com/taibuivan/inkwell/internal/platform/dberr"
	"github.com/taibuivan/inkwell/pkg/uuid"
)

// Ledger row values that make a transaction an entitlement.
const (
	TransactionPurchase = "PURCHASE"
	ReferenceChapter    = "CHAPTER"
	StatusCompleted     = "COMPLETED"
)

// # PostgreSQL Ledger

// PostgresLedger reads purchases from wallet.cointransaction.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger constructs a ledger reader over pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

/*
HasCompletedPurchase reports whether userID holds a completed purchase of chapterID.

Description: An EXISTS lookup served by the partial purchase index. Identifiers
that are not UUIDs can never match a row and are answered without a query.
*/
func (ledger *PostgresLedger) HasCompletedPurchase(context context.Context, userID, chapterID string) (bool, error) {
	if !uuid.Valid(userID) || !uuid.Valid(chapterID) {
		return false, nil
	}

	table := schema.WalletCoinTransaction
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1 AND %s = $2
			  AND %s = '%s' AND %s = '%s' AND %s = '%s'
		)
	`,
		table.Table,
		table.UserID, table.ReferenceID,
		table.TransactionType, TransactionPurchase,
		table.ReferenceType, ReferenceChapter,
		table.Status, StatusCompleted,
	)

	var purchased bool
	if err := ledger.pool.QueryRow(context, query, userID, chapterID).Scan(&purchased); err != nil {
		return false, dberr.Wrap(err, "Purchase", "check_chapter_purchase")
	}
	return purchased, nil
}
