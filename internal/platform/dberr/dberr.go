// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies pgx errors into [apperr.AppError] values.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
)

// Postgres SQLSTATE codes the stores care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeSerialization       = "40001"
	codeInvalidText         = "22P02"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
//
//   - pgx.ErrNoRows becomes NotFound(resource).
//   - unique_violation becomes Conflict; for chapters this is the
//     (story_id, chapter_number) constraint losing a concurrent race.
//   - serialization failures become Conflict so the client may retry.
//   - invalid_text_representation becomes NotFound: a key that cannot be cast
//     to its column type (a malformed UUID) names no row.
//   - anything else is Internal, with action recorded in the cause.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(resource + " conflicts with an existing record").WithCause(err)
		case codeForeignKeyViolation:
			return apperr.NotFound(resource).WithCause(err)
		case codeSerialization:
			return apperr.Conflict("Concurrent update detected, please retry").WithCause(err)
		case codeInvalidText:
			return apperr.NotFound(resource).WithCause(err)
		}
	}

	return apperr.Internal(fmt.Errorf("postgres: %s: %w", action, err))
}
