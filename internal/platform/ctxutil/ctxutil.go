// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil stores and reads the request-scoped values named in ctxkey.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/inkwell/internal/platform/ctxkey"
	"github.com/taibuivan/inkwell/internal/platform/sec"
)

// # Request Tracing

// WithRequestID attaches the correlation id of the current request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.RequestID, id)
}

// GetRequestID returns the correlation id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := lookup[string](ctx, ctxkey.RequestID)
	return id
}

// # Structured Logging

// WithLogger attaches the per-request logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.Logger, logger)
}

// GetLogger returns the per-request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := lookup[*slog.Logger](ctx, ctxkey.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Identity

// WithAuthUser attaches the verified claims of the caller.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.Claims, user)
}

// GetAuthUser returns the caller's claims, or nil for an anonymous request.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := lookup[*sec.AuthClaims](ctx, ctxkey.Claims)
	return claims
}

// PrincipalID returns the authenticated user's ID, or "" for an anonymous request.
//
// The content engine never reads the context itself; handlers call this once and
// pass the value down explicitly.
func PrincipalID(ctx context.Context) string {
	if claims := GetAuthUser(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

func lookup[T any](ctx context.Context, key ctxkey.Key) (T, bool) {
	value, ok := ctx.Value(key).(T)
	return value, ok
}
