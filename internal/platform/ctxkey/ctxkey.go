// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey names the request-scoped values that travel in a [context.Context]:
// the correlation id, the verified token claims and the per-request logger.
package ctxkey

// Key identifies one request-scoped value. Its field is unexported, so no other
// package can mint a key that collides with these.
type Key struct {
	name string
}

// String returns the key name, as printed by context debugging helpers.
func (key Key) String() string {
	return "inkwell." + key.name
}

var (
	// RequestID carries the X-Request-ID correlation value.
	RequestID = Key{name: "request_id"}

	// Claims carries the verified [sec.AuthClaims] of the caller, absent for anonymous readers.
	Claims = Key{name: "claims"}

	// Logger carries the per-request [*log/slog.Logger].
	Logger = Key{name: "logger"}
)
