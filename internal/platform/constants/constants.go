// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Reading: Reading speed and content limits for chapters.
  - Cache: Redis key prefixes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "inkwell-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Chapter bodies can be large, so this is more generous than a pure JSON API.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodyBytes caps JSON payloads (chapter content included).
	MaxRequestBodyBytes = 4 << 20
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	// Auto-save traffic from the editor arrives in short bursts.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Reading

const (
	// WordsPerMinute is the fixed reading speed used for time estimates.
	WordsPerMinute = 200

	// MaxChapterTitleLength mirrors the chapters.title column width.
	MaxChapterTitleLength = 255

	// MaxStoryTitleLength mirrors the stories.title column width.
	MaxStoryTitleLength = 255

	// MaxCoinPrice is the largest price representable by NUMERIC(8,2).
	MaxCoinPrice = 999999.99
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "inkwell.app"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixEntitlement = "entitlement:chapter:"
)
