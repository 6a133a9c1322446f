// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It hides chi's parameter extraction and the JSON decoding pattern so every
handler reports malformed input the same way.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/ctxutil"
	"github.com/taibuivan/inkwell/internal/platform/sec"
	"github.com/taibuivan/inkwell/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Unknown fields are rejected so a misspelled patch key is never silently ignored.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// ID retrieves a named URL parameter holding an identifier.
func ID(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

/*
IntParam parses a named URL parameter as a positive integer.

Returns:
  - int: the parsed value
  - error: apperr.ValidationError if the parameter is missing, non-numeric or below 1
*/
func IntParam(request *http.Request, name string) (int, error) {
	return parsePositive(name, chi.URLParam(request, name))
}

/*
QueryInt parses a required query parameter as a positive integer.
*/
func QueryInt(request *http.Request, name string) (int, error) {
	return parsePositive(name, request.URL.Query().Get(name))
}

// Query returns a trimmed query parameter.
func Query(request *http.Request, name string) string {
	return strings.TrimSpace(request.URL.Query().Get(name))
}

func parsePositive(name, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, validate.RequiredError(name, "Must be a positive integer")
	}
	return value, nil
}

/*
PrincipalID returns the caller's user ID, or "" when the request is anonymous.
*/
func PrincipalID(request *http.Request) string {
	return ctxutil.PrincipalID(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.

Returns:
  - *sec.AuthClaims: The authenticated user claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
