// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/inkwell/internal/platform/respond"
	"github.com/taibuivan/inkwell/internal/platform/validate"
)

// UUIDParams rejects the request with a 400 when any named route parameter is
// not a canonical UUID, before a malformed key can reach a UUID column.
//
// chi resolves parameters while routing, so register it inside the
// [chi.Router.Route] or mounted router whose pattern declares them.
func UUIDParams(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			validator := &validate.Validator{}
			for _, name := range names {
				validator.UUID(name, chi.URLParam(request, name))
			}

			if err := validator.Err(); err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
