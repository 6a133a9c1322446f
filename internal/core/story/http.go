// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package story

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/inkwell/internal/platform/middleware"
	requestutil "github.com/taibuivan/inkwell/internal/platform/request"
	"github.com/taibuivan/inkwell/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for story operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a new story [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the story endpoints. When chapters is not
// nil it is mounted at /{storyID}/chapters.
func (handler *Handler) Routes(chapters http.Handler) chi.Router {
	router := chi.NewRouter()

	router.With(middleware.RequireAuth).Post("/", handler.createStory)

	router.Route("/{storyID}", func(scoped chi.Router) {
		scoped.Use(middleware.UUIDParams("storyID"))

		scoped.Get("/", handler.getStory)
		scoped.With(middleware.RequireAuth).Patch("/", handler.updateStory)

		if chapters != nil {
			scoped.Mount("/chapters", chapters)
		}
	})

	return router
}

/*
POST /api/v1/stories.

Request (Body):
  - CreateInput JSON object

Response:
  - 201: Story: Created draft story
  - 400: Validation failed
  - 401: Authentication required
*/
func (handler *Handler) createStory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	story, err := handler.service.CreateStory(request.Context(), input, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, story)
}

/*
GET /api/v1/stories/{storyID}.

Response:
  - 200: Story
  - 404: Missing, or unlisted and not owned by the caller
*/
func (handler *Handler) getStory(writer http.ResponseWriter, request *http.Request) {
	story, err := handler.service.GetStory(request.Context(), requestutil.ID(request, "storyID"), requestutil.PrincipalID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, story)
}

/*
PATCH /api/v1/stories/{storyID}.

Request (Body):
  - Patch JSON object; absent fields are left unchanged

Response:
  - 200: Story: Updated story
  - 403: Caller is not the author
*/
func (handler *Handler) updateStory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	story, err := handler.service.UpdateStory(request.Context(), requestutil.ID(request, "storyID"), patch, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, story)
}
