// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
The chapter HTTP layer is split over three mount points:

  - Story scoped (/stories/{storyID}/chapters): listing, search, first/last,
    lookup by number, creation and reordering.
  - Chapter scoped (/chapters/{chapterID}): reading, navigation, authoring,
    engagement and the moderator decision.
  - Moderation (/moderation): the review queue, moderators only.

Reads are open to anonymous visitors; the service decides what they may see.
*/
package chapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/middleware"
	requestutil "github.com/taibuivan/inkwell/internal/platform/request"
	"github.com/taibuivan/inkwell/internal/platform/respond"
	"github.com/taibuivan/inkwell/internal/platform/sec"
	"github.com/taibuivan/inkwell/internal/platform/validate"
	"github.com/taibuivan/inkwell/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for chapters.
type Handler struct {
	service *Service
}

// NewHandler constructs a new chapter [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// StoryRoutes returns the endpoints mounted under /stories/{storyID}/chapters.
func (handler *Handler) StoryRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listChapters)
	router.Get("/first", handler.firstChapter)
	router.Get("/last", handler.lastChapter)
	router.Get("/range", handler.listChaptersBetween)
	router.Get("/search", handler.searchChapters)
	router.Get("/number/{number}", handler.chapterByNumber)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/", handler.createChapter)
		authed.Put("/order", handler.reorderChapters)
	})

	return router
}

// Routes returns the endpoints mounted under /chapters.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Route("/{chapterID}", func(scoped chi.Router) {
		scoped.Use(middleware.UUIDParams("chapterID"))

		scoped.Get("/", handler.getChapter)
		scoped.Get("/next", handler.nextChapter)
		scoped.Get("/previous", handler.previousChapter)
		scoped.Post("/views", handler.recordView)

		scoped.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth)
			authed.Patch("/", handler.updateChapter)
			authed.Delete("/", handler.deleteChapter)
			authed.Put("/autosave", handler.autoSaveChapter)
			authed.Post("/publish", handler.publishChapter)
			authed.Post("/unpublish", handler.unpublishChapter)
			authed.Post("/like", handler.likeChapter)
			authed.Delete("/like", handler.unlikeChapter)
		})

		scoped.Group(func(moderators chi.Router) {
			moderators.Use(middleware.RequireRole(sec.RoleModerator))
			moderators.Post("/moderate", handler.moderateChapter)
		})
	})

	return router
}

// ModerationRoutes returns the endpoints mounted under /moderation.
func (handler *Handler) ModerationRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleModerator))
	router.Get("/chapters", handler.listForModeration)
	return router
}

// # Request & Response Shapes

type reorderRequest struct {
	ChapterIDs []string `json:"chapter_ids"`
}

type moderateRequest struct {
	Approved *bool  `json:"approved"`
	Notes    string `json:"notes"`
}

type likeResponse struct {
	Liked   bool `json:"liked"`
	Changed bool `json:"changed"`
}

// # Story Scoped Endpoints

/*
GET /api/v1/stories/{storyID}/chapters.

Response:
  - 200: []Preview: Every chapter for the author, visible Published ones otherwise
  - 404: Story not found
*/
func (handler *Handler) listChapters(writer http.ResponseWriter, request *http.Request) {
	previews, err := handler.service.ListChapters(request.Context(), requestutil.ID(request, "storyID"), requestutil.PrincipalID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, previews)
}

/*
GET /api/v1/stories/{storyID}/chapters/range?from=&to=.

Response:
  - 200: []Preview: Published chapters numbered within [from, to]
  - 400: Missing or inverted range
*/
func (handler *Handler) listChaptersBetween(writer http.ResponseWriter, request *http.Request) {
	from, err := requestutil.QueryInt(request, "from")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	to, err := requestutil.QueryInt(request, "to")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	previews, err := handler.service.ListChaptersBetween(request.Context(), requestutil.ID(request, "storyID"), from, to, requestutil.PrincipalID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, previews)
}

/*
GET /api/v1/stories/{storyID}/chapters/search?q=.

Response:
  - 200: []Preview: Matches the caller may read
  - 400: Empty query
*/
func (handler *Handler) searchChapters(writer http.ResponseWriter, request *http.Request) {
	previews, err := handler.service.SearchChapters(request.Context(), requestutil.ID(request, "storyID"), requestutil.Query(request, "q"), requestutil.PrincipalID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, previews)
}

// GET /api/v1/stories/{storyID}/chapters/first.
func (handler *Handler) firstChapter(writer http.ResponseWriter, request *http.Request) {
	reading, err := handler.service.GetFirstChapter(request.Context(), requestutil.ID(request, "storyID"), requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

// GET /api/v1/stories/{storyID}/chapters/last.
func (handler *Handler) lastChapter(writer http.ResponseWriter, request *http.Request) {
	reading, err := handler.service.GetLastChapter(request.Context(), requestutil.ID(request, "storyID"), requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

/*
GET /api/v1/stories/{storyID}/chapters/number/{number}.

Response:
  - 200: Reading
  - 400: Number is not a positive integer
  - 401 / 402 / 404: See [accessError]
*/
func (handler *Handler) chapterByNumber(writer http.ResponseWriter, request *http.Request) {
	number, err := requestutil.IntParam(request, "number")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reading, err := handler.service.GetChapterByNumber(request.Context(), requestutil.ID(request, "storyID"), number, requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

/*
POST /api/v1/stories/{storyID}/chapters.

Request (Body):
  - CreateInput JSON object; chapter_number is optional

Response:
  - 201: Chapter: Created chapter
  - 400: Validation failed
  - 403: Caller is not the story author
  - 409: Chapter number already taken
*/
func (handler *Handler) createChapter(writer http.ResponseWriter, request *http.Request) {
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

	chapter, err := handler.service.CreateChapter(request.Context(), requestutil.ID(request, "storyID"), input, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, chapter)
}

/*
PUT /api/v1/stories/{storyID}/chapters/order.

Request (Body):
  - chapter_ids: []string in the new reading order

Response:
  - 200: []Preview: Chapters in their new order
  - 400: Empty, duplicate or foreign ids
  - 409: An unlisted chapter holds one of the target numbers
*/
func (handler *Handler) reorderChapters(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body reorderRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	previews, err := handler.service.ReorderChapters(request.Context(), requestutil.ID(request, "storyID"), body.ChapterIDs, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, previews)
}

// # Chapter Scoped Endpoints

/*
GET /api/v1/chapters/{chapterID}.

Response:
  - 200: Reading: Chapter with content and navigation
  - 401: Paid chapter, anonymous caller
  - 402: Paid chapter, not purchased
  - 404: Missing, or hidden from the caller
*/
func (handler *Handler) getChapter(writer http.ResponseWriter, request *http.Request) {
	reading, err := handler.service.GetChapter(request.Context(), requestutil.ID(request, "chapterID"), requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

// GET /api/v1/chapters/{chapterID}/next.
func (handler *Handler) nextChapter(writer http.ResponseWriter, request *http.Request) {
	reading, err := handler.service.GetNextChapter(request.Context(), requestutil.ID(request, "chapterID"), requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

// GET /api/v1/chapters/{chapterID}/previous.
func (handler *Handler) previousChapter(writer http.ResponseWriter, request *http.Request) {
	reading, err := handler.service.GetPreviousChapter(request.Context(), requestutil.ID(request, "chapterID"), requestutil.PrincipalID(request))
	handler.writeReading(writer, request, reading, err)
}

/*
POST /api/v1/chapters/{chapterID}/views.

Response:
  - 204: View counted
  - 401 / 402 / 404: See [accessError]
*/
func (handler *Handler) recordView(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.RecordView(request.Context(), requestutil.ID(request, "chapterID"), requestutil.PrincipalID(request)); err != nil {
		respond.Error(writer, request, accessError(err))
		return
	}
	respond.NoContent(writer)
}

/*
PATCH /api/v1/chapters/{chapterID}.

Request (Body):
  - Patch JSON object; should_publish toggles publication only when it differs

Response:
  - 200: Chapter: Updated chapter
  - 403: Caller is not the story author
  - 409: Chapter number already taken
*/
func (handler *Handler) updateChapter(writer http.ResponseWriter, request *http.Request) {
	handler.applyPatch(writer, request, handler.service.UpdateChapter)
}

/*
PUT /api/v1/chapters/{chapterID}/autosave.

Description: Only title, content and should_publish are honoured; any other
field in the body is ignored.
*/
func (handler *Handler) autoSaveChapter(writer http.ResponseWriter, request *http.Request) {
	handler.applyPatch(writer, request, handler.service.AutoSaveChapter)
}

// POST /api/v1/chapters/{chapterID}/publish.
func (handler *Handler) publishChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.PublishChapter(request.Context(), requestutil.ID(request, "chapterID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

// POST /api/v1/chapters/{chapterID}/unpublish.
func (handler *Handler) unpublishChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.UnpublishChapter(request.Context(), requestutil.ID(request, "chapterID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

/*
DELETE /api/v1/chapters/{chapterID}.

Response:
  - 204: Deleted
  - 403: Caller is not the story author
*/
func (handler *Handler) deleteChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteChapter(request.Context(), requestutil.ID(request, "chapterID"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// POST /api/v1/chapters/{chapterID}/like.
func (handler *Handler) likeChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	changed, err := handler.service.LikeChapter(request.Context(), requestutil.ID(request, "chapterID"), userID)
	if err != nil {
		respond.Error(writer, request, accessError(err))
		return
	}
	respond.OK(writer, likeResponse{Liked: true, Changed: changed})
}

// DELETE /api/v1/chapters/{chapterID}/like.
func (handler *Handler) unlikeChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	changed, err := handler.service.UnlikeChapter(request.Context(), requestutil.ID(request, "chapterID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, likeResponse{Liked: false, Changed: changed})
}

/*
POST /api/v1/chapters/{chapterID}/moderate.

Request (Body):
  - approved: bool (required)
  - notes: string

Response:
  - 200: Chapter: With the new moderation status
  - 403: Caller is not a moderator
*/
func (handler *Handler) moderateChapter(writer http.ResponseWriter, request *http.Request) {
	moderatorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body moderateRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if body.Approved == nil {
		respond.Error(writer, request, validate.RequiredError("approved", "This field is required"))
		return
	}

	chapter, err := handler.service.ModerateChapter(request.Context(), requestutil.ID(request, "chapterID"), body.Notes, *body.Approved, moderatorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

// # Moderation Queue

/*
GET /api/v1/moderation/chapters?page=&limit=.

Response:
  - 200: []Chapter: Pending chapters, oldest first, with pagination meta
*/
func (handler *Handler) listForModeration(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	chapters, total, err := handler.service.ListChaptersForModeration(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, chapters, pagination.NewMeta(params.Page, params.Limit, total))
}

// # Helpers

func (handler *Handler) applyPatch(writer http.ResponseWriter, request *http.Request, apply func(context.Context, string, Patch, string) (*Chapter, error)) {
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

	chapter, err := apply(request.Context(), requestutil.ID(request, "chapterID"), patch, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

func (handler *Handler) writeReading(writer http.ResponseWriter, request *http.Request, reading *Reading, err error) {
	if err != nil {
		respond.Error(writer, request, accessError(err))
		return
	}
	respond.OK(writer, reading)
}

/*
accessError maps a resolver denial onto the status a reader should see:

  - unpublished, moderation: 404, the chapter's existence is not revealed
  - anonymous: 401, signing in may unlock it
  - not_purchased: 402, a purchase unlocks it

Any other error passes through unchanged.
*/
func accessError(err error) error {
	var denied *DeniedError
	if !errors.As(err, &denied) {
		return err
	}

	switch denied.Reason {
	case ReasonAnonymous:
		return apperr.Unauthorized("Sign in to read this chapter").WithCause(denied)
	case ReasonNotPurchased:
		return apperr.PaymentRequired("Purchase this chapter to read it").WithCause(denied)
	default:
		return apperr.NotFound(resourceChapter).WithCause(denied)
	}
}
