// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/platform/apperr"
	"github.com/taibuivan/inkwell/internal/platform/ctxutil"
	"github.com/taibuivan/inkwell/internal/platform/sec"
	"github.com/taibuivan/inkwell/pkg/uuid"
)

func as(request *http.Request, userID string, role sec.UserRole) *http.Request {
	ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: userID, Role: string(role)})
	return request.WithContext(ctx)
}

// newRouter mounts the chapter handler the way the API server does.
func newRouter(f *fixture) http.Handler {
	handler := chapter.NewHandler(f.service)

	router := chi.NewRouter()
	router.Mount("/stories/{storyID}/chapters", handler.StoryRoutes())
	router.Mount("/chapters", handler.Routes())
	router.Mount("/moderation", handler.ModerationRoutes())
	return router
}

func serve(router http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope.Code
}

func TestHandler_CreateAndRead(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	body := `{"title":"Arrival","content":"The ship came in","is_free":true,"publish_immediately":true}`

	recorder := serve(router, httptest.NewRequest(http.MethodPost, "/stories/story-1/chapters", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/stories/story-1/chapters", strings.NewReader(body)), readerID, sec.RoleReader))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/stories/story-1/chapters", strings.NewReader(body)), authorID, sec.RoleAuthor))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		Data chapter.Chapter `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&created))
	assert.Equal(t, 1, created.Data.Number)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/chapters/"+created.Data.ID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var reading struct {
		Data struct {
			Content    string             `json:"content"`
			Navigation chapter.Navigation `json:"navigation"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&reading))
	assert.Equal(t, "The ship came in", reading.Data.Content)
	assert.Equal(t, 1, reading.Data.Navigation.TotalChapters)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/stories/story-1/chapters/number/1", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/stories/story-1/chapters/number/zero", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_DeniedMapping(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	draftChapter := f.create(t, chapter.CreateInput{Title: "Draft", Content: "wip", IsFree: true})
	paid := f.create(t, chapter.CreateInput{Title: "Paid", Content: "gold", CoinPrice: decimal.NewFromInt(5), PublishImmediately: true})

	tests := []struct {
		name   string
		id     string
		userID string
		status int
		code   string
	}{
		{"draft hidden", draftChapter.ID, readerID, http.StatusNotFound, apperr.CodeNotFound},
		{"paid anonymous", paid.ID, "", http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"paid not purchased", paid.ID, readerID, http.StatusPaymentRequired, apperr.CodePaymentRequired},
		{"missing", uuid.New(), readerID, http.StatusNotFound, apperr.CodeNotFound},
		{"malformed id", "abc", readerID, http.StatusBadRequest, apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/chapters/"+tt.id, nil)
			if tt.userID != "" {
				request = as(request, tt.userID, sec.RoleReader)
			}

			recorder := serve(router, request)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, errorCode(t, recorder))
		})
	}
}

func TestHandler_ReorderAndList(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	a := f.published(t, "A")
	b := f.published(t, "B")

	request := as(httptest.NewRequest(http.MethodPut, "/stories/story-1/chapters/order", strings.NewReader(`{"chapter_ids":["`+b.ID+`","`+a.ID+`"]}`)), authorID, sec.RoleAuthor)
	recorder := serve(router, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed struct {
		Data []chapter.Preview `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&listed))
	require.Len(t, listed.Data, 2)
	assert.Equal(t, b.ID, listed.Data[0].ID)
	assert.Equal(t, 1, listed.Data[0].Number)

	request = as(httptest.NewRequest(http.MethodPut, "/stories/story-1/chapters/order", strings.NewReader(`{"chapter_ids":[]}`)), authorID, sec.RoleAuthor)
	recorder = serve(router, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/stories/story-1/chapters", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/stories/story-1/chapters/range?from=1&to=1", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/stories/story-1/chapters/range?from=x&to=1", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_EngagementAndModeration(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	free := f.published(t, "Free")

	recorder := serve(router, httptest.NewRequest(http.MethodPost, "/chapters/"+free.ID+"/views", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/chapters/"+free.ID+"/like", nil), readerID, sec.RoleReader))
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := `{"approved":true,"notes":"fine"}`
	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/chapters/"+free.ID+"/moderate", strings.NewReader(body)), readerID, sec.RoleReader))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/chapters/"+free.ID+"/moderate", strings.NewReader(`{"notes":"?"}`)), "moderator-1", sec.RoleModerator))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodPost, "/chapters/"+free.ID+"/moderate", strings.NewReader(body)), "moderator-1", sec.RoleModerator))
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = serve(router, as(httptest.NewRequest(http.MethodGet, "/moderation/chapters?limit=5", nil), "admin-1", sec.RoleAdmin))
	require.Equal(t, http.StatusOK, recorder.Code)

	var queue struct {
		Data []chapter.Chapter `json:"data"`
		Meta struct {
			Total int `json:"total"`
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&queue))
	assert.Zero(t, queue.Meta.Total)
	assert.Equal(t, 5, queue.Meta.Limit)
}

func TestHandler_AutoSaveAndDelete(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	created := f.create(t, chapter.CreateInput{Title: "One", IsFree: true})

	request := as(httptest.NewRequest(http.MethodPut, "/chapters/"+created.ID+"/autosave", strings.NewReader(`{"content":"typing..."}`)), authorID, sec.RoleAuthor)
	recorder := serve(router, request)
	assert.Equal(t, http.StatusOK, recorder.Code)

	request = as(httptest.NewRequest(http.MethodPost, "/chapters/"+created.ID+"/publish", nil), authorID, sec.RoleAuthor)
	recorder = serve(router, request)
	assert.Equal(t, http.StatusOK, recorder.Code)

	request = as(httptest.NewRequest(http.MethodPost, "/chapters/"+created.ID+"/publish", nil), authorID, sec.RoleAuthor)
	recorder = serve(router, request)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	request = as(httptest.NewRequest(http.MethodDelete, "/chapters/"+created.ID, nil), authorID, sec.RoleAuthor)
	recorder = serve(router, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Zero(t, f.story(t).TotalChapters)
}

func TestHandler_MalformedChapterIDNeverReachesTheStore(t *testing.T) {
	f := newFixture(t, chapter.PolicyNone)
	router := newRouter(f)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/chapters/abc/next", nil),
		httptest.NewRequest(http.MethodPost, "/chapters/abc/views", nil),
		as(httptest.NewRequest(http.MethodPost, "/chapters/abc/publish", nil), authorID, sec.RoleAuthor),
		as(httptest.NewRequest(http.MethodPost, "/chapters/abc/moderate", strings.NewReader(`{"approved":true}`)), "moderator-1", sec.RoleModerator),
	}

	for _, request := range requests {
		recorder := serve(router, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "%s %s", request.Method, request.URL.Path)
		assert.Equal(t, apperr.CodeValidation, errorCode(t, recorder))
	}
}
