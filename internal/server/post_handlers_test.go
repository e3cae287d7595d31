package server

import (
	"fmt"
	"net/http"
	"testing"

	"usof/internal/models"
	"usof/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questionBody = "How do I cancel a context after a timeout?"

func TestCreatePost(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	golang := testutil.CreateCategory(t, ts.db, "golang")

	tests := []struct {
		name           string
		user           *models.User
		body           map[string]any
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Anonymous",
			body:           map[string]any{"title": "Contexts", "content": questionBody, "categories": []uint{golang.ID}},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeUnauthorized,
		},
		{
			name:           "Missing Categories",
			user:           alice,
			body:           map[string]any{"title": "Contexts", "content": questionBody},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeValidation,
		},
		{
			name:           "Unknown Category",
			user:           alice,
			body:           map[string]any{"title": "Contexts", "content": questionBody, "categories": []uint{99}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeValidation,
		},
		{
			name:           "Short Content",
			user:           alice,
			body:           map[string]any{"title": "Contexts", "content": "short", "categories": []uint{golang.ID}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeValidation,
		},
		{
			name:           "Locked Status Is Admin Only",
			user:           alice,
			body:           map[string]any{"title": "Contexts", "content": questionBody, "categories": []uint{golang.ID}, "status": "locked"},
			expectedStatus: http.StatusForbidden,
			expectedCode:   models.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/posts", tt.user, tt.body)
			assertError(t, resp, tt.expectedStatus, tt.expectedCode)
		})
	}

	t.Run("Success", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/posts", alice, map[string]any{
			"title":      "  Contexts  ",
			"content":    questionBody,
			"categories": []uint{golang.ID},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body itemBody[models.Post]
		decode(t, resp, &body)
		assert.NotZero(t, body.Data.ID)
		assert.Equal(t, alice.ID, body.Data.UserID)
		assert.Equal(t, models.PostActive, body.Data.Status)
		require.Len(t, body.Data.Categories, 1)
		assert.Equal(t, "golang", body.Data.Categories[0].Title)
	})
}

func TestListPosts(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	root := testutil.CreateAdmin(t, ts.db, "root")
	for i := range 12 {
		testutil.CreatePost(t, ts.db, alice.ID, func(p *models.Post) { p.Title = fmt.Sprintf("Question %02d", i) })
	}
	testutil.CreatePost(t, ts.db, alice.ID, func(p *models.Post) { p.Status = models.PostInactive })

	t.Run("Default Page", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, int64(12), body.Total, "anonymous callers only see active posts")
		assert.Len(t, body.Data, 10)
		assert.Equal(t, 1, body.Page)
		assert.Equal(t, 10, body.Limit)
	})

	t.Run("Second Page Sorted By Title", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts?page=2&limit=5&sortField=title&sortDirection=asc", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		require.Len(t, body.Data, 5)
		assert.Equal(t, "Question 05", body.Data[0].Title)
		assert.Equal(t, "Question 09", body.Data[4].Title)
	})

	t.Run("Limit Is Capped", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts?limit=500", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, 100, body.Limit)
	})

	t.Run("Search", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts?search=question%2001", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, int64(1), body.Total)
	})

	t.Run("Inactive Requires Admin", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts?status=inactive", nil, nil)
		assertError(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)

		resp = ts.do(t, http.MethodGet, "/api/posts?status=inactive", root, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, int64(1), body.Total)
	})

	t.Run("Author Sees Own Inactive Posts", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts?authorId=%d", alice.ID), alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body listBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, int64(13), body.Total)
	})

	badQueries := map[string]string{
		"Unknown Key":      "/api/posts?order=desc",
		"Unknown Sort":     "/api/posts?sortField=password",
		"Bad Direction":    "/api/posts?sortDirection=sideways",
		"Bad Page":         "/api/posts?page=-1",
		"Non Numeric":      "/api/posts?categoryId=abc",
		"Bad Date":         "/api/posts?dateFrom=yesterday",
		"Reversed Range":   "/api/posts?dateRange=2024-02-01,2024-01-01",
		"Conflicting Date": "/api/posts?dateRange=2024-01-01,2024-02-01&dateFrom=2024-01-01",
		"Bad Status":       "/api/posts?status=archived",
	}
	for name, path := range badQueries {
		t.Run(name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, path, root, nil)
			assertError(t, resp, http.StatusBadRequest, models.CodeValidation)
		})
	}
}

func TestGetUpdateDeletePost(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	golang := testutil.CreateCategory(t, ts.db, "golang")
	post := testutil.CreatePost(t, ts.db, alice.ID, func(p *models.Post) { p.Status = models.PostInactive })
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	t.Run("Invalid ID", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/posts/abc", nil, nil)
		assertError(t, resp, http.StatusBadRequest, models.CodeValidation)
	})

	t.Run("Hidden From Others", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, path, bob, nil)
		assertError(t, resp, http.StatusForbidden, models.CodeForbidden)
		resp = ts.do(t, http.MethodGet, path, alice, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Only The Author Updates", func(t *testing.T) {
		resp := ts.do(t, http.MethodPatch, path, bob, map[string]any{"title": "Hijacked"})
		assertError(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = ts.do(t, http.MethodPatch, path, alice, map[string]any{
			"title":      "Contexts and deadlines",
			"status":     "active",
			"categories": []uint{golang.ID},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body itemBody[models.Post]
		decode(t, resp, &body)
		assert.Equal(t, "Contexts and deadlines", body.Data.Title)
		assert.Equal(t, models.PostActive, body.Data.Status)

		resp = ts.do(t, http.MethodGet, path+"/categories", bob, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var cats itemBody[[]models.Category]
		decode(t, resp, &cats)
		require.Len(t, cats.Data, 1)
		assert.Equal(t, golang.ID, cats.Data[0].ID)
	})

	t.Run("Counters Are Not Writable", func(t *testing.T) {
		resp := ts.do(t, http.MethodPatch, path, alice, map[string]any{"likes_count": 1000})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Zero(t, testutil.Reload[models.Post](t, ts.db, post.ID).LikesCount)
	})

	t.Run("Delete", func(t *testing.T) {
		resp := ts.do(t, http.MethodDelete, path, bob, nil)
		assertError(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = ts.do(t, http.MethodDelete, path, alice, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = ts.do(t, http.MethodGet, path, alice, nil)
		assertError(t, resp, http.StatusNotFound, models.CodeNotFound)
	})
}

func TestPostReactions(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	post := testutil.CreatePost(t, ts.db, alice.ID)
	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp := ts.do(t, http.MethodPost, likePath, bob, map[string]string{"type": "meh"})
	assertError(t, resp, http.StatusBadRequest, models.CodeValidation)

	resp = ts.do(t, http.MethodPost, likePath, nil, map[string]string{"type": "like"})
	assertError(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)

	resp = ts.do(t, http.MethodPost, likePath, bob, map[string]string{"type": "like"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var like itemBody[models.Like]
	decode(t, resp, &like)
	assert.Equal(t, models.ReactionLike, like.Data.Type)
	assert.Equal(t, bob.ID, like.Data.UserID)

	reloaded := testutil.Reload[models.Post](t, ts.db, post.ID)
	assert.Equal(t, int64(1), reloaded.LikesCount)
	author := testutil.Reload[models.User](t, ts.db, alice.ID)
	assert.Equal(t, "4.5", author.PublisherRating.String())

	resp = ts.do(t, http.MethodPost, likePath, bob, map[string]string{"type": "like"})
	assertError(t, resp, http.StatusConflict, models.CodeConflict)

	resp = ts.do(t, http.MethodPost, likePath, bob, map[string]string{"type": "dislike"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reloaded = testutil.Reload[models.Post](t, ts.db, post.ID)
	assert.Equal(t, int64(0), reloaded.LikesCount)
	assert.Equal(t, int64(1), reloaded.DislikesCount)
	author = testutil.Reload[models.User](t, ts.db, alice.ID)
	assert.Equal(t, "1", author.PublisherRating.String())

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/likes?type=dislike", post.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listBody[models.Like]
	decode(t, resp, &list)
	assert.Equal(t, int64(1), list.Total)

	resp = ts.do(t, http.MethodDelete, likePath, bob, map[string]string{"type": "like"})
	assertError(t, resp, http.StatusNotFound, models.CodeNotFound)

	resp = ts.do(t, http.MethodDelete, likePath, bob, map[string]string{"type": "dislike"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	reloaded = testutil.Reload[models.Post](t, ts.db, post.ID)
	assert.Zero(t, reloaded.DislikesCount)
}
