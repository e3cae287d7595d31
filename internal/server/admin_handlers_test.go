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

func TestRecomputeRatings(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	root := testutil.CreateAdmin(t, ts.db, "root")
	testutil.CreatePost(t, ts.db, alice.ID, func(p *models.Post) {
		p.LikesCount = 3
		p.DislikesCount = 1
	})
	path := fmt.Sprintf("/api/admin/ratings/%d/recompute", alice.ID)

	resp := ts.do(t, http.MethodPost, path, nil, nil)
	assertError(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)

	resp = ts.do(t, http.MethodPost, path, alice, nil)
	assertError(t, resp, http.StatusForbidden, models.CodeForbidden)

	resp = ts.do(t, http.MethodPost, path, root, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body itemBody[map[string]any]
	decode(t, resp, &body)
	assert.Equal(t, "5.4", body.Data["publisher_rating"])
	assert.Equal(t, "1", body.Data["commentator_rating"])
	assert.Equal(t, "5.4", testutil.Reload[models.User](t, ts.db, alice.ID).PublisherRating.String())

	resp = ts.do(t, http.MethodPost, "/api/admin/ratings/999/recompute", root, nil)
	assertError(t, resp, http.StatusNotFound, models.CodeNotFound)
}
