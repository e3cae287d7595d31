package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"usof/internal/models"
	"usof/internal/query"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":              "ID",
		"postId":          "post ID",
		"parentCommentId": "parent comment ID",
		"slug":            "slug",
	}
	for param, want := range tests {
		assert.Equal(t, want, humanizeParam(param), param)
	}
}

func TestParseListOptions(t *testing.T) {
	var got query.Options
	app := fiber.New()
	app.Get("/list", func(c *fiber.Ctx) error {
		opts, err := parseListOptions(c, "type")
		if err != nil {
			return nil
		}
		got = opts
		return c.SendStatus(fiber.StatusNoContent)
	})

	get := func(t *testing.T, target string) *http.Response {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	t.Run("Defaults", func(t *testing.T) {
		resp := get(t, "/list")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, 1, got.Page)
		assert.Equal(t, query.DefaultLimit, got.Limit)
		assert.Nil(t, got.Filters.DateRange)
	})

	t.Run("All Parameters", func(t *testing.T) {
		resp := get(t, "/list?page=3&limit=500&sortField=%20title%20&sortDirection=DESC&search=%20go%20&status=Active&categoryId=4&categories=go,%20sql&authorId=9&dateRange=2024-01-01,2024-01-31&type=like")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, 3, got.Page)
		assert.Equal(t, query.MaxLimit, got.Limit)
		assert.Equal(t, query.Sort{Field: "title", Direction: query.Desc}, got.Sort)
		assert.Equal(t, "go", got.Search)
		assert.Equal(t, "active", got.Filters.Status)
		assert.Equal(t, uint(4), got.Filters.CategoryID)
		assert.Equal(t, []string{"go", "sql"}, got.Filters.Categories)
		assert.Equal(t, uint(9), got.Filters.AuthorID)
		require.NotNil(t, got.Filters.DateRange)
		assert.Equal(t, 2024, got.Filters.DateRange.From.Year())
	})

	bad := map[string]string{
		"Unknown Key":      "/list?foo=1&bar=2",
		"Negative Limit":   "/list?limit=-5",
		"Non Numeric Page": "/list?page=two",
		"Bad Direction":    "/list?sortDirection=up",
		"Date Conflict":    "/list?dateRange=2024-01-01,2024-01-31&dateTo=2024-02-01",
		"Bad Date":         "/list?dateFrom=01/02/2024",
	}
	for name, target := range bad {
		t.Run(name, func(t *testing.T) {
			resp := get(t, target)
			assertError(t, resp, http.StatusBadRequest, models.CodeValidation)
		})
	}

	t.Run("Unknown Keys Are Named", func(t *testing.T) {
		resp := get(t, "/list?zeta=1&alpha=2")
		var body models.ErrorResponse
		decode(t, resp, &body)
		assert.Contains(t, body.Error, "alpha, zeta")
	})
}
