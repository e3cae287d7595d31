package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const actorKey = "actor"

// respond writes err with the status its AppError code maps to.
func respond(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// badRequest writes a 400 VALIDATION_ERROR and returns errResponseWritten.
func badRequest(c *fiber.Ctx, err error) error {
	if !models.IsCode(err, models.CodeValidation) {
		err = models.NewValidationError(err.Error())
	}
	_ = models.RespondWithError(c, fiber.StatusBadRequest, err)
	return errResponseWritten
}

// data wraps a single entity in the item envelope.
func data(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(fiber.Map{"data": v})
}

// actorFrom returns the caller resolved by ResolveActor, or Anonymous.
func actorFrom(c *fiber.Ctx) policy.Actor {
	if a, ok := c.Locals(actorKey).(policy.Actor); ok {
		return a
	}
	return policy.Anonymous
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "postId" -> "Invalid post ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, badRequest(c, models.NewValidationError("Invalid "+humanizeParam(param)))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseBody decodes the JSON body into req and validates its tags. On
// failure it writes a 400 and returns errResponseWritten.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, models.NewValidationError("Invalid request body"))
	}
	if err := validation.Struct(req); err != nil {
		return badRequest(c, err)
	}
	return nil
}

// listQuery is the query string accepted by every listing endpoint.
type listQuery struct {
	Page          int    `query:"page" validate:"gte=0"`
	Limit         int    `query:"limit" validate:"gte=0"`
	SortField     string `query:"sortField" validate:"max=64"`
	SortDirection string `query:"sortDirection"`
	Search        string `query:"search" validate:"max=255"`
	Status        string `query:"status"`
	CategoryID    uint   `query:"categoryId"`
	Categories    string `query:"categories"`
	AuthorID      uint   `query:"authorId"`
	DateFrom      string `query:"dateFrom"`
	DateTo        string `query:"dateTo"`
	DateRange     string `query:"dateRange"`
}

var listKeys = map[string]struct{}{
	"page": {}, "limit": {}, "sortField": {}, "sortDirection": {}, "search": {},
	"status": {}, "categoryId": {}, "categories": {}, "authorId": {},
	"dateFrom": {}, "dateTo": {}, "dateRange": {},
}

// parseListOptions reads the listing query string. Keys outside the list
// set and extra are rejected. Page defaults to 1 and limit to
// query.DefaultLimit; limits above query.MaxLimit are capped. On failure it
// writes a 400 and returns errResponseWritten.
func parseListOptions(c *fiber.Ctx, extra ...string) (query.Options, error) {
	var unknown []string
	c.Context().QueryArgs().VisitAll(func(k, _ []byte) {
		key := string(k)
		if _, ok := listKeys[key]; ok {
			return
		}
		for _, e := range extra {
			if key == e {
				return
			}
		}
		unknown = append(unknown, key)
	})
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return query.Options{}, badRequest(c, models.NewValidationError(
			fmt.Sprintf("Unknown query parameter: %s", strings.Join(unknown, ", "))))
	}

	var q listQuery
	if err := c.QueryParser(&q); err != nil {
		return query.Options{}, badRequest(c, models.NewValidationError("Invalid query parameters"))
	}
	if err := validation.Struct(q); err != nil {
		return query.Options{}, badRequest(c, err)
	}

	opts, err := q.options()
	if err != nil {
		return query.Options{}, badRequest(c, err)
	}
	return opts, nil
}

func (q listQuery) options() (query.Options, error) {
	opts := query.DefaultOptions()
	if q.Page > 0 {
		opts.Page = q.Page
	}
	if q.Limit > 0 {
		opts.Limit = min(q.Limit, query.MaxLimit)
	}

	dir, err := query.ParseDirection(q.SortDirection)
	if err != nil {
		return query.Options{}, err
	}
	opts.Sort = query.Sort{Field: strings.TrimSpace(q.SortField), Direction: dir}
	opts.Search = strings.TrimSpace(q.Search)

	if q.DateRange != "" && (q.DateFrom != "" || q.DateTo != "") {
		return query.Options{}, models.NewValidationError("Use either dateRange or dateFrom/dateTo")
	}
	var dates *query.DateRange
	if q.DateRange != "" {
		dates, err = query.ParseDateRangeParam(q.DateRange)
	} else {
		dates, err = query.ParseDateRange(q.DateFrom, q.DateTo)
	}
	if err != nil {
		return query.Options{}, err
	}

	opts.Filters = query.Filters{
		Status:     strings.ToLower(strings.TrimSpace(q.Status)),
		CategoryID: q.CategoryID,
		Categories: query.ParseCategories(q.Categories),
		AuthorID:   q.AuthorID,
		DateRange:  dates,
	}
	return opts, nil
}
