// Package query implements paginated, filtered, searched and sorted listings
// over the forum's entities.
package query

import "time"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort selects a single whitelisted field and a direction. An empty Field
// selects the entity's default ordering; an empty Direction means ascending.
type Sort struct {
	Field     string
	Direction Direction
}

// DateRange is an inclusive interval.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Filters is the closed set of supported filters. Zero values are unset.
type Filters struct {
	Status     string
	CategoryID uint
	// Categories matches entities in any of the listed category titles.
	Categories []string
	AuthorID   uint
	DateRange  *DateRange
}

// Options describes one listing request.
type Options struct {
	Page  int
	Limit int // 0 returns every matching row
	Sort  Sort
	// Search is a case-insensitive prefix match on the entity's text columns.
	Search  string
	Filters Filters
}

// DefaultOptions returns page 1 with the default HTTP page size.
func DefaultOptions() Options {
	return Options{Page: 1, Limit: DefaultLimit}
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is one slice of a listing. Total counts all matching rows before
// slicing.
type Page[T any] struct {
	Items []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
