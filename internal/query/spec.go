package query

import "usof/internal/models"

// Spec declares what a listing over one table may do. Columns are
// unqualified; the engine prefixes them with Table.
type Spec struct {
	Name  string
	Table string
	// SortFields maps the public field name to its column.
	SortFields  map[string]string
	DefaultSort Sort
	// SearchColumns are matched by case-insensitive prefix.
	SearchColumns []string
	// SubstringColumns are matched by case-insensitive substring.
	SubstringColumns []string
	StatusColumn     string
	StatusValues     []string
	DateColumn       string
	AuthorColumn     string
	// PostIDColumn enables the category filters when set.
	PostIDColumn string
	Preloads     []string
}

func fields(names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = n
	}
	return out
}

// PostSpec lists posts.
var PostSpec = Spec{
	Name:  "posts",
	Table: "posts",
	SortFields: fields("id", "title", "status", "publish_date", "likes_count",
		"dislikes_count", "comments_count", "created_at"),
	DefaultSort:   Sort{Field: "likes_count", Direction: Desc},
	SearchColumns: []string{"title"},
	StatusColumn:  "status",
	StatusValues: []string{
		string(models.PostActive), string(models.PostInactive), string(models.PostLocked),
	},
	DateColumn:   "publish_date",
	AuthorColumn: "user_id",
	PostIDColumn: "id",
	Preloads:     []string{"Author", "Categories"},
}

// CommentSpec lists comments.
var CommentSpec = Spec{
	Name:          "comments",
	Table:         "comments",
	SortFields:    fields("id", "likes_count", "dislikes_count", "created_at"),
	DefaultSort:   Sort{Field: "likes_count", Direction: Desc},
	SearchColumns: []string{"content"},
	StatusColumn:  "status",
	StatusValues:  []string{string(models.CommentActive), string(models.CommentInactive)},
	DateColumn:    "created_at",
	AuthorColumn:  "user_id",
	Preloads:      []string{"Author"},
}

// UserSpec lists users. Search matches the login by prefix and the full
// name anywhere.
var UserSpec = Spec{
	Name:  "users",
	Table: "users",
	SortFields: fields("id", "login", "full_name", "publisher_rating",
		"commentator_rating", "created_at"),
	DefaultSort:      Sort{Field: "publisher_rating", Direction: Desc},
	SearchColumns:    []string{"login"},
	SubstringColumns: []string{"full_name"},
	DateColumn:       "created_at",
}

// CategorySpec lists categories. There is no default sort; rows come back
// in primary key order.
var CategorySpec = Spec{
	Name:          "categories",
	Table:         "categories",
	SortFields:    fields("id", "title", "created_at"),
	SearchColumns: []string{"title"},
	DateColumn:    "created_at",
}

// LikeSpec lists the reactions on one target.
var LikeSpec = Spec{
	Name:       "likes",
	Table:      "likes",
	SortFields: fields("id", "publish_date", "type"),
	DateColumn: "publish_date",
	Preloads:   []string{"Author"},
}

// FavoriteSpec lists a user's favorite posts. Callers narrow the base query
// to the user's favorites before paginating.
var FavoriteSpec = func() Spec {
	s := PostSpec
	s.Name = "favorites"
	return s
}()
