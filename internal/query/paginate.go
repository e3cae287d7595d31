package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"usof/internal/models"
	"usof/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Paginate runs opts against base, a query already narrowed by the caller
// (for example to one post's comments). The total is counted over the
// filtered set before the page is cut.
func Paginate[T any](ctx context.Context, base *gorm.DB, spec Spec, opts Options) (Page[T], error) {
	if err := spec.Validate(opts); err != nil {
		return Page[T]{}, err
	}

	filtered := base.WithContext(ctx).
		Model(new(T)).
		Scopes(spec.filterScope(opts.Filters), spec.searchScope(opts.Search)).
		Session(&gorm.Session{})

	page := Page[T]{Items: make([]T, 0), Page: opts.Page, Limit: opts.Limit}

	done := observability.TrackQuery("count", spec.Table)
	err := filtered.Count(&page.Total).Error
	done()
	if err != nil {
		return Page[T]{}, models.NewInternalError(err)
	}
	if page.Total == 0 {
		return page, nil
	}

	find := filtered.Scopes(spec.orderScope(opts.Sort), sliceScope(opts.Page, opts.Limit))
	for _, p := range spec.Preloads {
		find = find.Preload(p)
	}

	done = observability.TrackQuery("list", spec.Table)
	err = find.Find(&page.Items).Error
	done()
	if err != nil {
		return Page[T]{}, models.NewInternalError(err)
	}
	return page, nil
}

// Validate rejects options this spec cannot serve.
func (s Spec) Validate(opts Options) error {
	if opts.Page < 1 {
		return models.NewValidationError("page must be at least 1")
	}
	if opts.Limit < 0 {
		return models.NewValidationError("limit must not be negative")
	}

	switch opts.Sort.Direction {
	case "", Asc, Desc:
	default:
		return models.NewValidationError(fmt.Sprintf("invalid sort direction %q", opts.Sort.Direction))
	}
	if opts.Sort.Field != "" {
		if _, ok := s.SortFields[opts.Sort.Field]; !ok {
			return models.NewValidationError(fmt.Sprintf("cannot sort %s by %q", s.Name, opts.Sort.Field))
		}
	}

	if opts.Search != "" && len(s.SearchColumns) == 0 && len(s.SubstringColumns) == 0 {
		return s.unsupported("search")
	}

	f := opts.Filters
	if f.Status != "" {
		if s.StatusColumn == "" {
			return s.unsupported("status")
		}
		if !slices.Contains(s.StatusValues, f.Status) {
			return models.NewValidationError(fmt.Sprintf("invalid status %q", f.Status))
		}
	}
	if (f.CategoryID != 0 || len(f.Categories) > 0) && s.PostIDColumn == "" {
		return s.unsupported("category")
	}
	if f.AuthorID != 0 && s.AuthorColumn == "" {
		return s.unsupported("author")
	}
	if f.DateRange != nil {
		if s.DateColumn == "" {
			return s.unsupported("date range")
		}
		if f.DateRange.To.Before(f.DateRange.From) {
			return models.NewValidationError("date range ends before it starts")
		}
	}
	return nil
}

func (s Spec) unsupported(filter string) error {
	return models.NewValidationError(fmt.Sprintf("%s filter is not supported for %s", filter, s.Name))
}

func (s Spec) column(name string) string {
	return s.Table + "." + name
}

func (s Spec) filterScope(f Filters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where(s.column(s.StatusColumn)+" = ?", f.Status)
		}
		if f.AuthorID != 0 {
			db = db.Where(s.column(s.AuthorColumn)+" = ?", f.AuthorID)
		}
		if f.CategoryID != 0 {
			db = db.Where(s.column(s.PostIDColumn)+" IN (SELECT post_id FROM post_categories WHERE category_id = ?)", f.CategoryID)
		}
		if len(f.Categories) > 0 {
			db = db.Where(s.column(s.PostIDColumn)+` IN (
				SELECT pc.post_id FROM post_categories pc
				JOIN categories c ON c.id = pc.category_id
				WHERE c.title IN ?)`, f.Categories)
		}
		if f.DateRange != nil {
			db = db.Where(s.column(s.DateColumn)+" BETWEEN ? AND ?", f.DateRange.From, f.DateRange.To)
		}
		return db
	}
}

// likeEscaper neutralises LIKE metacharacters in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s Spec) searchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return db
		}
		escaped := likeEscaper.Replace(term)

		conds := make([]string, 0, len(s.SearchColumns)+len(s.SubstringColumns))
		args := make([]any, 0, cap(conds))
		for _, col := range s.SearchColumns {
			conds = append(conds, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, s.column(col)))
			args = append(args, escaped+"%")
		}
		for _, col := range s.SubstringColumns {
			conds = append(conds, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, s.column(col)))
			args = append(args, "%"+escaped+"%")
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

func (s Spec) orderScope(sort Sort) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if sort.Field == "" {
			sort = s.DefaultSort
		} else if sort.Direction == "" {
			sort.Direction = Asc
		}

		if sort.Field != "" && sort.Field != "id" {
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Table: s.Table, Name: s.SortFields[sort.Field]},
				Desc:   sort.Direction == Desc,
			})
		}
		// id breaks ties so that pages never overlap.
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Table: s.Table, Name: "id"},
			Desc:   sort.Field == "id" && sort.Direction == Desc,
		})
	}
}

func sliceScope(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit == 0 {
			return db
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
