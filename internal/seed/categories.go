package seed

import (
	"fmt"
	"os"
	"strings"

	"usof/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategorySeed describes one category to create or refresh.
type CategorySeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// BuiltInCategories is used when no fixtures file is configured.
var BuiltInCategories = []CategorySeed{
	{Title: "general", Description: "Anything that does not fit elsewhere."},
	{Title: "go", Description: "The Go programming language and its tooling."},
	{Title: "databases", Description: "SQL, schema design and query tuning."},
	{Title: "devops", Description: "Deployment, CI pipelines and infrastructure."},
	{Title: "frontend", Description: "Browsers, CSS and client frameworks."},
	{Title: "security", Description: "Authentication, hardening and threat models."},
	{Title: "linux", Description: "Distros, shells and system administration."},
	{Title: "career", Description: "Interviews, growth and working in teams."},
}

type categoryFile struct {
	Categories []CategorySeed `yaml:"categories"`
}

// LoadCategories reads a YAML fixtures file of the form
//
//	categories:
//	  - title: go
//	    description: The Go programming language.
func LoadCategories(path string) ([]CategorySeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category fixtures: %w", err)
	}
	var file categoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse category fixtures %s: %w", path, err)
	}
	for i, item := range file.Categories {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			return nil, fmt.Errorf("category fixtures %s: entry %d has no title", path, i+1)
		}
		file.Categories[i].Title = title
	}
	return file.Categories, nil
}

// Categories upserts items by title and returns the stored rows in the
// same order. Existing descriptions are refreshed.
func Categories(db *gorm.DB, items []CategorySeed) ([]models.Category, error) {
	out := make([]models.Category, 0, len(items))
	for _, item := range items {
		category := models.Category{Title: item.Title, Description: item.Description}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
		}).Create(&category).Error
		if err != nil {
			return nil, fmt.Errorf("upsert category %q: %w", item.Title, err)
		}
		// Some dialects do not report the id of an updated row.
		if err := db.Where("title = ?", item.Title).First(&category).Error; err != nil {
			return nil, fmt.Errorf("load category %q: %w", item.Title, err)
		}
		out = append(out, category)
	}
	return out, nil
}
