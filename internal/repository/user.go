package repository

import (
	"context"
	"errors"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	Delete(ctx context.Context, id uint) ([]Affected, error)
	List(ctx context.Context, opts query.Options) (query.Page[models.User], error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.findOne(ctx, "login = ?", login)
}

// findOne returns nil, nil when nothing matches.
func (r *userRepository) findOne(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with this login or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes profile columns. Ratings and role have their own writers.
// The password hash is written only when set; cached users never carry it.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	columns := []any{"FullName", "Email", "Verified", "ProfilePicture", "UpdatedAt"}
	if user.Password != "" {
		columns = append(columns, "Password")
	}
	err := r.db.WithContext(ctx).Model(user).
		Select("Login", columns...).
		Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with this login or email already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Delete removes the user with everything they own: their reactions (with
// the counters they contributed to), their posts, their comment subtrees
// and their favorites. It returns the other users whose ratings changed.
func (r *userRepository) Delete(ctx context.Context, id uint) ([]Affected, error) {
	var affected affectedSet
	var touchedPosts []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockRow(tx).Select("id").First(&user, id).Error; err != nil {
			return err
		}

		authors, posts, err := retractReactions(tx, id)
		if err != nil {
			return err
		}
		affected.merge(authors)
		touchedPosts = posts

		var owned []models.Post
		if err := tx.Select("id", "user_id").Where("user_id = ?", id).Find(&owned).Error; err != nil {
			return err
		}
		for i := range owned {
			got, err := deletePost(tx, &owned[i])
			if err != nil {
				return err
			}
			affected.merge(got)
			touchedPosts = append(touchedPosts, owned[i].ID)
		}

		var roots []models.Comment
		if err := tx.Select("id", "user_id", "post_id", "parent_comment_id").
			Where("user_id = ?", id).Find(&roots).Error; err != nil {
			return err
		}
		tree, err := collectSubtree(tx, roots)
		if err != nil {
			return err
		}
		if err := removeComments(tx, tree, true); err != nil {
			return err
		}
		for _, c := range tree {
			affected.add(c.UserID, models.EntityComment)
			touchedPosts = append(touchedPosts, c.PostID)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, translate(err, "User", id)
	}

	cache.InvalidateUser(ctx, id)
	for _, postID := range touchedPosts {
		cache.InvalidatePost(ctx, postID)
	}
	return affected.without(id), nil
}

// retractReactions deletes every reaction by userID and undoes its counter
// increment. It returns the authors of the targets and the posts touched.
func retractReactions(tx *gorm.DB, userID uint) ([]Affected, []uint, error) {
	var likes []models.Like
	if err := tx.Where("user_id = ?", userID).Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	var affected affectedSet
	var posts []uint
	for _, like := range likes {
		column := counterColumn(like.Type)
		switch like.EntityType {
		case models.EntityPost:
			var post models.Post
			if err := tx.Select("id", "user_id").First(&post, like.TargetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, nil, err
			}
			if err := adjustCounter(tx.Model(&models.Post{}), "Post", post.ID, column, -1); err != nil {
				return nil, nil, err
			}
			affected.add(post.UserID, models.EntityPost)
			posts = append(posts, post.ID)
		case models.EntityComment:
			var comment models.Comment
			if err := tx.Select("id", "user_id").First(&comment, like.TargetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, nil, err
			}
			if err := adjustCounter(tx.Model(&models.Comment{}), "Comment", comment.ID, column, -1); err != nil {
				return nil, nil, err
			}
			affected.add(comment.UserID, models.EntityComment)
		}
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return nil, nil, err
	}
	return affected.items, posts, nil
}

func (r *userRepository) List(ctx context.Context, opts query.Options) (query.Page[models.User], error) {
	return query.Paginate[models.User](ctx, r.db, query.UserSpec, opts)
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
