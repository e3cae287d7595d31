package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"usof/internal/models"
	"usof/internal/query"
	"usof/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedUser *models.User
		expectedCode string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "login", "email", "publisher_rating"}).
					AddRow(1, "testuser", "test@example.com", "7.25")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Login: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.True(t, models.IsCode(err, tt.expectedCode), "got %v", err)
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Login, user.Login)
				assert.Equal(t, "7.25", user.PublisherRating.StringFixed(2))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByLogin_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE login = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByLogin(context.Background(), "ghost")
	assert.NoError(t, err) // Should return nil, nil per implementation
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := &models.User{Login: "newuser", Email: "new@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, uint(1), user.ID)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		user := &models.User{Login: "newuser", Email: "new@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
		mock.ExpectRollback()

		err := repo.Create(ctx, user)
		assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateKeepsPasswordWhenUnset(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, "keeper")
	hash := user.Password

	changed := &models.User{ID: user.ID, Login: "keeper", FullName: "New Name", Email: user.Email}
	require.NoError(t, repo.Update(context.Background(), changed))

	stored := testutil.Reload[models.User](t, db, user.ID)
	assert.Equal(t, "New Name", stored.FullName)
	assert.Equal(t, hash, stored.Password)
}

func TestUserRepository_SetRoleAndListByRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "promoted")
	testutil.CreateUser(t, db, "plain")

	require.NoError(t, repo.SetRole(ctx, user.ID, models.RoleAdmin))
	admins, err := repo.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "promoted", admins[0].Login)

	err = repo.SetRole(ctx, 999, models.RoleAdmin)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	leaving := testutil.CreateUser(t, db, "leaving")
	staying := testutil.CreateUser(t, db, "staying")

	// A post by the leaving user with a reply from the staying user.
	ownPost := testutil.CreatePost(t, db, leaving.ID)
	testutil.CreateComment(t, db, staying.ID, ownPost.ID, nil)

	// A comment thread on the staying user's post.
	otherPost := testutil.CreatePost(t, db, staying.ID, func(p *models.Post) { p.LikesCount = 1 })
	ownComment := testutil.CreateComment(t, db, leaving.ID, otherPost.ID, nil)
	reply := testutil.CreateComment(t, db, staying.ID, otherPost.ID, &ownComment.ID)
	kept := testutil.CreateComment(t, db, staying.ID, otherPost.ID, nil)

	require.NoError(t, db.Create(&models.Like{
		UserID: leaving.ID, EntityType: models.EntityPost, TargetID: otherPost.ID,
		PostID: &otherPost.ID, Type: models.ReactionLike,
	}).Error)
	require.NoError(t, db.Create(&models.Favorite{UserID: leaving.ID, PostID: otherPost.ID}).Error)

	affected, err := repo.Delete(ctx, leaving.ID)
	require.NoError(t, err)

	assert.False(t, testutil.Exists[models.User](t, db, leaving.ID))
	assert.False(t, testutil.Exists[models.Post](t, db, ownPost.ID))
	assert.False(t, testutil.Exists[models.Comment](t, db, ownComment.ID))
	assert.False(t, testutil.Exists[models.Comment](t, db, reply.ID), "replies go with their parent")
	assert.True(t, testutil.Exists[models.Comment](t, db, kept.ID))

	post := testutil.Reload[models.Post](t, db, otherPost.ID)
	assert.EqualValues(t, 0, post.LikesCount, "retracted like lowers the counter")
	assert.EqualValues(t, 1, post.CommentsCount)

	var favorites int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&favorites).Error)
	assert.Zero(t, favorites)

	assert.ElementsMatch(t, []Affected{
		{UserID: staying.ID, Kind: models.EntityPost},
		{UserID: staying.ID, Kind: models.EntityComment},
	}, affected)

	_, err = repo.Delete(ctx, leaving.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	low := testutil.CreateUser(t, db, "low")
	high := testutil.CreateUser(t, db, "high")
	require.NoError(t, db.Model(high).UpdateColumn("publisher_rating", "8.50").Error)

	page, err := repo.List(context.Background(), query.Options{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, high.ID, page.Items[0].ID)
	assert.Equal(t, low.ID, page.Items[1].ID)
}
