package service

import (
	"context"
	"testing"

	"usof/internal/models"
	"usof/internal/query"
	"usof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	getByLoginFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	setRoleFn    func(context.Context, uint, models.Role) error
	deleteFn     func(context.Context, uint) ([]repository.Affected, error)
	listFn       func(context.Context, query.Options) (query.Page[models.User], error)
	listByRoleFn func(context.Context, models.Role) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getByLoginFn(ctx, login)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.Role) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) ([]repository.Affected, error) {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, opts query.Options) (query.Page[models.User], error) {
	return s.listFn(ctx, opts)
}
func (s *userRepoStub) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return s.listByRoleFn(ctx, role)
}

// noopUserRepo knows a single user, alice.
func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			if id != alice.ID {
				return nil, models.NewNotFoundError("User", id)
			}
			return &models.User{ID: id, Login: "alice", Email: "alice@example.com", Role: models.RoleUser}, nil
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByLoginFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, u *models.User) error { u.ID = 42; return nil },
		updateFn:     func(context.Context, *models.User) error { return nil },
		setRoleFn:    func(context.Context, uint, models.Role) error { return nil },
		deleteFn:     func(context.Context, uint) ([]repository.Affected, error) { return nil, nil },
		listFn: func(context.Context, query.Options) (query.Page[models.User], error) {
			return query.Page[models.User]{}, nil
		},
		listByRoleFn: func(context.Context, models.Role) ([]models.User, error) { return nil, nil },
	}
}

func newUserService(repo *userRepoStub) (*UserService, *schedulerStub) {
	scheduler := &schedulerStub{}
	svc := NewUserService(repo, scheduler)
	svc.hashCost = bcrypt.MinCost
	return svc, scheduler
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	valid := CreateUserInput{Actor: admin, Login: "grace", Password: "Compiler1", Email: "grace@example.com"}

	t.Run("admin only", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(noopUserRepo())
		in := valid
		in.Actor = alice
		_, err := svc.CreateUser(bgCtx, in)
		assertForbiddenError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(noopUserRepo())
		for _, mutate := range []func(*CreateUserInput){
			func(in *CreateUserInput) { in.Login = "gr" },
			func(in *CreateUserInput) { in.Email = "grace" },
			func(in *CreateUserInput) { in.Password = "weak" },
			func(in *CreateUserInput) { in.Role = "root" },
		} {
			in := valid
			mutate(&in)
			_, err := svc.CreateUser(bgCtx, in)
			assertValidationError(t, err)
		}
	})

	t.Run("hashes the password", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var stored *models.User
		repo.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 42
			stored = u
			return nil
		}
		svc, _ := newUserService(repo)
		user, err := svc.CreateUser(bgCtx, valid)
		require.NoError(t, err)
		assert.Equal(t, uint(42), user.ID)
		assert.Equal(t, models.RoleUser, stored.Role)
		assert.NotEqual(t, "Compiler1", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Compiler1")))
	})

	t.Run("duplicate login passes conflict through", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.createFn = func(context.Context, *models.User) error {
			return models.NewConflictError("User with this login or email already exists")
		}
		svc, _ := newUserService(repo)
		_, err := svc.CreateUser(bgCtx, valid)
		assertCode(t, err, models.CodeConflict)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	t.Run("other users are forbidden", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(noopUserRepo())
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: bob, UserID: alice.ID, FullName: ptr("Bob Builder")})
		assertForbiddenError(t, err)
	})

	t.Run("role change is admin only", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(noopUserRepo())
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, Role: ptr(models.RoleAdmin)})
		assertForbiddenError(t, err)
		_, err = svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, Verified: ptr(true)})
		assertForbiddenError(t, err)
	})

	t.Run("partial update keeps the stored hash", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var saved *models.User
		repo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc, _ := newUserService(repo)
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, FullName: ptr("Alice Liddell")})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "Alice Liddell", saved.FullName)
		assert.Equal(t, "alice", saved.Login)
		assert.Empty(t, saved.Password, "an empty password is not written")
	})

	t.Run("new password is hashed", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var saved *models.User
		repo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc, _ := newUserService(repo)
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, Password: ptr("Rabbit1hole")})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("Rabbit1hole")))

		_, err = svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, Password: ptr("short")})
		assertValidationError(t, err)
	})

	t.Run("admin promotes through SetRole", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var gotRole models.Role
		repo.setRoleFn = func(_ context.Context, id uint, role models.Role) error {
			assert.Equal(t, alice.ID, id)
			gotRole = role
			return nil
		}
		svc, _ := newUserService(repo)
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: admin, UserID: alice.ID, Role: ptr(models.RoleAdmin)})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, gotRole)
	})

	t.Run("bad login", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserService(noopUserRepo())
		_, err := svc.UpdateUser(bgCtx, UpdateUserInput{Actor: alice, UserID: alice.ID, Login: ptr("a b")})
		assertValidationError(t, err)
	})
}

func TestUserService_SetRole(t *testing.T) {
	t.Parallel()

	svc, _ := newUserService(noopUserRepo())
	assertForbiddenError(t, svc.SetRole(bgCtx, alice, bob.ID, models.RoleAdmin))
	assertUnauthorizedError(t, svc.SetRole(bgCtx, anon, bob.ID, models.RoleAdmin))
	assertValidationError(t, svc.SetRole(bgCtx, admin, bob.ID, "owner"))
	assert.NoError(t, svc.SetRole(bgCtx, admin, bob.ID, models.RoleUser))
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	affected := []repository.Affected{{UserID: bob.ID, Kind: models.EntityPost}}
	repo.deleteFn = func(context.Context, uint) ([]repository.Affected, error) { return affected, nil }
	svc, scheduler := newUserService(repo)

	assertForbiddenError(t, svc.DeleteUser(bgCtx, bob, alice.ID))
	require.NoError(t, svc.DeleteUser(bgCtx, admin, alice.ID))
	assert.Equal(t, affected, scheduler.jobs)
}

func TestUserService_ResolveActor(t *testing.T) {
	t.Parallel()

	svc, _ := newUserService(noopUserRepo())
	actor, err := svc.ResolveActor(bgCtx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, actor)

	_, err = svc.ResolveActor(bgCtx, 77)
	assertUnauthorizedError(t, err)

	repo := noopUserRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.User, error) { return nil, models.NewInternalError(errBoom) }
	svc, _ = newUserService(repo)
	_, err = svc.ResolveActor(bgCtx, alice.ID)
	assertCode(t, err, models.CodeInternal)
}
