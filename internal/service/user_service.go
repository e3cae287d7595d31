package service

import (
	"context"
	"fmt"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  repository.UserRepository
	scheduler rating.Scheduler
	hashCost  int
}

type CreateUserInput struct {
	Actor          policy.Actor
	Login          string
	Password       string
	FullName       string
	Email          string
	Verified       bool
	ProfilePicture string
	Role           models.Role
}

// UpdateUserInput carries a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Actor          policy.Actor
	UserID         uint
	Login          *string
	Password       *string
	FullName       *string
	Email          *string
	Verified       *bool
	ProfilePicture *string
	Role           *models.Role
}

func NewUserService(userRepo repository.UserRepository, scheduler rating.Scheduler) *UserService {
	return &UserService{userRepo: userRepo, scheduler: scheduler, hashCost: bcrypt.DefaultCost}
}

func (s *UserService) hash(password string) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func validRole(role models.Role) error {
	if role != models.RoleAdmin && role != models.RoleUser {
		return models.NewValidationError(fmt.Sprintf("Invalid role %q", role))
	}
	return nil
}

// checkIdentity validates the fields that identify an account.
func checkIdentity(login, email string) error {
	if err := validation.ValidateLogin(login); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, opts query.Options) (query.Page[models.User], error) {
	return s.userRepo.List(ctx, opts)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ResolveActor turns an authenticated user id into an actor with the role
// currently stored. A user deleted since the token was issued is
// unauthorized.
func (s *UserService) ResolveActor(ctx context.Context, id uint) (policy.Actor, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return policy.Anonymous, models.NewUnauthorizedError("User no longer exists")
		}
		return policy.Anonymous, err
	}
	return policy.ActorFor(user), nil
}

// CreateUser registers an account on behalf of an admin.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !policy.IsAdmin(in.Actor) {
		return nil, deny(in.Actor, "Only admins can create users")
	}
	if err := checkIdentity(in.Login, in.Email); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if err := validRole(role); err != nil {
		return nil, err
	}
	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Login:          in.Login,
		Password:       hashed,
		FullName:       in.FullName,
		Email:          in.Email,
		Verified:       in.Verified,
		ProfilePicture: in.ProfilePicture,
		Role:           role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits a profile. Users edit themselves; admins edit anyone and
// alone may change roles and the verified flag.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if !policy.CanMutateUser(in.Actor, in.UserID) {
		return nil, deny(in.Actor, "You can only edit your own profile")
	}
	admin := policy.IsAdmin(in.Actor)
	if (in.Role != nil || in.Verified != nil) && !admin {
		return nil, models.NewForbiddenError("Only admins can change roles or verification")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Login != nil {
		user.Login = *in.Login
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if err := checkIdentity(user.Login, user.Email); err != nil {
		return nil, err
	}
	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = *in.ProfilePicture
	}
	if in.Verified != nil {
		user.Verified = *in.Verified
	}
	// The cached copy carries no hash; an empty password leaves it as is.
	user.Password = ""
	if in.Password != nil {
		if user.Password, err = s.hash(*in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if in.Role != nil && *in.Role != user.Role {
		if err := s.SetRole(ctx, in.Actor, user.ID, *in.Role); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// SetRole promotes or demotes a user.
func (s *UserService) SetRole(ctx context.Context, actor policy.Actor, id uint, role models.Role) error {
	if !policy.IsAdmin(actor) {
		return deny(actor, "Only admins can change roles")
	}
	if err := validRole(role); err != nil {
		return err
	}
	return s.userRepo.SetRole(ctx, id, role)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

// DeleteUser removes the account with its posts, comments, reactions and
// favorites, then refreshes the ratings of users who lost votes.
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Actor, id uint) error {
	if !policy.CanMutateUser(actor, id) {
		return deny(actor, "You can only delete your own account")
	}
	affected, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	scheduleAffected(ctx, s.scheduler, affected)
	return nil
}
