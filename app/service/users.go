package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/auth"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
)

const minPasswordLength = 8

type loginRequest interface {
	GetEmail() string
	GetPassword() string
}

type createUserRequest interface {
	GetEmail() string
	GetFullName() string
	GetPassword() string
	GetRole() string
}

type updateUserRequest interface {
	GetFullName() string
	GetPassword() string
	GetRole() string
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
}

type tokenIssuer interface {
	Issue(userID, email, role string) (string, time.Time, error)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

type UserService struct {
	users  userRepository
	tokens tokenIssuer
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewUserService(users userRepository, tokens tokenIssuer) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: factory.NewModuleLogger("user_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Login(ctx context.Context, req loginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.GetEmail())
	if email == "" || req.GetPassword() == "" {
		return nil, validationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, req.GetPassword()); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, kindError(ErrUnauthorized, "user no longer exists")
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) CreateUser(ctx context.Context, req createUserRequest) (*entity.User, error) {
	email := normalizeEmail(req.GetEmail())
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, validationError("a valid email is required")
	}
	role, err := normalizeRole(req.GetRole())
	if err != nil {
		return nil, err
	}
	hash, err := hashNewPassword(req.GetPassword())
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     normalizeOptionalString(req.GetFullName()),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

// UpdateUser changes name and role; the password only when a new one is given.
func (s *UserService) UpdateUser(ctx context.Context, id string, req updateUserRequest) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, kindError(ErrNotFound, "user not found")
	}

	role, err := normalizeRole(req.GetRole())
	if err != nil {
		return nil, err
	}
	if req.GetPassword() != "" {
		hash, err := hashNewPassword(req.GetPassword())
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.FullName = normalizeOptionalString(req.GetFullName())
	user.Role = role
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validationError("id is required")
	}
	if id == actorID {
		return ErrCannotDeleteSelf
	}
	return translateRepoError(s.users.Delete(ctx, id))
}

// EnsureAdmin creates the account or promotes an existing one and resets its
// password. Used to bootstrap the first dashboard login.
func (s *UserService) EnsureAdmin(ctx context.Context, email, fullName, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.CreateUser(ctx, adminBootstrap{email: email, fullName: fullName, password: password})
	}

	hash, err := hashNewPassword(password)
	if err != nil {
		return nil, err
	}
	existing.PasswordHash = hash
	existing.Role = entity.RoleAdmin
	if strings.TrimSpace(fullName) != "" {
		existing.FullName = normalizeOptionalString(fullName)
	}
	existing.UpdatedAt = s.now()
	if err := s.users.Update(ctx, existing); err != nil {
		return nil, translateRepoError(err)
	}
	s.logger.WithField("user_id", existing.ID).Info("existing user promoted to admin")
	return existing, nil
}

type adminBootstrap struct {
	email    string
	fullName string
	password string
}

func (a adminBootstrap) GetEmail() string    { return a.email }
func (a adminBootstrap) GetFullName() string { return a.fullName }
func (a adminBootstrap) GetPassword() string { return a.password }
func (a adminBootstrap) GetRole() string     { return entity.RoleAdmin }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", entity.RoleUser:
		return entity.RoleUser, nil
	case entity.RoleAdmin:
		return entity.RoleAdmin, nil
	default:
		return "", validationError("role must be admin or user")
	}
}

func hashNewPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("password must have at least %d characters", minPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return "", validationError("invalid password")
		}
		return "", err
	}
	return hash, nil
}
