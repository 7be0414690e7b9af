package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"akstore/internal/apperr"
	"akstore/internal/domain/user"
)

var errInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid credentials")

// Service checks credentials and creates customer accounts.
type Service struct {
	users *UserRepo
	now   func() time.Time
}

func NewService(users *UserRepo) *Service {
	return &Service{users: users, now: time.Now}
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// Login does not tell an unknown email apart from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, error) {
	u, hash, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if apperr.Is(err, apperr.NotFound) {
		return user.User{}, errInvalidCredentials
	}
	if err != nil {
		return user.User{}, err
	}
	if !CheckPassword(hash, password) {
		return user.User{}, errInvalidCredentials
	}
	return u, nil
}

func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return user.User{}, apperr.Invalid("name is required")
	case email == "" || !strings.Contains(email, "@"):
		return user.User{}, apperr.Invalid("a valid email is required")
	case req.Password == "":
		return user.User{}, apperr.Invalid("password is required")
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if exists {
		return user.User{}, apperr.Conflictf("email %s is already registered", email)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return user.User{}, err
	}
	addrs := []string{}
	if a := strings.TrimSpace(req.Address); a != "" {
		addrs = append(addrs, a)
	}
	// the UNIQUE index still catches a concurrent registration that slipped past the check above
	return s.users.Create(ctx, user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Addresses: addrs,
		Role:      user.RoleCustomer,
		CreatedAt: s.now().UnixMilli(),
	}, hash)
}
