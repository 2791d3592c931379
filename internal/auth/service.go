package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"centavo/internal/core"
)

// invalidCredentials is shown for both unknown-email and wrong-password
// logins so the response does not reveal which accounts exist.
const invalidCredentials = "Invalid email or password"

const (
	maxNameLen     = 100
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user core.User) error
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
}

// Result reports the outcome of a register or login attempt in a form
// the handlers can render directly.
type Result struct {
	Success     bool
	Message     string
	FieldErrors map[string]string
	Token       string
	UserID      string
}

// RegisterInput carries a registration form submission.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginInput carries a login form submission.
type LoginInput struct {
	Email    string
	Password string
}

// Service implements registration and login on top of a UserStore and
// a TokenIssuer.
type Service struct {
	store  UserStore
	tokens *TokenIssuer
	logger *slog.Logger
}

func NewService(store UserStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in RegisterInput) validate() map[string]string {
	fieldErrs := make(map[string]string)
	if in.Name == "" {
		fieldErrs["name"] = "Name is required"
	} else if utf8.RuneCountInString(in.Name) > maxNameLen {
		fieldErrs["name"] = fmt.Sprintf("Name must be %d characters or less", maxNameLen)
	}
	if in.Email == "" {
		fieldErrs["email"] = "Email is required"
	} else if !emailPattern.MatchString(in.Email) {
		fieldErrs["email"] = "Enter a valid email address"
	}
	if len(in.Password) < minPasswordLen {
		fieldErrs["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLen)
	} else if len(in.Password) > maxPasswordLen {
		fieldErrs["password"] = fmt.Sprintf("Password must be %d characters or less", maxPasswordLen)
	}
	if in.ConfirmPassword != in.Password {
		fieldErrs["confirmPassword"] = "Passwords do not match"
	}
	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}

// Register creates a new account and returns a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	in.normalize()
	if fieldErrs := in.validate(); fieldErrs != nil {
		return Result{Message: "Please fix the errors below", FieldErrors: fieldErrs}, nil
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Result{}, err
	}

	user := core.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			return Result{Message: "Email already registered", FieldErrors: map[string]string{"email": "Email already registered"}}, nil
		}
		return Result{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return Result{Success: true, Token: token, UserID: user.ID}, nil
}

// Login verifies the credentials and returns a session token. Unknown
// email and wrong password produce the same message; a hash comparison
// runs in both cases to keep response timing uniform.
func (s *Service) Login(ctx context.Context, in LoginInput) (Result, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return Result{Message: invalidCredentials}, nil
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			CheckPassword(in.Password, dummyHash)
			return Result{Message: invalidCredentials}, nil
		}
		return Result{}, fmt.Errorf("get user: %w", err)
	}

	if !CheckPassword(in.Password, user.PasswordHash) {
		return Result{Message: invalidCredentials}, nil
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return Result{Success: true, Token: token, UserID: user.ID}, nil
}

// dummyHash is a valid cost-12 bcrypt hash compared against when the
// email is unknown, so both login failure paths cost about the same.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// CurrentUser resolves a session token to the user it was issued for.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrUnauthorized
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
