package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"rallypoint/database"
	"rallypoint/models"
)

const incorrectCredentials = "Incorrect email or password."

// Actor identifies who performs a request.
type Actor struct {
	UserID uint
	IP     string
}

type AuthService struct {
	store  *database.Store
	hasher *PasswordHasher
	tokens *TokenManager
	cache  *ProfileCache
	log    *zap.Logger

	// compared against when the email is unknown so both login failures cost
	// one bcrypt comparison
	dummyHash string
}

func NewAuthService(store *database.Store, hasher *PasswordHasher, tokens *TokenManager, cache *ProfileCache, log *zap.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash("Rallypoint-unknown-account-0")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		cache:     cache,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register creates an account. The password check runs before anything else
// so a weak password is rejected whatever the other fields contain.
func (s *AuthService) Register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	if err := ValidatePassword(input.Password); err != nil {
		return nil, invalidInput("Invalid password: " + err.Error())
	}

	email := NormalizeEmail(input.Email)
	if !ValidateEmail(email) {
		return nil, invalidInput("A valid email is required")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, invalidInput("Username is required")
	}
	if tooLong(username, maxUsernameLength) {
		return nil, invalidInput("Username must be at most 50 characters")
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, internal(err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, conflict("Invalid request. The email already exists.")
		}
		return nil, internal(err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// Login returns a session token. Unknown email and wrong password produce
// the same Forbidden error.
func (s *AuthService) Login(ctx context.Context, input models.LoginInput) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, NormalizeEmail(input.Email))
	if errors.Is(err, database.ErrNotFound) {
		s.hasher.Verify(s.dummyHash, input.Password)
		return "", forbidden(incorrectCredentials)
	}
	if err != nil {
		return "", internal(err)
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		return "", forbidden(incorrectCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", internal(err)
	}

	s.log.Info("user logged in", zap.Uint("user_id", user.ID))
	return token, nil
}

// Profile returns the caller's public fields. A user that vanished after the
// token was issued is reported as an internal error.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	if profile, ok := s.cache.Get(ctx, userID); ok {
		return profile, nil
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}

	profile := user.ToResponse()
	s.cache.Set(ctx, profile)
	return &profile, nil
}
