package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/store"
)

// ErrMissingFields indicates a required registration field was left empty.
var ErrMissingFields = errors.New("name, email and password are required")

// ErrEmailTaken indicates the registration email is already in use.
var ErrEmailTaken = errors.New("email already registered")

// ErrEmailInUse indicates a profile update collides with another user's email.
var ErrEmailInUse = errors.New("email in use by another user")

// ErrIncorrectCredentials indicates the email/password pair matched no user.
var ErrIncorrectCredentials = errors.New("incorrect email or password")

// ErrNotAuthenticated indicates no session record exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// Service manages the user list and the single active session. Both live in
// the record store; absence of the session record means logged out.
type Service struct {
	store      store.Store
	bcryptCost int
	logger     *zap.Logger
}

// NewService constructs the auth service.
func NewService(s store.Store, bcryptCost int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: s, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a user and logs it straight in, overwriting any active
// session. Passwords are stored as bcrypt hashes.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	if name == "" || email == "" || password == "" {
		return models.Session{}, ErrMissingFields
	}

	users, err := s.Users(ctx)
	if err != nil {
		return models.Session{}, err
	}

	for _, u := range users {
		if u.Email == email {
			return models.Session{}, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.saveUsers(ctx, append(users, user)); err != nil {
		return models.Session{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.establishSession(ctx, user)
}

// Login matches email and password against the stored users and establishes
// the session on success. Any mismatch reports the same error.
func (s *Service) Login(ctx context.Context, email, password string) (models.Session, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return models.Session{}, err
	}

	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		s.logger.Info("user logged in", zap.String("user_id", u.ID))
		return s.establishSession(ctx, u)
	}

	return models.Session{}, ErrIncorrectCredentials
}

// Logout removes the session record. Persisted herd data is untouched.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, store.SessionKey); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// CurrentSession returns the active session, or ErrNotAuthenticated when the
// session record is absent.
func (s *Service) CurrentSession(ctx context.Context) (models.Session, error) {
	raw, ok, err := s.store.Get(ctx, store.SessionKey)
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return models.Session{}, ErrNotAuthenticated
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// UpdateProfile overwrites the active user's name, email and optionally its
// password, then refreshes the denormalized session record.
func (s *Service) UpdateProfile(ctx context.Context, name, email, password string) (models.Session, error) {
	session, err := s.CurrentSession(ctx)
	if err != nil {
		return models.Session{}, err
	}

	users, err := s.Users(ctx)
	if err != nil {
		return models.Session{}, err
	}

	for _, u := range users {
		if u.Email == email && u.ID != session.ID {
			return models.Session{}, ErrEmailInUse
		}
	}

	var updated models.User
	for i, u := range users {
		if u.ID != session.ID {
			continue
		}
		users[i].Name = name
		users[i].Email = email
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
			if err != nil {
				return models.Session{}, fmt.Errorf("hash password: %w", err)
			}
			users[i].PasswordHash = string(hash)
		}
		updated = users[i]
	}

	if err := s.saveUsers(ctx, users); err != nil {
		return models.Session{}, err
	}

	s.logger.Info("profile updated", zap.String("user_id", session.ID))
	return s.establishSession(ctx, updated)
}

// Users loads the full user list. An absent key is an empty list.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	raw, ok, err := s.store.Get(ctx, store.UsersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Service) saveUsers(ctx context.Context, users []models.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := s.store.Set(ctx, store.UsersKey, raw); err != nil {
		return fmt.Errorf("persist users: %w", err)
	}
	return nil
}

func (s *Service) establishSession(ctx context.Context, user models.User) (models.Session, error) {
	session := user.Session()
	raw, err := json.Marshal(session)
	if err != nil {
		return models.Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, store.SessionKey, raw); err != nil {
		return models.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}
