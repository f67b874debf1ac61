package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

const bcryptCost = 12

type User struct {
	ID           string `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

// CreateUser stores a new user with a bcrypt hash of password.
func (s *SQLStore) CreateUser(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || role == "" {
		return User{}, errors.New("username, password and role required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, PasswordHash: string(hash), Role: role}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES (?,?,?,?,?)`),
		u.ID, u.Username, u.PasswordHash, u.Role, s.now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, errors.Wrap(err, "create user")
	}
	return u, nil
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT id, username, password_hash, role FROM users WHERE username=?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// Authenticate returns the user if password matches the stored hash.
func (s *SQLStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
