// README: User service handles registration, login and the bootstrap admin account.
package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	Reset(ctx context.Context, username string, hash []byte, role string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(uid, role string) (string, error)
}

type Service struct {
	repo   Repository
	issuer TokenIssuer
	cost   int
}

func NewService(repo Repository, issuer TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer, cost: bcrypt.DefaultCost}
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) normalize() (Credentials, error) {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return c, ErrBadRequest
	}
	return c, nil
}

func (s *Service) Register(ctx context.Context, creds Credentials) (*Session, error) {
	creds, err := creds.normalize()
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(creds.Username) > 64 || len(creds.Password) < 6 || len(creds.Password) > 72 {
		return nil, ErrBadRequest
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Username: creds.Username, PasswordHash: hash, Role: RoleUser}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	creds, err := creds.normalize()
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, creds.Username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// EnsureAdmin creates the admin account or resets its password and role.
func (s *Service) EnsureAdmin(ctx context.Context, creds Credentials) error {
	creds, err := creds.normalize()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.repo.Create(ctx, &User{Username: creds.Username, PasswordHash: hash, Role: RoleAdmin})
	if errors.Is(err, ErrUsernameTaken) {
		return s.repo.Reset(ctx, creds.Username, hash, RoleAdmin)
	}
	return err
}

func (s *Service) session(u *User) (*Session, error) {
	token, err := s.issuer.Issue(strconv.FormatInt(u.ID, 10), u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: *u, Token: token}, nil
}
