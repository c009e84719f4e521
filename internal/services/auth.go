package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

const MinPasswordLength = 8

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Auth struct {
	deps   Deps
	secret []byte
	ttl    time.Duration
}

func NewAuth(d Deps, secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Auth{deps: d.withDefaults(), secret: []byte(secret), ttl: ttl}
}

// Register creates a regular user account.
func (a *Auth) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return a.createUser(ctx, name, email, password, models.RoleUser)
}

// RegisterAdmin is used by the seed command to bootstrap an operator.
func (a *Auth) RegisterAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return a.createUser(ctx, name, email, password, models.RoleAdmin)
}

func (a *Auth) createUser(ctx context.Context, name, email, password, role string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		UserID:       a.deps.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    a.deps.Now(),
	}
	if err := a.deps.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues a signed token. Unknown email and
// wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := a.deps.Store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
	}
	token, err := a.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (a *Auth) IssueToken(u *models.User) (string, error) {
	now := a.deps.Now()
	claims := &Claims{
		UserID: u.UserID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns the identity it carries.
func (a *Auth) ParseToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.deps.Now))
	if err != nil || !token.Valid || claims.UserID == "" {
		return Identity{}, apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	return Identity{UserID: claims.UserID, Role: role}, nil
}
