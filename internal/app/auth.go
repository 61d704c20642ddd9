package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"guest_reviews/internal/domain"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// CanModerate reports whether the role may read the full review set and
// record moderation decisions.
func (r Role) CanModerate() bool { return r == RoleAdmin || r == RoleManager }

type Manager struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	hash []byte
}

// Seed is one account created at startup.
type Seed struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies bearer tokens for the seeded managers.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	byEmail map[string]*Manager
	byID    map[string]*Manager
}

func NewAuthService(secret string, ttl time.Duration, seeds ...Seed) (*AuthService, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &AuthService{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		byEmail: map[string]*Manager{},
		byID:    map[string]*Manager{},
	}
	for _, sd := range seeds {
		if err := s.add(sd); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *AuthService) add(sd Seed) error {
	email := normalizeEmail(sd.Email)
	if email == "" || sd.Password == "" {
		return domain.Invalid("email", "seed account needs email and password")
	}
	if !sd.Role.CanModerate() {
		return domain.Invalid("role", fmt.Sprintf("unknown role %q", sd.Role))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(sd.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	m := &Manager{ID: uuid.NewString(), Email: email, Name: sd.Name, Role: sd.Role, CreatedAt: s.now().UTC(), hash: hash}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[email] = m
	s.byID[m.ID] = m
	return nil
}

// Login checks credentials and returns a signed token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(email, password string) (string, Manager, error) {
	s.mu.RLock()
	m, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return "", Manager{}, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(m.hash, []byte(password)); err != nil {
		return "", Manager{}, domain.ErrUnauthorized
	}

	now := s.now()
	claims := Claims{
		Email: m.Email,
		Role:  m.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Manager{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return tok, *m, nil
}

// Parse verifies signature and expiry.
func (s *AuthService) Parse(token string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return c, nil
}

func (s *AuthService) Profile(id string) (Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return Manager{}, domain.ErrNotFound
	}
	return *m, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
