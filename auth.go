package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL         = 30 * 24 * time.Hour
	minPasswordLen   = 6
	maxUsernameLen   = 20
	loginWindow      = time.Minute
	loginMaxAttempts = 10
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrBadUsername        = errors.New("username must be 2-20 letters, digits or underscores")
	ErrBadPassword        = errors.New("password too short")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Auth handles account registration, login and JWT session tokens. The
// signing secret is generated once and persisted in the settings table so
// tokens survive restarts.
type Auth struct {
	db     *DB
	secret []byte

	mu       sync.Mutex
	attempts map[string][]time.Time // login attempts per IP
}

func NewAuth(db *DB) (*Auth, error) {
	secret, err := db.GetSetting("jwt_secret")
	if err != nil {
		return nil, err
	}
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		if err := db.SetSetting("jwt_secret", secret); err != nil {
			return nil, err
		}
	}
	return &Auth{
		db:       db,
		secret:   []byte(secret),
		attempts: make(map[string][]time.Time),
	}, nil
}

// Secret exposes the signing key; score packets reuse it for HMAC signing.
func (a *Auth) Secret() []byte {
	return a.secret
}

func validUsername(name string) bool {
	if len(name) < 2 || len(name) > maxUsernameLen {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

// Register creates an account and returns its id and a session token.
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return 0, "", ErrBadUsername
	}
	if len(password) < minPasswordLen {
		return 0, "", ErrBadPassword
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", err
	}
	if exists {
		return 0, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		return 0, "", err
	}
	token, err := a.generateToken(id, username)
	return id, token, err
}

// Login checks credentials and returns the account id and a session token.
// Attempts are rate-limited per IP.
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.allowAttempt(ip) {
		return 0, "", ErrTooManyAttempts
	}

	p, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if errors.Is(err, ErrPlayerNotFound) {
		return 0, "", ErrInvalidCredentials
	}
	if err != nil {
		return 0, "", err
	}
	if p.IsGuest || bcrypt.CompareHashAndPassword([]byte(p.PassHash), []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	token, err := a.generateToken(p.ID, p.Username)
	return p.ID, token, err
}

// GuestAccount creates a throwaway account for an unauthenticated player so
// its runs can still be persisted.
func (a *Auth) GuestAccount(name string) (int64, string, error) {
	base := strings.TrimSpace(name)
	if !validUsername(base) {
		base = "pilot"
	}
	// Suffix until unique; guests share the players namespace.
	for i := 0; i < 20; i++ {
		candidate := fmt.Sprintf("%s_%s", base, GenerateID(3))
		exists, err := a.db.UsernameExists(candidate)
		if err != nil {
			return 0, "", err
		}
		if exists {
			continue
		}
		id, err := a.db.CreateGuest(candidate)
		if err != nil {
			return 0, "", err
		}
		return id, candidate, nil
	}
	return 0, "", errors.New("could not allocate guest name")
}

func (a *Auth) generateToken(id int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id,
		"name": username,
		"exp":  time.Now().Add(tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a session token and returns the account id and name.
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid subject")
	}
	name, _ := claims["name"].(string)
	return int64(sub), name, nil
}

func (a *Auth) allowAttempt(ip string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	recent := a.attempts[ip][:0]
	for _, t := range a.attempts[ip] {
		if now.Sub(t) < loginWindow {
			recent = append(recent, t)
		}
	}
	if len(recent) >= loginMaxAttempts {
		a.attempts[ip] = recent
		return false
	}
	a.attempts[ip] = append(recent, now)
	return true
}
