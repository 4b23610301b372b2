package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/edumatrix/edumatrix-backend/internal/config"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another session is already active, contact your institution to reset")
)

// TokenType distinguishes who a token belongs to.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
	TokenTypeParent  TokenType = "parent"
)

// Claims is the JWT claim set issued by this service. StudentID is set on
// student and parent tokens; Batch only on student tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType       TokenType `json:"token_type"`
	InstitutionCode string    `json:"institution_code"`
	StudentID       int       `json:"student_id,omitempty"`
	Batch           string    `json:"batch,omitempty"`
}

// AuthService issues and validates JWTs and tracks student device sessions
// in Redis.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword bcrypt-hashes a plaintext password at the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword reports ErrInvalidCredentials when password does not match
// hash, hiding the bcrypt detail from callers.
func (s *AuthService) CheckPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateStudentToken issues a student JWT and records its JTI as the
// active session. A student holds one device session at a time; a second
// login fails with ErrSessionAlreadyActive until the institution resets it.
func (s *AuthService) GenerateStudentToken(ctx context.Context, studentID int, institutionCode, batch string) (string, error) {
	sessionKey := config.CacheKey.StudentSessionKey(studentID)

	existing, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read session: %w", err)
	}
	if existing != "" {
		return "", ErrSessionAlreadyActive
	}

	signed, jti, err := s.sign(strconv.Itoa(studentID), Claims{
		TokenType:       TokenTypeStudent,
		InstitutionCode: institutionCode,
		StudentID:       studentID,
		Batch:           batch,
	})
	if err != nil {
		return "", err
	}

	// The session record lives exactly as long as the token it guards.
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// GenerateAdminToken issues a JWT for an institution admin.
func (s *AuthService) GenerateAdminToken(institutionCode string) (string, error) {
	signed, _, err := s.sign(institutionCode, Claims{
		TokenType:       TokenTypeAdmin,
		InstitutionCode: institutionCode,
	})
	return signed, err
}

// GenerateParentToken issues a read-only JWT scoped to one student's records.
func (s *AuthService) GenerateParentToken(studentID int, institutionCode string) (string, error) {
	signed, _, err := s.sign(strconv.Itoa(studentID), Claims{
		TokenType:       TokenTypeParent,
		InstitutionCode: institutionCode,
		StudentID:       studentID,
	})
	return signed, err
}

// sign stamps the registered claims and signs the token, returning the
// signed string and the token's JTI.
func (s *AuthService) sign(subject string, claims Claims) (string, string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// ValidateToken checks a token's signature and expiry and returns its claims.
// The signing method is pinned to HMAC to rule out alg-substitution tokens.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("unexpected claim set")
	}
	return claims, nil
}

// ValidateStudentSession rejects a token whose JTI no longer matches the
// active session, which happens after a reset or a newer login.
func (s *AuthService) ValidateStudentSession(ctx context.Context, studentID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.StudentSessionKey(studentID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return errors.New("session expired or missing")
	case err != nil:
		return fmt.Errorf("read session: %w", err)
	case stored != jti:
		return errors.New("session superseded")
	}
	return nil
}

// ResetStudentSession clears a student's active session so they can log in
// again, typically after losing a device.
func (s *AuthService) ResetStudentSession(ctx context.Context, studentID int) error {
	return s.rdb.Del(ctx, config.CacheKey.StudentSessionKey(studentID)).Err()
}
