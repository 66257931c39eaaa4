package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrWeakSecret секрет не base64 или короче 32 байт
	ErrWeakSecret = errors.New("secret key must be base64 of at least 32 bytes")
	// ErrInvalidToken токен не прошёл проверку
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownRole неизвестная роль
	ErrUnknownRole = errors.New("unknown role")
)

// Role право доступа к песочнице
type Role string

const (
	RoleBuilder Role = "builder" // может изменять сцену
	RoleViewer  Role = "viewer"  // только чтение
)

// ParseRole проверяет имя роли
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBuilder, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// DefaultTTL срок жизни токена по умолчанию
const DefaultTTL = 24 * time.Hour

const issuer = "brick-sandbox"

// Claims represents JWT claims
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// CanBuild разрешены ли мутации сцены
func (c *Claims) CanBuild() bool {
	return c.Role == RoleBuilder
}

// TokenIssuer выпускает и проверяет HS256-токены на общем секрете
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт издателя из base64-секрета (не короче 32 байт)
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakSecret, err)
	}
	if len(decoded) < 32 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenIssuer{secret: decoded, ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token for subject with the given role
func (ti *TokenIssuer) Issue(subject string, role Role) (string, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return "", err
	}
	now := ti.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate checks token validity and returns its claims
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(ti.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// GenerateSecureSecret generates a new secure secret key
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
