// Package jwt выпускает и проверяет токены администратора.
//
// Токен подписывается HS256 и содержит adminId, необязательную роль,
// issuer skiniq-admin и audience skiniq-admin-ui. Срок жизни задаётся при
// создании Maker (по умолчанию 7 дней), списка отзыва нет.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer значение iss во всех админских токенах.
	Issuer = "skiniq-admin"
	// Audience значение aud во всех админских токенах.
	Audience = "skiniq-admin-ui"
	// DefaultTTL срок жизни токена при выдаче.
	DefaultTTL = 7 * 24 * time.Hour
)

// ErrNoSecret возвращается, если ключ подписи не сконфигурирован.
var ErrNoSecret = errors.New("admin token secret is not configured")

// AdminClaims описывает содержимое админского токена.
type AdminClaims struct {
	AdminID string `json:"adminId"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Maker описывает выпуск и разбор админских токенов.
type Maker interface {
	GenerateToken(adminID, role string) (string, error)
	ParseToken(tokenStr string) (*AdminClaims, error)
}

// MakerImpl реализует Maker на общем секрете.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) { m.now = now }
}

// NewJWTMaker создаёт Maker. Нулевой ttl заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) *MakerImpl {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	m := &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL возвращает срок жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}

// GenerateToken подписывает токен для администратора.
func (j *MakerImpl) GenerateToken(adminID, role string) (string, error) {
	const op = "jwt.GenerateToken"
	if j.secretKey == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoSecret)
	}
	now := j.now()
	claims := AdminClaims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, iss, aud и срок действия.
// Ошибки оборачивают сентинелы golang-jwt (jwt.ErrTokenExpired и т.п.),
// поэтому вызывающий код различает причину через errors.Is.
func (j *MakerImpl) ParseToken(tokenStr string) (*AdminClaims, error) {
	const op = "jwt.ParseToken"
	if j.secretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSecret)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, &AdminClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
