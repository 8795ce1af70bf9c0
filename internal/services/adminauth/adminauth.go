// Package adminauth проверяет доступ к админским маршрутам: выдаёт токен по
// email и паролю и разбирает токен из cookie или заголовка Authorization.
package adminauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	customjwt "github.com/magabrotheeeer/skiniq/internal/lib/jwt"
	"github.com/magabrotheeeer/skiniq/internal/lib/password"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/storage"
)

// CookieName имя cookie с токеном администратора.
const CookieName = "admin_token"

// Причины отказа в Session.Error. Наружу уходит только "unauthorized".
const (
	MsgMissingToken     = "missing token"
	MsgTokenExpired     = "token expired"
	MsgInvalidSignature = "invalid signature"
	MsgInvalidIssuer    = "invalid issuer"
	MsgInvalidAudience  = "invalid audience"
	MsgMalformedToken   = "malformed token"
	MsgMissingAdminID   = "missing admin id"
	MsgInvalidToken     = "invalid token"
	MsgNotConfigured    = "server misconfiguration"
)

var (
	// ErrInvalidCredentials одинакова для неизвестного email и неверного пароля.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured секрет подписи не задан.
	ErrNotConfigured = errors.New("server misconfiguration")
)

// AdminRepository источник учётных записей администраторов.
type AdminRepository interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// Session результат проверки токена. Verify никогда не возвращает error:
// при отказе Valid=false, а Error содержит причину для логов.
type Session struct {
	Valid   bool   `json:"valid"`
	AdminID string `json:"adminId,omitempty"`
	Role    string `json:"role,omitempty"`
	Error   string `json:"-"`
}

// NotConfigured сообщает, что отказ вызван отсутствием секрета, а не токеном.
func (s Session) NotConfigured() bool {
	return s.Error == MsgNotConfigured
}

// LoginResult данные успешного входа.
type LoginResult struct {
	Token   string
	AdminID string
	Role    string
}

type Service struct {
	admins   AdminRepository
	jwtMaker customjwt.Maker
	log      *slog.Logger
}

func New(admins AdminRepository, jwtMaker customjwt.Maker, log *slog.Logger) *Service {
	return &Service{
		admins:   admins,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Login проверяет email и пароль и выпускает токен. Для неизвестного email
// выполняется холостое сравнение bcrypt, ответ совпадает с неверным паролем.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "adminauth.Login"
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = password.CompareDummy(rawPassword)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(admin.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		if errors.Is(err, customjwt.ErrNoSecret) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{Token: token, AdminID: admin.ID, Role: admin.Role}, nil
}

// Verify разбирает токен и возвращает сессию.
func (s *Service) Verify(token string) Session {
	if token == "" {
		return Session{Error: MsgMissingToken}
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return Session{Error: reason(err)}
	}
	if claims.AdminID == "" {
		return Session{Error: MsgMissingAdminID}
	}
	return Session{Valid: true, AdminID: claims.AdminID, Role: claims.Role}
}

// VerifyRequest достаёт токен из запроса и проверяет его.
func (s *Service) VerifyRequest(r *http.Request) Session {
	session := s.Verify(TokenFromRequest(r))
	if !session.Valid {
		s.log.Debug("admin session rejected",
			slog.String("op", "adminauth.VerifyRequest"),
			slog.String("reason", session.Error),
			slog.String("path", r.URL.Path),
		)
	}
	return session
}

// IsAdmin true, если запрос несёт валидный админский токен.
func (s *Service) IsAdmin(r *http.Request) bool {
	return s.VerifyRequest(r).Valid
}

// TokenFromRequest берёт токен из cookie admin_token, иначе из Authorization: Bearer.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// SessionCookie cookie с токеном на ttl.
func SessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie удаляет cookie на клиенте.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, customjwt.ErrNoSecret):
		return MsgNotConfigured
	case errors.Is(err, jwt.ErrTokenExpired):
		return MsgTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return MsgInvalidSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return MsgInvalidIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return MsgInvalidAudience
	case errors.Is(err, jwt.ErrTokenMalformed):
		return MsgMalformedToken
	default:
		return MsgInvalidToken
	}
}

