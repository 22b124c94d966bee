package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultRoleClaim - claim с ролью в токенах внешнего провайдера.
const DefaultRoleClaim = "user_role"

// Verifier проверяет токены, выпущенные внешним провайдером (HS256).
type Verifier struct {
	secret    []byte
	roleClaim string
}

func NewVerifier(secret, roleClaim string) *Verifier {
	if roleClaim == "" {
		roleClaim = DefaultRoleClaim
	}
	return &Verifier{secret: []byte(secret), roleClaim: roleClaim}
}

// Verify разбирает токен и возвращает зрителя. sub - ID пользователя.
func (v *Verifier) Verify(tokenString string) (domain.Viewer, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Anonymous, apperr.Unauthenticated("invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Anonymous, apperr.Unauthenticated("invalid token claims", nil)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Anonymous, apperr.Unauthenticated("token has no subject", err)
	}

	return domain.Viewer{UserID: sub, Role: domain.ParseRole(v.role(claims))}, nil
}

// role ищет роль на верхнем уровне, затем в app_metadata.
func (v *Verifier) role(claims jwt.MapClaims) string {
	if r, ok := claims[v.roleClaim].(string); ok {
		return r
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if r, ok := meta[v.roleClaim].(string); ok {
			return r
		}
	}
	return ""
}

// Issue подписывает токен тем же секретом. Нужен для локальной разработки и тестов.
func (v *Verifier) Issue(userID string, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       userID,
		v.roleClaim: string(role),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type contextKey string

const viewerKey = contextKey("viewer")

// WithViewer кладёт зрителя в контекст.
func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFrom достаёт зрителя из контекста. По умолчанию - аноним.
func ViewerFrom(ctx context.Context) domain.Viewer {
	if v, ok := ctx.Value(viewerKey).(domain.Viewer); ok {
		return v
	}
	return domain.Anonymous
}

// ErrorWriter отдаёт ошибку клиенту.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware определяет зрителя по заголовку Authorization. Без заголовка
// запрос идёт анонимно, с негодным токеном - 401.
func Middleware(verifier *Verifier, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), domain.Anonymous)))
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeErr(w, r, apperr.Unauthenticated("malformed authorization header", errors.New(scheme)))
				return
			}

			viewer, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}
