package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	msgMissingUserID = "отсутствует или некорректен заголовок X-User-ID"
	msgInvalidRole   = "некорректная роль в заголовке X-User-Role"
)

type contextKey struct{}

var actorKey = contextKey{}

// Auth требует X-User-ID и X-User-Role; без роли пользователь считается клиентом
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok, err := actorFromHeaders(r)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidRole)
			return
		}
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// OptionalAuth кладёт actor в контекст, если заголовки переданы и корректны
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok, err := actorFromHeaders(r); err == nil && ok {
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor возвращает контекст с actor
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor возвращает actor из контекста
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// GetUserID возвращает id пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	actor, ok := GetActor(ctx)
	if !ok {
		return 0, false
	}
	return actor.UserID, true
}

func actorFromHeaders(r *http.Request) (domain.Actor, bool, error) {
	userID, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
	if err != nil || userID <= 0 {
		return domain.Actor{}, false, nil
	}

	role := domain.RoleUser
	if raw := r.Header.Get(HeaderUserRole); raw != "" {
		role, err = domain.ParseRole(raw)
		if err != nil {
			return domain.Actor{}, false, err
		}
	}

	return domain.Actor{UserID: userID, Role: role}, true, nil
}
