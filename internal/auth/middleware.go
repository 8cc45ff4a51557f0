package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/utils"

	"github.com/samber/lo"
)

type actorKey struct{}

// WithActor сохраняет пользователя в контексте запроса.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext возвращает пользователя, сохранённый Authenticate.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	return actor, ok
}

// Authenticate проверяет токен из заголовка Authorization (или параметра token для websocket)
// и кладёт пользователя в контекст запроса.
func (m *TokenManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "authorization header is required")
			return
		}
		actor, err := m.ParseToken(tokenString)
		if err != nil {
			utils.SendErrorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Authorize пропускает запрос только для указанных ролей.
func Authorize(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				utils.SendErrorResponse(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !lo.Contains(roles, actor.Role) {
				utils.SendErrorResponse(w, http.StatusForbidden, "you do not have permission to access this resource")
				return
			}
			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	return token, found && token != ""
}
