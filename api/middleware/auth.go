package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/api/responses"
	pkgAuth "github.com/indyhub/exchange-backend/pkg/auth"
	"github.com/indyhub/exchange-backend/pkg/config"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

// Auth validates a host-platform bearer token and seeds the request context
// with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.UserID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
				return
			}
			if claims.CorporationID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing corporation scope"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxCorporationID, claims.CorporationID)
			if claims.CharacterName != "" {
				ctx = context.WithValue(ctx, ctxCharacterName, claims.CharacterName)
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":        claims.UserID.String(),
					"corporation_id": claims.CorporationID,
				}
				if claims.CharacterName != "" {
					fields["character_name"] = claims.CharacterName
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
