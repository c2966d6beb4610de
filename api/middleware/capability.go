package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/internal/authz"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

// RequireCapability gates a route group on a capability grant. The service
// layer re-checks manager-only operations; this keeps unauthorized traffic
// from reaching handlers at all.
func RequireCapability(checker authz.Checker, capability enums.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil || userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}

			if err := authz.Require(r.Context(), checker, userID, capability); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
