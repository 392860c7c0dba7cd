package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/installsync/portal-server-go/internal/errors"
	"github.com/installsync/portal-server-go/internal/httputil"
	"github.com/installsync/portal-server-go/internal/model"
	"github.com/installsync/portal-server-go/internal/service"
)

const DriverContextKey contextKey = "driver"

func GetDriver(ctx context.Context) *model.Driver {
	if driver, ok := ctx.Value(DriverContextKey).(*model.Driver); ok {
		return driver
	}
	return nil
}

// DriverAuthMiddleware validates driver session tokens and loads the driver
// row. A token for a since-deactivated driver is rejected the same way as an
// invalid one.
type DriverAuthMiddleware struct {
	driverAuth *service.DriverAuthService
}

func NewDriverAuthMiddleware(driverAuth *service.DriverAuthService) *DriverAuthMiddleware {
	return &DriverAuthMiddleware{driverAuth: driverAuth}
}

func (m *DriverAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		driver, err := m.driverAuth.LoadSessionDriver(r.Context(), token)
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeDatabase {
				log.Error().Err(err).Msg("driver auth middleware: database error")
			}
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), DriverContextKey, driver)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
