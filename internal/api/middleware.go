package api

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/service"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// authenticate rejects the request with 401 unless authn accepts it
func (h *Handler) authenticate(scope string, authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authn.Authenticate(c.Request)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				h.logger.Error("Authentication backend failed", zap.String("scope", scope), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			util.AuthFailuresTotal.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func principal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// customerID returns the session customer. Only valid behind a
// session-only route.
func customerID(c *gin.Context) int64 {
	if p := principal(c); p != nil {
		return p.CustomerID
	}
	return 0
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidInput
	}
	return id, nil
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSubmitInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Messages are fixed per status;
// only InputError reasons are passed through. Internal failures are logged.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)

	var message string
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		message = "Internal server error"
	case http.StatusUnauthorized:
		message = "Unauthorized"
		if errors.Is(err, service.ErrInvalidOTP) {
			message = service.ErrInvalidOTP.Error()
		}
	case http.StatusForbidden:
		message = "Forbidden"
	case http.StatusBadRequest:
		message = "Invalid input"
		var inputErr *service.InputError
		if errors.As(err, &inputErr) {
			message = inputErr.Reason
		}
	case http.StatusNotFound:
		message = "Not found"
	case http.StatusConflict:
		message = service.ErrSubmitInProgress.Error()
	default:
		message = http.StatusText(status)
	}

	c.JSON(status, gin.H{"error": message})
}
