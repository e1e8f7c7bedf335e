package middleware

import (
	"context"
	"net/http"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const contactKey = "contact"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Contact, error)
}

// Auth attaches the contact named by a bearer token. Requests without an
// Authorization header continue as guests.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			ctx := c.Request().Context()
			contact, err := auth.Authenticate(ctx, token)
			if err != nil {
				return err
			}

			c.Set(contactKey, contact)
			l := logger.FromContext(ctx).With(zap.Uint("contact_id", contact.ID))
			c.SetRequest(c.Request().WithContext(logger.WithContext(ctx, l)))
			return next(c)
		}
	}
}

// Contact returns the signed-in contact, or nil for a guest.
func Contact(c echo.Context) *model.Contact {
	contact, _ := c.Get(contactKey).(*model.Contact)
	return contact
}

func RequireContact() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Contact(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			return next(c)
		}
	}
}

func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contact := Contact(c)
			if contact == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			if !contact.IsStaff() {
				return echo.NewHTTPError(http.StatusForbidden, "staff only")
			}
			return next(c)
		}
	}
}
