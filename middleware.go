package accounts

import (
	"github.com/goliatone/go-router"
)

// DefaultClaimsContextKey is where the middleware stores verified claims in
// router locals.
var DefaultClaimsContextKey = "claims"

// TokenAuthMiddleware verifies the bearer token on each request and makes the
// claims available both in router locals and in the request context. Requests
// without a valid token are rejected before the handler runs.
func TokenAuthMiddleware(validator TokenValidator, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = defaultAuthErrorHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token := bearerToken(ctx)
			if token == "" {
				return errorHandler(ctx, ErrTokenMalformed)
			}

			claims, err := validator.Validate(token)
			if err != nil {
				return errorHandler(ctx, err)
			}

			ctx.Locals(DefaultClaimsContextKey, claims)
			ctx.SetContext(WithClaimsContext(contextOrBackground(ctx), claims))

			return next(ctx)
		}
	}
}

func defaultAuthErrorHandler(ctx router.Context, err error) error {
	body := map[string]string{
		"error": ErrTokenMalformed.Message,
	}

	if IsTokenExpiredError(err) {
		body["error"] = ErrTokenExpired.Message
		body["text_code"] = ErrTokenExpired.TextCode
	} else {
		body["text_code"] = ErrTokenMalformed.TextCode
	}

	return ctx.JSON(router.StatusUnauthorized, body)
}
