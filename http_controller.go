package accounts

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPControllerRoutes lets integrators remap the endpoint paths.
type HTTPControllerRoutes struct {
	SignUp string
	SignIn string
	Me     string
}

// HTTPController exposes the auth flows as a JSON API.
type HTTPController struct {
	service *AccountService
	logger  Logger
	Routes  HTTPControllerRoutes
}

// NewHTTPController creates the JSON controller for sign-up and sign-in.
func NewHTTPController(service *AccountService) *HTTPController {
	if service == nil {
		panic("Missing AccountService in accounts controller...")
	}

	return &HTTPController{
		service: service,
		logger:  defLogger{},
		Routes: HTTPControllerRoutes{
			SignUp: "/signup",
			SignIn: "/signin",
			Me:     "/me",
		},
	}
}

func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	c.logger = logger
	return c
}

// RegisterRoutes registers the auth routes. The me endpoint runs behind the
// token middleware so its handler sees verified claims.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post(c.Routes.SignUp, c.SignUpPost)
	group.Post(c.Routes.SignIn, c.SignInPost)
	group.Get(c.Routes.Me, c.MeShow, TokenAuthMiddleware(c.service.TokenService(), nil))
}

// SignUpRequest is the sign-up body. The profile picture travels as base64
// encoded bytes plus the original filename, so the API stays JSON only.
type SignUpRequest struct {
	FirstName          string `form:"first_name" json:"first_name"`
	LastName           string `form:"last_name" json:"last_name"`
	Email              string `form:"email" json:"email"`
	Phone              string `form:"phone_number" json:"phone_number"`
	Password           string `form:"password" json:"password"`
	ProfilePicture     string `form:"profile_picture" json:"profile_picture,omitempty"`
	ProfilePictureName string `form:"profile_picture_name" json:"profile_picture_name,omitempty"`
}

// SignInRequest is the sign-in body.
type SignInRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r SignUpRequest) toInput() (SignUpInput, error) {
	input := SignUpInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
	}

	if r.ProfilePicture != "" {
		data, err := base64.StdEncoding.DecodeString(r.ProfilePicture)
		if err != nil {
			return input, errors.Wrap(err, errors.CategoryBadInput, "profile picture must be base64 encoded").
				WithCode(errors.CodeBadRequest)
		}
		input.ProfilePicture = &ProfilePictureUpload{
			Filename: r.ProfilePictureName,
			Data:     data,
		}
	}

	return input, nil
}

// SignUpPost handles POST /signup.
func (c *HTTPController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpRequest)
	if err := ctx.Bind(payload); err != nil {
		c.logger.Error("signup parse payload", "error", err)
		return c.handleError(ctx, ErrUnableToParseData)
	}

	input, err := payload.toInput()
	if err != nil {
		return c.handleError(ctx, err)
	}

	result, err := c.service.SignUp(ctx.Context(), input)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, result)
}

// SignInPost handles POST /signin.
func (c *HTTPController) SignInPost(ctx router.Context) error {
	payload := new(SignInRequest)
	if err := ctx.Bind(payload); err != nil {
		c.logger.Error("signin parse payload", "error", err)
		return c.handleError(ctx, ErrUnableToParseData)
	}

	result, err := c.service.SignIn(ctx.Context(), SignInInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// MeShow handles GET /me, resolving the account behind the bearer token.
// Claims left by the token middleware are used when present; otherwise the
// handler verifies the header itself.
func (c *HTTPController) MeShow(ctx router.Context) error {
	if claims, ok := GetRouterClaims(ctx, ""); ok {
		user, err := c.service.UserFromClaims(contextOrBackground(ctx), claims)
		if err != nil {
			return c.handleError(ctx, err)
		}
		return ctx.JSON(router.StatusOK, map[string]any{
			"user": user,
		})
	}

	token := bearerToken(ctx)
	if token == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "missing bearer token",
		})
	}

	user, err := c.service.UserFromToken(contextOrBackground(ctx), token)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	})
}

// handleError maps structured errors to status codes. Internal detail never
// reaches the client; 5xx responses carry a fixed message and the real error
// goes to the logs only.
func (c *HTTPController) handleError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		body := map[string]any{
			"error": richErr.Message,
		}
		if len(richErr.Metadata) > 0 {
			body["fields"] = richErr.Metadata
		}
		return ctx.JSON(router.StatusBadRequest, body)
	case errors.CategoryConflict:
		return ctx.JSON(http.StatusConflict, map[string]string{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	case errors.CategoryAuth:
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	case errors.CategoryRateLimit:
		return ctx.JSON(http.StatusTooManyRequests, map[string]string{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	case errors.CategoryNotFound:
		return ctx.JSON(http.StatusNotFound, map[string]string{
			"error": richErr.Message,
		})
	default:
		c.logger.Error("request failed", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred while processing your request",
		})
	}
}

func bearerToken(ctx router.Context) string {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return ""
	}

	const scheme = "Bearer"
	if len(header) > len(scheme)+1 && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}

	return ""
}

func contextOrBackground(ctx router.Context) context.Context {
	if c := ctx.Context(); c != nil {
		return c
	}
	return context.Background()
}
