package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/auth"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

const claimsContextKey = "admin_claims"

type tokenParser interface {
	Parse(tokenString string) (auth.Claims, error)
}

type AuthController struct {
	users  *service.UserService
	logger logrus.FieldLogger
}

func NewAuthController(users *service.UserService) *AuthController {
	return &AuthController{
		users:  users,
		logger: factory.NewModuleLogger("auth-controller"),
	}
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.users.Login(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Login")
	}

	return ctx.JSON(http.StatusOK, mapper.LoginToResponse(result))
}

func (c *AuthController) Me(ctx echo.Context) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	user, err := c.users.Me(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(ctx, c.logger, err, "Me")
	}

	return ctx.JSON(http.StatusOK, &types.UserEnvelopeResponse{User: mapper.UserToResponse(user)})
}

// AdminMiddleware guards routes with the bearer tokens issued by Login.
type AdminMiddleware struct {
	tokens tokenParser
}

func NewAdminMiddleware(tokens tokenParser) *AdminMiddleware {
	return &AdminMiddleware{tokens: tokens}
}

// RequireUser accepts any valid token.
func (m *AdminMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := m.authenticate(ctx)
		if err != nil {
			return writeError(ctx, http.StatusUnauthorized, "unauthorized")
		}
		ctx.Set(claimsContextKey, claims)
		return next(ctx)
	}
}

// RequireAdmin answers 401 without a valid token and 403 for non-admin roles.
func (m *AdminMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireUser(func(ctx echo.Context) error {
		claims, _ := ClaimsFromContext(ctx)
		if claims.Role != entity.RoleAdmin {
			return writeError(ctx, http.StatusForbidden, service.ErrAdminRequired.Error())
		}
		return next(ctx)
	})
}

func (m *AdminMiddleware) authenticate(ctx echo.Context) (auth.Claims, error) {
	header := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return m.tokens.Parse(strings.TrimSpace(token))
}

func ClaimsFromContext(ctx echo.Context) (auth.Claims, bool) {
	claims, ok := ctx.Get(claimsContextKey).(auth.Claims)
	return claims, ok
}
