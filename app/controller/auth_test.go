package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-donations/app/auth"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type controllerUserRepo struct {
	users   map[string]*entity.User
	deleted []string
}

func (r *controllerUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *controllerUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	return r.users[id], nil
}

func (r *controllerUserRepo) List(context.Context) ([]*entity.User, error) {
	items := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		items = append(items, user)
	}
	return items, nil
}

func (r *controllerUserRepo) Create(_ context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *controllerUserRepo) Update(_ context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *controllerUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	r.deleted = append(r.deleted, id)
	delete(r.users, id)
	return nil
}

func newUserRepoWithAdmin(t *testing.T) *controllerUserRepo {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &controllerUserRepo{users: map[string]*entity.User{
		"u-admin": {ID: "u-admin", Email: "admin@setor7.gg", PasswordHash: hash, Role: entity.RoleAdmin},
		"u-user":  {ID: "u-user", Email: "user@setor7.gg", PasswordHash: hash, Role: entity.RoleUser},
	}}
}

func TestLoginIssuesToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	ctrl := NewAuthController(service.NewUserService(newUserRepoWithAdmin(t), tokens))
	ctx, rec := jsonContext(http.MethodPost, "/auth/login", `{"email":"Admin@Setor7.gg","password":"s3cret-pass"}`)

	_ = ctrl.Login(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload types.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	claims, err := tokens.Parse(payload.Token)
	if err != nil {
		t.Fatalf("expected a parseable token, got %v", err)
	}
	if claims.UserID != "u-admin" || claims.Role != entity.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctrl := NewAuthController(service.NewUserService(newUserRepoWithAdmin(t), auth.NewTokenManager("test-secret", time.Hour)))
	ctx, rec := jsonContext(http.MethodPost, "/auth/login", `{"email":"admin@setor7.gg","password":"nope-nope"}`)

	_ = ctrl.Login(ctx)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	adminToken, _, _ := tokens.Issue("u-admin", "admin@setor7.gg", entity.RoleAdmin)
	userToken, _, _ := tokens.Issue("u-user", "user@setor7.gg", entity.RoleUser)

	e := echo.New()
	middleware := NewAdminMiddleware(tokens)
	e.GET("/admin/ping", func(ctx echo.Context) error {
		claims, _ := ClaimsFromContext(ctx)
		return ctx.String(http.StatusOK, claims.UserID)
	}, middleware.RequireAdmin)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"no bearer prefix", adminToken, http.StatusUnauthorized},
		{"user role", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		if tc.header != "" {
			req.Header.Set(echo.HeaderAuthorization, tc.header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
		if tc.want == http.StatusOK && strings.TrimSpace(rec.Body.String()) != "u-admin" {
			t.Fatalf("%s: expected claims in context, got %q", tc.name, rec.Body.String())
		}
	}
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	repo := newUserRepoWithAdmin(t)
	ctrl := NewAdminController(nil, service.NewUserService(repo, auth.NewTokenManager("test-secret", time.Hour)), nil)

	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodDelete, "/admin/users/u-admin", nil), rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("u-admin")
	ctx.Set(claimsContextKey, auth.Claims{UserID: "u-admin", Role: entity.RoleAdmin})

	_ = ctrl.DeleteUser(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ctx = e.NewContext(httptest.NewRequest(http.MethodDelete, "/admin/users/u-user", nil), rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("u-user")
	ctx.Set(claimsContextKey, auth.Claims{UserID: "u-admin", Role: entity.RoleAdmin})

	_ = ctrl.DeleteUser(ctx)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "u-user" {
		t.Fatalf("unexpected deletes: %v", repo.deleted)
	}
}

func TestCreateUserConflict(t *testing.T) {
	repo := newUserRepoWithAdmin(t)
	conflicting := &conflictUserRepo{controllerUserRepo: repo}
	ctrl := NewAdminController(nil, service.NewUserService(conflicting, auth.NewTokenManager("test-secret", time.Hour)), nil)
	ctx, rec := jsonContext(http.MethodPost, "/admin/users", `{"email":"new@setor7.gg","password":"long-enough","role":"user"}`)

	_ = ctrl.CreateUser(ctx)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

type conflictUserRepo struct {
	*controllerUserRepo
}

func (r *conflictUserRepo) Create(context.Context, *entity.User) error {
	return repository.ErrUserAlreadyExists
}
