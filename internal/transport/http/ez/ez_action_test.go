package ez

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"user-account-service/internal/domain"
	mdw "user-account-service/internal/transport/http/middleware"
	resp "user-account-service/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func TestFromError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrInvalidToken, 401, "invalid token"},
		{domain.ErrInvalidCredentials, 401, "invalid email or password"},
		{fmt.Errorf("load: %w", domain.ErrUserNotFound), 404, "user not found"},
		{fmt.Errorf("Member: %w", domain.ErrRoleNotFound), 404, "role not found"},
		{domain.ErrAdminRequired, 403, "admin permission required"},
		{domain.ErrAccessDenied, 403, "access denied"},
		{domain.ErrIsActiveForbidden, 403, "is_active can only be changed by an admin"},
		{fmt.Errorf("update: %w", domain.ErrEmailExists), 409, "email already exists"},
		{domain.ErrInvalidInput, 400, "invalid input"},
		{Conflict("taken"), 409, "taken"},
		{errors.New("pq: connection refused"), 500, "internal error"},
	}
	for _, tc := range cases {
		ae := FromError(tc.err)
		assert.Equal(t, tc.code, ae.Code, tc.err.Error())
		assert.Equal(t, tc.msg, ae.Error(), tc.err.Error())
	}
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func TestRegisterAction(t *testing.T) {
	r := gin.New()
	g := r.Group("", func(c *gin.Context) {
		if c.GetHeader("X-User") != "" {
			c.Set(mdw.KeyIdentity, &domain.User{ID: c.GetHeader("X-User")})
		}
	})
	e := New(g)
	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPost, Path: "/echo", Binder: BindJSON, Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (gin.H, error) { return gin.H{"name": in.Name}, nil },
	})
	RegisterAction(e, Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/private", Binder: BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{"id": mdw.Identity(c).ID}, nil
		},
	})
	RegisterAction(e, Action[struct{}, gin.H]{
		Method: http.MethodDelete, Path: "/fail", Binder: BindNone,
		Handler: func(*gin.Context, *struct{}) (gin.H, error) { return nil, errors.New("boom") },
	})

	do := func(method, path, body, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if user != "" {
			req.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/echo", `{"name":"kim"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":{"name":"kim"}}`, w.Body.String())

	w = do(http.MethodPost, "/echo", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodGet, "/private", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(http.MethodGet, "/private", "", "u7")
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":{"id":"u7"}}`, w.Body.String())

	w = do(http.MethodDelete, "/fail", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"msg":"internal error","data":{}}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, resp.CodeServerError, FromError(errors.New("x")).Code)
}
