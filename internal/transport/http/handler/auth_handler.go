package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-account-service/internal/core/auth"
	"user-account-service/internal/service"
	"user-account-service/internal/transport/http/ez"
)

type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) error
	Signin(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// AuthHandler serves the public /auth routes. Limit, when set, runs in front of
// every route (per-IP throttling against credential stuffing).
type AuthHandler struct {
	svc   AuthService
	Limit gin.HandlerFunc
}

func NewAuthHandler(svc AuthService, limit gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, Limit: limit}
}

func (h *AuthHandler) Priority() int { return 10 }

type signupReq struct {
	Email    string  `json:"email"    binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,max=72"`
	Name     *string `json:"name"     binding:"omitempty,max=100"`
}

type signinReq struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type messageOut struct {
	Message string `json:"message"`
}

func (h *AuthHandler) MountAPI(pub, _ *gin.RouterGroup) {
	g := pub.Group("/auth")
	if h.Limit != nil {
		g.Use(h.Limit)
	}
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[signupReq, messageOut]{
		Method: http.MethodPost,
		Path:   "/signup",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *signupReq) (messageOut, error) {
			err := h.svc.Signup(c.Request.Context(), service.SignupInput{
				Email: in.Email, Password: in.Password, Name: in.Name,
			})
			if err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "signup completed"}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[signinReq, *auth.TokenPair]{
		Method: http.MethodPost,
		Path:   "/signin",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *signinReq) (*auth.TokenPair, error) {
			return h.svc.Signin(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.RegisterAction(e, ez.Action[refreshReq, *auth.TokenPair]{
		Method: http.MethodPost,
		Path:   "/refresh",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *refreshReq) (*auth.TokenPair, error) {
			return h.svc.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})
}
