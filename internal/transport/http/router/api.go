package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"user-account-service/internal/core/server"
	"user-account-service/internal/transport/http/handler"
	mdw "user-account-service/internal/transport/http/middleware"
)

type AuthService interface {
	handler.AuthService
	mdw.Authenticator
}

type Deps struct {
	Auth  AuthService
	Users handler.UserService
}

type Limits struct {
	RPS            float64
	Burst          int
	AuthRPS        float64 // per client IP on /auth/*
	AuthBurst      int
	MaxConcurrent  int64
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

func (l *Limits) withDefaults() {
	if l.RPS <= 0 {
		l.RPS, l.Burst = 200, 400
	}
	if l.AuthRPS <= 0 {
		l.AuthRPS, l.AuthBurst = 5, 10
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = 300
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 1 << 20
	}
	if l.RequestTimeout <= 0 {
		l.RequestTimeout = 10 * time.Second
	}
}

func NewAPIEngine(l *zap.Logger, d Deps, lim Limits) *gin.Engine {
	lim.withDefaults()
	r := server.NewRouter(l)

	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.ConcurrencyLimit(lim.MaxConcurrent),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(lim.RequestTimeout),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	authed := api.Group("", mdw.RequireIdentity(d.Auth))

	MountAll(api, authed,
		handler.NewUserHandler(d.Users),
		handler.NewAuthHandler(d.Auth, mdw.RateLimitPerIP(rate.Limit(lim.AuthRPS), lim.AuthBurst)),
	)
	return r
}
