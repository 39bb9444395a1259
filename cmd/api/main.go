package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"user-account-service/internal/core/auth"
	"user-account-service/internal/core/cache"
	"user-account-service/internal/core/config"
	"user-account-service/internal/core/database"
	"user-account-service/internal/core/events"
	"user-account-service/internal/core/logger"
	"user-account-service/internal/core/server"
	"user-account-service/internal/domain"
	"user-account-service/internal/repo"
	"user-account-service/internal/service"
	"user-account-service/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	roles := repo.NewRoleRepo(db)
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		if err := roles.Seed(ctx, domain.DefaultRoles...); err != nil {
			log.Fatal("seed roles failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()
	pingRedis(ctx, rdb, log)

	jwter := &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	}
	users := repo.NewUserRepo(db)
	authSvc := service.NewAuthService(users, roles, jwter, log)
	userSvc := service.NewUserService(users,
		cache.New(cache.NewRedis(rdb), log),
		events.NewPublisher(rdb, log, cfg.Events.StreamMaxLen),
		log,
	)

	if err := authSvc.BootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail); err != nil {
		log.Fatal("bootstrap admin failed", zap.Error(err))
	}

	h := cfg.App.HTTP
	engine := router.NewAPIEngine(log, router.Deps{Auth: authSvc, Users: userSvc}, router.Limits{
		RPS:            h.RateLimitRPS,
		Burst:          h.RateLimitBurst,
		AuthRPS:        h.AuthRPS,
		AuthBurst:      h.AuthBurst,
		MaxConcurrent:  h.MaxConcurrent,
		RequestTimeout: h.RequestTimeout,
	})
	srv := server.BuildServer(
		server.Addr(h.Host, h.Port), engine,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	log.Info("user api starting", zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))
	if err := server.Run(ctx, srv, 10*time.Second, log); err != nil {
		log.Error("user api stopped with error", zap.Error(err))
		return
	}
	log.Info("user api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	r := cfg.Log.Rotate
	return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     r.Enable,
		Filename:   r.Filename,
		MaxSizeMB:  r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAgeDays: r.MaxAgeDays,
		Compress:   r.Compress,
	})
}

// pingRedis only warns: reads fall back to the database while Redis is down.
func pingRedis(ctx context.Context, rdb *redis.Client, l *zap.Logger) {
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		l.Warn("redis unreachable at startup", zap.String("addr", rdb.Options().Addr), zap.Error(err))
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
