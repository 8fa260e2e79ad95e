package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"identra.org/internal/audit"
	"identra.org/internal/auth"
	"identra.org/internal/config"
	"identra.org/internal/httpapi"
	"identra.org/internal/notify"
	"identra.org/internal/obs"
	"identra.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("GIT_COMMIT"))

	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	codec, err := auth.NewCodec(cfg.JWTSigningKey, cfg.Issuer)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	authSvc, err := auth.NewService(store, codec,
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
		auth.WithSingleUseTTL(cfg.VerifyTokenTTL, cfg.ResetTokenTTL),
		auth.WithAuditSink(audit.Sink{}),
		auth.WithNotifier(&notify.LogDispatcher{}),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	userSvc, err := auth.NewUserService(store)
	if err != nil {
		log.Fatalf("user service: %v", err)
	}
	rbacSvc, err := auth.NewRBACService(store)
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}

	// seed the permission catalog; safe to repeat on every boot
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := rbacSvc.EnsureBuiltins(ctx); err != nil {
			log.Fatalf("seed permissions: %v", err)
		}
		cancel()
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: store.DB()}, version, authSvc, userSvc, rbacSvc)

	handler := api.Handler()
	handler = httpapi.RateLimit(handler, cfg.RateLimitBurst, cfg.RateLimitPerSecond)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.Logging(handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting identra-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
