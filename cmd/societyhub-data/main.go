package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/config"
	"societyhub-data/internal/database"
	httpapi "societyhub-data/internal/http"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/logger"
	"societyhub-data/internal/mqtt"
	"societyhub-data/internal/occupancy"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
	"societyhub-data/internal/service"
	"societyhub-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "societyhub-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 会话 KV：Redis 不可用时退化为内存（仅本地联调）
	var kv store.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory session store", zap.Error(err))
		kv = store.NewMemoryKV()
	} else {
		kv = store.NewRedisKV(redisClient)
	}

	// 记录存储：DB 不可用时回落内存实现
	var db *sql.DB
	var records recordstore.Store
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			pg := recordstore.NewPostgres(d)
			if err := pg.EnsureSchema(context.Background()); err != nil {
				log.Error("Schema setup failed", zap.Error(err))
				os.Exit(1)
			}
			db = d
			records = pg
			log.Info("DB enabled for societyhub-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if records == nil {
		records = recordstore.NewMemory()
	}

	profilesRepo := repository.NewProfilesRepository(records)
	societiesRepo := repository.NewSocietiesRepository(records)
	flatsRepo := repository.NewFlatsRepository(records)
	paymentsRepo := repository.NewPaymentsRepository(records)
	visitorsRepo := repository.NewVisitorsRepository(records)
	complaintsRepo := repository.NewComplaintsRepository(records)

	// 认证提供方
	var auth authn.Provider
	if cfg.Auth.Provider == "http" && cfg.Auth.BaseURL != "" {
		auth = authn.NewHTTPProvider(cfg.Auth.BaseURL, cfg.Auth.APIKey, log)
	} else {
		auth = authn.NewLocalProvider(kv, cfg.Auth.SessionTTL, log)
	}

	resolver := identity.NewResolver(auth, profilesRepo, societiesRepo, log)
	identityStore := identity.NewStore(auth, resolver, cfg.Auth.Watchdog, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	identityStore.Init(ctx)

	coordinator := occupancy.NewCoordinator(flatsRepo, profilesRepo, resolver, log)

	residentService := service.NewResidentService(profilesRepo, flatsRepo, coordinator, log)
	paymentService := service.NewPaymentService(paymentsRepo, log)
	visitorService := service.NewVisitorService(visitorsRepo, log)
	complaintService := service.NewComplaintService(complaintsRepo, log)

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewAuthHandler(identityStore, log),
		httpapi.NewResidentsHandler(residentService, log),
		httpapi.NewFlatsHandler(flatsRepo, log),
		httpapi.NewPaymentsHandler(paymentService, log),
		httpapi.NewVisitorsHandler(visitorService, log),
		httpapi.NewComplaintsHandler(complaintService, log),
	)

	// 可选：桥接外部会话事件（默认禁用）
	var bridge *mqtt.SessionBridge
	if cfg.MQTT.Enabled {
		b, err := mqtt.NewSessionBridge(cfg.MQTT, identityStore, log)
		if err != nil {
			log.Warn("Session bridge unavailable", zap.Error(err))
		} else {
			bridge = b
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if bridge != nil {
		bridge.Close()
	}
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
