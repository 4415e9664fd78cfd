package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"healthtwin-data/internal/classifier"
	"healthtwin-data/internal/config"
	"healthtwin-data/internal/database"
	"healthtwin-data/internal/domain"
	httpapi "healthtwin-data/internal/http"
	"healthtwin-data/internal/logger"
	"healthtwin-data/internal/repository"
	"healthtwin-data/internal/service"
	"healthtwin-data/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthtwin-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	var (
		db          *sql.DB
		predsRepo   repository.PredictionsRepository
		metricsRepo repository.HealthMetricsRepository
		workersRepo repository.HealthWorkersRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for healthtwin-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		predsRepo = repository.NewPostgresPredictionsRepository(db)
		metricsRepo = repository.NewPostgresHealthMetricsRepository(db)
		workersRepo = repository.NewPostgresHealthWorkersRepository(db)
	} else {
		// DB 未就绪：内存 repo 支持联测（dashboard 不为空、预测闭环可用）
		predsRepo = repository.NewMemoryPredictionsRepository()
		metricsRepo = repository.NewMemoryHealthMetricsRepository()
		workersRepo = repository.NewMemoryHealthWorkersRepository()
	}

	if cfg.SeedWorkers {
		if err := workersRepo.SeedIfEmpty(context.Background(), defaultWorkers()); err != nil {
			log.Warn("failed to seed health workers", zap.Error(err))
		}
	}

	// 外部模型服务配置了才走远程；否则使用本地规则分类器
	var cls classifier.Classifier
	if cfg.Model.HTTPAddress != "" {
		cls = classifier.NewRemoteClassifier(cfg.Model.HTTPAddress, time.Duration(cfg.Model.TimeoutSec)*time.Second, log)
		log.Info("using remote prediction model", zap.String("address", cfg.Model.HTTPAddress))
	} else {
		cls = classifier.NewRuleClassifier()
	}

	predictionSvc := service.NewPredictionService(predsRepo, cls, log)
	metricsSvc := service.NewHealthMetricsService(metricsRepo, log)
	dashboardSvc := service.NewDashboardService(
		predsRepo, workersRepo, kv,
		time.Duration(cfg.Dashboard.CacheTTLSec)*time.Second, log)
	authSvc := service.NewAuthService(
		workersRepo, kv,
		time.Duration(cfg.Auth.TokenTTLMin)*time.Minute, log)

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewPredictHandler(predictionSvc, log),
		httpapi.NewDashboardHandler(dashboardSvc, log),
		httpapi.NewHealthMetricsHandler(metricsSvc, log),
		httpapi.NewAuthHandler(authSvc, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}

// defaultWorkers 东北各州的初始工作者名册
// Dev bootstrap: SEED_WORKER_PASSWORD 非空时为所有名册账号开通同一口令登录
func defaultWorkers() []*domain.HealthWorker {
	var hash *string
	if pw := os.Getenv("SEED_WORKER_PASSWORD"); pw != "" {
		h := service.HashPassword(pw)
		hash = &h
	}

	roster := []struct {
		name, workerID, role, state, district string
	}{
		{"Priya Sharma", "AS001", "ASHA", "Assam", "Guwahati"},
		{"Tenzin Norbu", "AP001", "PHC", "Arunachal Pradesh", "Itanagar"},
		{"Mary Kom", "MN001", "ANM", "Manipur", "Imphal"},
		{"Daisy Lyngdoh", "ML001", "ASHA", "Meghalaya", "Shillong"},
		{"Lalrinsanga", "MZ001", "PHC", "Mizoram", "Aizawl"},
		{"Naga Ao", "NL001", "ANM", "Nagaland", "Kohima"},
		{"Pema Tshering", "SK001", "ASHA", "Sikkim", "Gangtok"},
		{"Biplab Debbarma", "TR001", "PHC", "Tripura", "Agartala"},
	}

	workers := make([]*domain.HealthWorker, 0, len(roster))
	for _, r := range roster {
		workers = append(workers, &domain.HealthWorker{
			Name:         r.name,
			WorkerID:     r.workerID,
			Role:         r.role,
			State:        r.state,
			District:     r.district,
			PasswordHash: hash,
		})
	}
	return workers
}
