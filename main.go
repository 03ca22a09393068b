package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"blogpulse/internal/api"
	applog "blogpulse/internal/log"
	"blogpulse/internal/models"
	"blogpulse/internal/ratelimit"
	"blogpulse/internal/repository"
	"blogpulse/internal/service"
	"blogpulse/internal/storage"
	"blogpulse/pkg/ai"
	"blogpulse/pkg/config"
	"blogpulse/pkg/utils"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	applog.Init(cfg.Server.Env)
	utils.SetSecret(cfg.JWT.Secret)

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(&models.User{}, &models.Comment{},
		&models.Conversation{}, &models.ChatMessage{}); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate database")
	}

	// 上游聊天補全客戶端
	provider := ai.NewOpenRouterClient(
		cfg.OpenRouter.BaseURL,
		cfg.OpenRouter.APIKey,
		cfg.OpenRouter.DefaultModel,
		cfg.OpenRouter.MaxTokens,
		cfg.OpenRouter.Temperature,
	)

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, provider, cfg.OpenRouter.DefaultModel)

	// 限流器是可選的，沒配 Redis 就不開
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.Redis.Addr != "" {
		limiter, err = ratelimit.NewFixedWindowLimiter(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.RateLimit.Limit,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize rate limiter")
		}
	}

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, limiter)

	// 啟動伺服器
	log.Info().Str("address", cfg.Server.Address).Msg("starting server")
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
