package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"sigmine/internal/client/exa"
	polymarketgamma "sigmine/internal/client/polymarket/gamma"
	"sigmine/internal/client/twitterapi"
	"sigmine/internal/config"
	cronrunner "sigmine/internal/cron"
	"sigmine/internal/db"
	"sigmine/internal/epoch"
	"sigmine/internal/feeds"
	"sigmine/internal/handler"
	"sigmine/internal/keylock"
	"sigmine/internal/logger"
	gormrepository "sigmine/internal/repository/gorm"
	"sigmine/internal/service"

	_ "sigmine/docs"
)

const version = "1.0.0"

func main() {
	cfgPath := os.Getenv("SIGMINE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SIGMINE_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	locks := keylock.New()
	epochClock := epoch.NewClock(cfg.Epoch.Duration)

	gammaHTTP := &http.Client{Timeout: cfg.Gamma.Timeout}
	gammaClient := polymarketgamma.NewClient(gammaHTTP, cfg.Gamma.BaseURL)
	exaHTTP := &http.Client{Timeout: cfg.Research.Exa.Timeout}
	exaClient := exa.NewClient(exaHTTP, cfg.Research.Exa.BaseURL, cfg.Research.Exa.APIKey)
	twitterHTTP := &http.Client{Timeout: cfg.Research.Twitter.Timeout}
	twitterClient := twitterapi.NewClient(twitterHTTP, cfg.Research.Twitter.BaseURL, cfg.Research.Twitter.APIKey)
	fetcher := feeds.NewFetcher(cfg.Tasks.Feeds, cfg.Tasks.ItemsPerFeed, cfg.Tasks.FeedTimeout, logger)

	registry := &service.RegistryService{
		Repo:             store,
		Locks:            locks,
		Logger:           logger,
		HeartbeatTimeout: cfg.Presence.HeartbeatTimeout,
	}
	limiter := &service.RateLimiter{
		Repo:   store,
		Locks:  locks,
		Window: cfg.Rates.Window,
	}
	claims := &service.ClaimService{
		Repo:          store,
		Limiter:       limiter,
		Locks:         locks,
		Logger:        logger,
		TTL:           cfg.Claims.TTL,
		ClaimsPerHour: cfg.Rates.ClaimsPerHour,
	}
	signals := &service.SignalService{
		Repo:           store,
		Limiter:        limiter,
		Locks:          locks,
		Epochs:         epochClock,
		Logger:         logger,
		SignalsPerHour: cfg.Rates.SignalsPerHour,
	}
	messages := &service.MessageService{
		Repo:     store,
		Registry: registry,
		Logger:   logger,
	}
	tasks := &service.TaskService{
		Repo:      store,
		Gamma:     gammaClient,
		Fetcher:   fetcher,
		Locks:     locks,
		Logger:    logger,
		CacheTTL:  cfg.Markets.CacheTTL,
		FeedTTL:   cfg.Tasks.FeedTTL,
		PageLimit: cfg.Gamma.PageLimit,
	}
	share := &service.ShareService{
		Repo:    store,
		Logger:  logger,
		JoinURL: cfg.Share.JoinURL,
	}
	stats := &service.StatsService{
		Repo:     store,
		Registry: registry,
		Epochs:   epochClock,
	}
	sources := &service.SourceService{
		Exa:         exaClient,
		Twitter:     twitterClient,
		Credibility: cfg.Research.Twitter.Credibility,
		Logger:      logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	metaHandler := &handler.MetaHandler{
		DB:      dbConn.Gorm,
		Stats:   stats,
		Epochs:  epochClock,
		AppName: "sigmine",
		Version: version,
	}
	metaHandler.Register(engine)
	agentHandler := &handler.AgentHandler{Registry: registry, Logger: logger}
	agentHandler.Register(engine)
	messageHandler := &handler.MessageHandler{Messages: messages, Registry: registry, Logger: logger}
	messageHandler.Register(engine)
	signalHandler := &handler.SignalHandler{Signals: signals, Stats: stats, Registry: registry, Logger: logger}
	signalHandler.Register(engine)
	claimHandler := &handler.ClaimHandler{Claims: claims, Registry: registry}
	claimHandler.Register(engine)
	taskHandler := &handler.TaskHandler{Tasks: tasks}
	taskHandler.Register(engine)
	shareHandler := &handler.ShareHandler{Share: share, Registry: registry}
	shareHandler.Register(engine)
	researchHandler := &handler.ResearchHandler{Sources: sources}
	researchHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.MarketRefresh, func(ctx context.Context) {
			if err := tasks.RefreshMarkets(ctx, true); err != nil {
				logger.Warn("cron market refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register market refresh failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.RateWindowGC, func(ctx context.Context) {
			if _, err := limiter.GC(ctx); err != nil {
				logger.Warn("cron rate window gc failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register rate window gc failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	// Warm the market cache so the first /task/market does not block on
	// the upstream fetch.
	{
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := tasks.RefreshMarkets(warmCtx, false); err != nil {
			logger.Warn("initial market refresh failed (continuing)", zap.Error(err))
		}
		cancel()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-API-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
