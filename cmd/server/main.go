package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/searchforge/rank_aggregator/internal/api"
	"github.com/searchforge/rank_aggregator/internal/controller"
	"github.com/searchforge/rank_aggregator/internal/health"
	"github.com/searchforge/rank_aggregator/judge"
	"github.com/searchforge/rank_aggregator/judge/openai"
	"github.com/searchforge/rank_aggregator/obs"
	"github.com/searchforge/rank_aggregator/policy"
	"github.com/searchforge/rank_aggregator/retriever"
)

const (
	defaultPort      = 7071
	defaultBudgetMs  = 0
	defaultTimeoutMs = 800
	defaultK         = 10
	defaultRetryMax  = 2
)

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := obs.InitTracer("rank-aggregator")
	if err != nil {
		logger.Warn("tracer init", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	client := newHTTPClient(cfg.RetrieverTimeout)

	source, err := retriever.NewHTTPSource(cfg.RetrieverURL, client, cfg.RetryMax)
	if err != nil {
		logger.Fatal("retriever", zap.Error(err))
	}

	var claimJudge judge.Judge
	if cfg.OpenAIKey != "" {
		oa, err := openai.New(openai.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			logger.Fatal("judge", zap.Error(err))
		}
		claimJudge = oa
		logger.Info("judge configured", zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Info("no judge configured, judge strategies score neutral")
	}

	metrics := policy.NewMetrics()

	ctrl, err := controller.New(source, claimJudge, controller.Config{
		DefaultK:        cfg.DefaultK,
		MaxOutput:       cfg.MaxOutput,
		DefaultBudgetMS: cfg.BudgetMs,
		CacheTTL:        cfg.CacheTTL,
		PolicyVersion:   cfg.PolicyVersion,
		Strategies:      cfg.Strategies,
		RetrieverPolicy: policy.SourceConfig{
			Timeout: cfg.RetrieverTimeout,
			Rate: policy.RateLimitConfig{
				Capacity:     cfg.RateCapacity,
				RefillTokens: cfg.RateRefill,
				RefillEvery:  cfg.RateInterval,
			},
			Circuit: policy.CircuitBreakerConfig{
				Window:               cfg.CircuitWindow,
				FailureRateThreshold: cfg.CircuitThreshold,
				MinSamples:           cfg.CircuitMinSamples,
				Cooldown:             cfg.CircuitCooldown,
				HalfOpenMaxCalls:     cfg.CircuitHalfOpenMax,
			},
		},
		JudgePolicy: policy.SourceConfig{
			Timeout: cfg.JudgeTimeout,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("controller", zap.Error(err))
	}

	router, err := api.NewRouter(ctrl, health.Readyz(ctrl))
	if err != nil {
		logger.Fatal("router", zap.Error(err))
	}
	router.Handle("/metrics", promhttp.Handler())

	root := chi.NewRouter()
	root.Mount("/", router)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("rank aggregator listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

type config struct {
	Port          int
	BudgetMs      int
	DefaultK      int
	MaxOutput     int
	CacheTTL      time.Duration
	PolicyVersion string
	Strategies    []string

	RetrieverURL     string
	RetrieverTimeout time.Duration
	RetryMax         int

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	JudgeTimeout  time.Duration

	RateCapacity       int
	RateRefill         int
	RateInterval       time.Duration
	CircuitWindow      time.Duration
	CircuitThreshold   float64
	CircuitMinSamples  int
	CircuitCooldown    time.Duration
	CircuitHalfOpenMax int
}

func loadConfig() config {
	return config{
		Port:          getEnvInt("PORT", defaultPort),
		BudgetMs:      getEnvInt("BUDGET_MS", defaultBudgetMs),
		DefaultK:      getEnvInt("DEFAULT_K", defaultK),
		MaxOutput:     getEnvInt("MAX_OUTPUT", policy.DefaultMaxOutput),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_MS", 0)) * time.Millisecond,
		PolicyVersion: getEnvStr("POLICY_VERSION", ""),
		Strategies:    splitList(getEnvStr("STRATEGIES", "")),

		RetrieverURL:     getEnvStr("RETRIEVER_URL", "http://retriever:8000"),
		RetrieverTimeout: time.Duration(getEnvInt("RETRIEVER_TIMEOUT_MS", defaultTimeoutMs)) * time.Millisecond,
		RetryMax:         getEnvInt("RETRIEVER_RETRY_MAX", defaultRetryMax),

		OpenAIKey:     getEnvStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvStr("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnvStr("OPENAI_MODEL", ""),
		JudgeTimeout:  time.Duration(getEnvInt("JUDGE_TIMEOUT_MS", 10000)) * time.Millisecond,

		RateCapacity:       getEnvInt("SOURCE_RATE_CAPACITY", 50),
		RateRefill:         getEnvInt("SOURCE_RATE_REFILL", 10),
		RateInterval:       time.Duration(getEnvInt("SOURCE_RATE_INTERVAL_MS", 1000)) * time.Millisecond,
		CircuitWindow:      time.Duration(getEnvInt("CIRCUIT_WINDOW_MS", 30000)) * time.Millisecond,
		CircuitThreshold:   getEnvFloat("CIRCUIT_THRESHOLD", 0.5),
		CircuitMinSamples:  getEnvInt("CIRCUIT_MIN_SAMPLES", 5),
		CircuitCooldown:    time.Duration(getEnvInt("CIRCUIT_COOLDOWN_MS", 5000)) * time.Millisecond,
		CircuitHalfOpenMax: getEnvInt("CIRCUIT_HALF_OPEN_MAX", 1),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxConnsPerHost:     128,
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 128,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvStr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
