// Package app は依存関係の組み立てとサーバーの起動・停止を行う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/personcache/internal/config"
	"github.com/hitoshi/personcache/internal/events"
	"github.com/hitoshi/personcache/internal/handler"
	"github.com/hitoshi/personcache/internal/logger"
	"github.com/hitoshi/personcache/internal/metrics"
	"github.com/hitoshi/personcache/internal/middleware"
	"github.com/hitoshi/personcache/internal/person"
	"github.com/hitoshi/personcache/internal/randomuser"
	"github.com/hitoshi/personcache/internal/security"
	"github.com/hitoshi/personcache/internal/worker/refresh"
)

// shutdownTimeout は停止時に処理中のリクエストを待つ最大時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 設定読み込み前にもログを使えるよう、まずInfoレベルで初期化する
	log := logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level := logger.ParseLevel(cfg.LogLevel); level != slog.LevelInfo {
		log = logger.SetupDefault(w, level)
	}
	return cfg, log, nil
}

// Components は組み立て済みの依存関係。Closeでバックグラウンド処理を停止する。
type Components struct {
	Store       *person.Store
	Scheduler   *refresh.Scheduler
	Hub         *events.Hub
	RateLimiter *middleware.RateLimiter
	Registry    *prometheus.Registry
	Handler     http.Handler
}

// Build はConfigから全依存関係をワイヤリングする。
// SSRFGuardが有効な場合、SOURCE_URLを検証し取得元への通信にSSRF対策済みのクライアントを使う。
func Build(cfg *config.Config, log *slog.Logger) (*Components, error) {
	if log == nil {
		log = slog.Default()
	}

	// 1. 取得元クライアント
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	if cfg.SSRFGuard {
		guard := security.NewSSRFGuard()
		if err := guard.ValidateURL(cfg.SourceURL); err != nil {
			return nil, fmt.Errorf("SOURCE_URL rejected by SSRF guard: %w", err)
		}
		httpClient = guard.NewSafeClient(cfg.FetchTimeout)
	}
	source := randomuser.NewClient(httpClient, log, randomuser.Options{
		Endpoint:    cfg.SourceURL,
		Results:     cfg.SourceResults,
		Nationality: cfg.SourceNationality,
		MaxBodySize: cfg.FetchMaxSize,
	})

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. 変更通知とストア
	hub := events.NewHub(log, cfg.CORSAllowedOrigin)
	store := person.NewStore(source, log, person.StoreConfig{
		StatusPolicy: person.NewRandomStatusPolicy(cfg.StatusActiveRatio, cfg.StatusSeed),
		Sanitizer:    security.NewTextSanitizer(),
		Metrics:      collector,
		Observer:     hub.Publish,
		FetchTimeout: cfg.FetchTimeout,
	})

	scheduler := refresh.NewScheduler(store, log, refresh.Config{
		Interval:       cfg.RefreshInterval,
		MaxAttempts:    cfg.RefreshMaxAttempts,
		InitialBackoff: cfg.RefreshBackoff,
		MaxBackoff:     30 * cfg.RefreshBackoff,
	})

	// 4. ルーター
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral), log)
	router := handler.NewRouter(&handler.RouterDeps{
		Store:             store,
		Logger:            log,
		Events:            hub,
		Metrics:           metrics.Handler(reg),
		HTTPMetrics:       collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rl,
	})

	return &Components{
		Store:       store,
		Scheduler:   scheduler,
		Hub:         hub,
		RateLimiter: rl,
		Registry:    reg,
		Handler:     router,
	}, nil
}

// Close はWebSocket接続とレート制限のクリーンアップを停止する。
func (c *Components) Close() {
	c.Hub.Close()
	c.RateLimiter.Stop()
}

// Serve はlnでHTTPサーバーを起動し、ctxが終了するとグレースフルシャットダウンを行う。
// RefreshOnStartが有効な場合は受付開始前に1回リフレッシュする。取得に失敗しても起動は続ける。
// RefreshIntervalが正の場合は停止までその間隔でリフレッシュを繰り返す。
func Serve(ctx context.Context, cfg *config.Config, log *slog.Logger, ln net.Listener) error {
	components, err := Build(cfg, log)
	if err != nil {
		ln.Close()
		return err
	}
	defer components.Close()

	if cfg.RefreshOnStart {
		if err := components.Scheduler.RunOnce(ctx); err != nil {
			log.Warn("initial refresh failed, starting with an empty collection",
				slog.String("error", err.Error()),
			)
		}
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		components.Scheduler.Start(workerCtx)
	}()
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	server := &http.Server{
		Handler:     components.Handler,
		ReadTimeout: 15 * time.Second,
		// WebSocketはHijack後に自前で期限を設定するため、WriteTimeoutは通常のレスポンスにのみ効く
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", ln.Addr().String()))
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down API server...")

	// 接続中のWebSocketクライアントを先に切断し、Shutdownが待ち続けないようにする
	components.Hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen error: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
