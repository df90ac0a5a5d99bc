// Package refresh は人物キャッシュのバックグラウンドリフレッシュを提供する。
// 起動時の再試行付きリフレッシュと、一定間隔での定期リフレッシュを含む。
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/personcache/internal/model"
)

// Refresher はコレクション全体のリフレッシュを行う。
type Refresher interface {
	RefreshAll(ctx context.Context) ([]model.Person, error)
}

// Config はSchedulerの動作設定。
type Config struct {
	// Interval は定期リフレッシュの間隔。0以下なら定期リフレッシュを行わない。
	Interval time.Duration
	// MaxAttempts は1サイクルあたりの最大試行回数。
	MaxAttempts int
	// InitialBackoff は再試行前の初回待機時間。
	InitialBackoff time.Duration
	// MaxBackoff は再試行前の待機時間の上限。
	MaxBackoff time.Duration
}

// DefaultConfig は定期リフレッシュ無効、3回試行の設定を返す。
func DefaultConfig() Config {
	return Config{
		Interval:       0,
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Scheduler はリフレッシュの再試行と定期実行を行う。
// 定期リフレッシュはローカルでの更新・削除を破棄する点に注意。
type Scheduler struct {
	refresher Refresher
	logger    *slog.Logger
	config    Config
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// MaxAttemptsが0以下の場合は1回のみ試行する。
func NewScheduler(refresher Refresher, logger *slog.Logger, config Config) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		config:    config,
	}
}

// RunOnce はリフレッシュを1サイクル実行する。
// 取得元の失敗時はバックオフを挟んでMaxAttemptsまで再試行し、最後のエラーを返す。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(attempt-1, s.config.InitialBackoff, s.config.MaxBackoff)
			s.logger.Warn("リフレッシュを再試行します",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", delay),
				slog.String("error", lastErr.Error()),
			)
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("refresh retry aborted: %w", err)
			}
		}

		people, err := s.refresher.RefreshAll(ctx)
		if err == nil {
			s.logger.Info("リフレッシュサイクルが完了しました",
				slog.Int("count", len(people)),
				slog.Int("attempts", attempt+1),
			)
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}
	return lastErr
}

// Start はInterval間隔のティッカーで定期リフレッシュを実行する。
// 起動時のリフレッシュは呼び出し元がRunOnceで行う前提のため、最初の実行は1間隔後になる。
// Intervalが0以下の場合は即座に戻る。コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context) {
	if s.config.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("リフレッシュスケジューラを開始しました",
		slog.Duration("interval", s.config.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("リフレッシュスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("リフレッシュサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
