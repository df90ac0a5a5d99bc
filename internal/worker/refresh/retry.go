package refresh

import (
	"errors"
	"time"

	"github.com/hitoshi/personcache/internal/person"
)

// CalculateBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// initialから2倍ずつ増加し、maxで頭打ちになる。
func CalculateBackoff(consecutiveErrors int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		return 0
	}
	delay := initial
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}

// IsRetryable は取得元の失敗（空＋エラー）の場合のみtrueを返す。
// キャンセル・タイムアウトは呼び出し元の都合なので再試行しない。
func IsRetryable(err error) bool {
	return errors.Is(err, person.ErrSourceUnavailable)
}
