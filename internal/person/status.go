package person

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/personcache/internal/model"
)

// DefaultActiveRatio は取り込み時にactiveとなる確率の既定値。
const DefaultActiveRatio = 0.7

// StatusPolicy は取り込み時に各レコードへ割り当てるStatusを決める。
// 取得元はStatusを持たないため、データ生成側の方針として差し替え可能にしている。
type StatusPolicy interface {
	Draw() model.Status
}

// RandomStatusPolicy はレコードごとに独立した乱数でStatusを割り当てる。
type RandomStatusPolicy struct {
	mu          sync.Mutex
	rng         *rand.Rand
	activeRatio float64
}

// NewRandomStatusPolicy はRandomStatusPolicyを生成する。
// activeRatioが0〜1の範囲外の場合はDefaultActiveRatioを使用する。
// seedが0の場合は現在時刻をシードにする。テストでは固定シードを渡して結果を再現できる。
func NewRandomStatusPolicy(activeRatio float64, seed int64) *RandomStatusPolicy {
	if activeRatio < 0 || activeRatio > 1 {
		activeRatio = DefaultActiveRatio
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomStatusPolicy{
		rng:         rand.New(rand.NewSource(seed)),
		activeRatio: activeRatio,
	}
}

// Draw はactiveRatioの確率でStatusActiveを、それ以外はStatusInactiveを返す。
func (p *RandomStatusPolicy) Draw() model.Status {
	p.mu.Lock()
	v := p.rng.Float64()
	p.mu.Unlock()

	if v < p.activeRatio {
		return model.StatusActive
	}
	return model.StatusInactive
}

// FixedStatus は常に同じStatusを返すStatusPolicy。
type FixedStatus model.Status

// Draw はFixedStatusの値を返す。
func (f FixedStatus) Draw() model.Status {
	return model.Status(f)
}
