// Package person は人物キャッシュ（PersonStore）を提供する。
// 外部の一括取得元から人物データを丸ごと取り込み、ローカルで参照・更新・削除できるコレクションとして保持する。
// ローカルでの変更は取得元へ反映されず、次のリフレッシュで破棄される。
package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/personcache/internal/model"
	"github.com/hitoshi/personcache/internal/randomuser"
)

// errors.Isでの判定用の番兵エラー。コードのみを比較する。
var (
	// ErrNotFound は指定IDのレコードが現在のコレクションに存在しないことを表す。
	ErrNotFound = &model.APIError{Code: model.ErrCodePersonNotFound}
	// ErrSourceUnavailable は取得元からの一括取得に失敗したことを表す。
	ErrSourceUnavailable = &model.APIError{Code: model.ErrCodeSourceUnavailable}
	// ErrInvalidPatch は更新内容が不正であることを表す。
	ErrInvalidPatch = &model.APIError{Code: model.ErrCodeInvalidRequest}
)

// Source は人物データの一括取得元。
type Source interface {
	FetchUsers(ctx context.Context) ([]randomuser.User, error)
}

// Sanitizer は表示用文字列を平文に正規化する。
type Sanitizer interface {
	Text(raw string) string
}

// MetricsRecorder はストアの操作結果を記録する。
type MetricsRecorder interface {
	RecordRefreshSuccess(count int)
	RecordRefreshFailure(reason string)
	RecordRefreshLatency(d time.Duration)
	RecordMutation(op string)
	SetPeopleHeld(n int)
}

// Observer は状態が変化した直後に呼び出される。ロックを保持しない状態で呼ばれる。
type Observer func(event model.ChangeEvent)

// StoreConfig はStoreの依存関係。nilのフィールドは既定の実装で補う。
type StoreConfig struct {
	StatusPolicy StatusPolicy
	Sanitizer    Sanitizer
	Metrics      MetricsRecorder
	Observer     Observer
	// FetchTimeout は1回の取得に許す時間。0以下なら打ち切らない。
	FetchTimeout time.Duration
}

// Store は人物コレクションを排他的に所有する。
// 読み取りはコピーを返し、保持中のスライスやレコードへの参照を外部に渡さない。
// 更新・削除は位置の読み取りと書き込みを1つの書き込みロック内で行う。
type Store struct {
	source   Source
	logger   *slog.Logger
	status   StatusPolicy
	sanitize Sanitizer
	metrics  MetricsRecorder
	observer Observer

	fetchTimeout time.Duration
	group        singleflight.Group

	mu     sync.RWMutex
	people []model.Person
}

// NewStore はStoreを生成する。生成直後のコレクションは空。
func NewStore(source Source, logger *slog.Logger, cfg StoreConfig) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		source:   source,
		logger:   logger,
		status:   cfg.StatusPolicy,
		sanitize: cfg.Sanitizer,
		metrics:  cfg.Metrics,
		observer: cfg.Observer,
		people:   []model.Person{},

		fetchTimeout: cfg.FetchTimeout,
	}
	if s.status == nil {
		s.status = NewRandomStatusPolicy(DefaultActiveRatio, 0)
	}
	if s.sanitize == nil {
		s.sanitize = passthrough{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	return s
}

// RefreshAll は取得元からコレクション全体を取り直し、IDを1..Nで振り直して置き換える。
// それまでのローカルな更新・削除は破棄される。
//
// 取得に失敗した場合（FetchTimeout超過を含む）はコレクションを空にしてErrSourceUnavailableを返す。
// 呼び出し元は「空＋エラー」を0件の確定ではなく再試行の合図として扱うこと。
//
// 同時に呼ばれたリフレッシュは1回の取得にまとめられる。取得はどの呼び出し元のctxにも依存せず、
// 各呼び出し元は自身のctxが先に終了した場合だけ待つのをやめてctx由来のエラーを返す。
// この場合もコレクションは置き換えの途中状態にならない。
func (s *Store) RefreshAll(ctx context.Context) ([]model.Person, error) {
	if err := ctx.Err(); err != nil {
		return []model.Person{}, fmt.Errorf("refresh canceled: %w", err)
	}

	ch := s.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := s.fetchContext(ctx)
		defer cancel()
		return s.refresh(fetchCtx)
	})

	select {
	case <-ctx.Done():
		s.logger.Warn("リフレッシュの待機を打ち切りました。取得は他の呼び出し元のために継続します",
			slog.String("error", ctx.Err().Error()),
		)
		s.metrics.RecordRefreshFailure("canceled")
		return []model.Person{}, fmt.Errorf("refresh canceled: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("リフレッシュを他の呼び出しと共有しました")
		}
		if res.Err != nil {
			return []model.Person{}, res.Err
		}
		return clonePeople(res.Val.([]model.Person)), nil
	}
}

// fetchContext は呼び出し元のキャンセルから切り離し、FetchTimeoutだけで打ち切られるctxを返す。
func (s *Store) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.fetchTimeout > 0 {
		return context.WithTimeout(detached, s.fetchTimeout)
	}
	return context.WithCancel(detached)
}

func (s *Store) refresh(ctx context.Context) ([]model.Person, error) {
	start := time.Now()
	users, err := s.source.FetchUsers(ctx)
	s.metrics.RecordRefreshLatency(time.Since(start))

	if err != nil {
		s.logger.Error("人物データの取得に失敗しました。コレクションを空にします",
			slog.String("error", err.Error()),
		)
		s.metrics.RecordRefreshFailure("source")

		s.mu.Lock()
		s.people = []model.Person{}
		s.mu.Unlock()
		s.metrics.SetPeopleHeld(0)
		s.notify(model.ChangeEvent{Type: model.ChangeRefreshed, Total: 0})

		return nil, model.NewSourceUnavailableError(err.Error())
	}

	people := make([]model.Person, len(users))
	for i, u := range users {
		p := ToPerson(u, i, s.status.Draw())
		p.Name = s.sanitize.Text(p.Name)
		p.Email = s.sanitize.Text(p.Email)
		p.Phone = s.sanitize.Text(p.Phone)
		p.Address = s.sanitize.Text(p.Address)
		people[i] = p
	}

	s.mu.Lock()
	s.people = people
	s.mu.Unlock()

	s.metrics.RecordRefreshSuccess(len(people))
	s.metrics.SetPeopleHeld(len(people))
	s.logger.Info("人物キャッシュをリフレッシュしました",
		slog.Int("count", len(people)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	s.notify(model.ChangeEvent{Type: model.ChangeRefreshed, Total: len(people)})

	// 呼び出し元へ渡す分は保持中のスライスと共有しない
	return clonePeople(people), nil
}

// GetByID は保持中のレコードのコピーを返す。直近のローカル更新が反映されている。
// 存在しない場合（未取得・ローカルで削除済み）はErrNotFoundを返す。
func (s *Store) GetByID(id int) (model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Person{}, model.NewPersonNotFoundError(id)
	}
	return s.people[i].Clone(), nil
}

// Lookup はストアを優先し、見つからない場合は呼び出し元が保持していたfallbackを返す2段階の参照。
// 2番目の戻り値はストアから取得できた場合にtrueとなる。
func (s *Store) Lookup(id int, fallback model.Person) (model.Person, bool) {
	p, err := s.GetByID(id)
	if err != nil {
		return fallback, false
	}
	return p, true
}

// Update はpatchで指定されたフィールドのみを保持中のレコードへ上書きし、更新後のレコード全体を返す。
// ID、RegisteredDate、SourceIDは変更されない。
// 変更は以降のGetByID/ListCurrentに反映されるが、次のRefreshAllで破棄される。
func (s *Store) Update(id int, patch model.PersonPatch) (model.Person, error) {
	if err := s.validatePatch(patch); err != nil {
		return model.Person{}, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Person{}, model.NewPersonNotFoundError(id)
	}
	s.applyPatch(&s.people[i], patch)
	updated := s.people[i].Clone()
	total := len(s.people)
	s.mu.Unlock()

	s.metrics.RecordMutation("update")
	s.logger.Info("人物を更新しました", slog.Int("person_id", id))
	event := updated.Clone()
	s.notify(model.ChangeEvent{Type: model.ChangeUpdated, ID: id, Person: &event, Total: total})

	return updated, nil
}

// Delete は保持中のコレクションからレコードを削除する。残りのレコードの順序は保たれる。
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return model.NewPersonNotFoundError(id)
	}
	s.people = slices.Delete(s.people, i, i+1)
	total := len(s.people)
	s.mu.Unlock()

	s.metrics.RecordMutation("delete")
	s.metrics.SetPeopleHeld(total)
	s.logger.Info("人物を削除しました", slog.Int("person_id", id))
	s.notify(model.ChangeEvent{Type: model.ChangeDeleted, ID: id, Total: total})

	return nil
}

// ListCurrent は現在のコレクションのコピーを保持順で返す。未取得・全件削除後は空スライスを返す。
func (s *Store) ListCurrent() []model.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePeople(s.people)
}

// Len は現在保持しているレコード数を返す。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}

// indexOf は呼び出し側でロックを保持していることを前提とする。
func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.people, func(p model.Person) bool { return p.ID == id })
}

// validatePatch は入力の存在チェックのみを行う。形式の検証はしない。
func (s *Store) validatePatch(patch model.PersonPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return model.NewInvalidRequestError(fmt.Sprintf("statusには active または inactive を指定してください: %q", *patch.Status))
	}
	required := []struct {
		field string
		value *string
	}{
		{"name", patch.Name},
		{"taxId", patch.TaxID},
		{"email", patch.Email},
	}
	for _, r := range required {
		if r.value != nil && s.sanitize.Text(*r.value) == "" {
			return model.NewInvalidRequestError(fmt.Sprintf("%sは空にできません", r.field))
		}
	}
	return nil
}

func (s *Store) applyPatch(p *model.Person, patch model.PersonPatch) {
	if patch.Name != nil {
		p.Name = s.sanitize.Text(*patch.Name)
	}
	if patch.TaxID != nil {
		p.TaxID = s.sanitize.Text(*patch.TaxID)
	}
	if patch.Email != nil {
		p.Email = s.sanitize.Text(*patch.Email)
	}
	if patch.Phone != nil {
		p.Phone = s.sanitize.Text(*patch.Phone)
	}
	if patch.Address != nil {
		p.Address = s.sanitize.Text(*patch.Address)
	}
	if patch.BirthDate != nil {
		if d := strings.TrimSpace(*patch.BirthDate); d != "" {
			p.BirthDate = &d
		} else {
			p.BirthDate = nil
		}
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
}

func (s *Store) notify(event model.ChangeEvent) {
	if s.observer != nil {
		s.observer(event)
	}
}

// IsNotFound はerrがErrNotFoundに該当するかを返す。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func clonePeople(people []model.Person) []model.Person {
	out := make([]model.Person, len(people))
	for i, p := range people {
		out[i] = p.Clone()
	}
	return out
}

type passthrough struct{}

func (passthrough) Text(raw string) string { return strings.TrimSpace(raw) }

type noopMetrics struct{}

func (noopMetrics) RecordRefreshSuccess(int) {}
func (noopMetrics) RecordRefreshFailure(string) {}
func (noopMetrics) RecordRefreshLatency(time.Duration) {}
func (noopMetrics) RecordMutation(string) {}
func (noopMetrics) SetPeopleHeld(int) {}
